package exporters

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TestBearerHeaders_EmptyToken verifies no headers are produced without a token.
func TestBearerHeaders_EmptyToken(t *testing.T) {
	headers, err := BearerHeaders("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if headers != nil {
		t.Errorf("expected nil headers, got %v", headers)
	}
}

// TestBearerHeaders_OpaqueToken verifies non-JWT tokens pass through.
func TestBearerHeaders_OpaqueToken(t *testing.T) {
	headers, err := BearerHeaders("opaque-collector-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if headers["authorization"] != "Bearer opaque-collector-token" {
		t.Errorf("unexpected authorization header: %q", headers["authorization"])
	}
}

// TestBearerHeaders_ValidJWT verifies a live JWT is accepted.
func TestBearerHeaders_ValidJWT(t *testing.T) {
	token := signedToken(t, time.Now().Add(time.Hour))

	headers, err := BearerHeaders(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if headers["authorization"] != "Bearer "+token {
		t.Error("expected the token in the authorization header")
	}
}

// TestBearerHeaders_ExpiredJWT verifies an expired JWT is rejected at setup.
func TestBearerHeaders_ExpiredJWT(t *testing.T) {
	token := signedToken(t, time.Now().Add(-time.Hour))

	_, err := BearerHeaders(token)
	if err == nil {
		t.Fatal("expected error for expired token")
	}
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got: %v", err)
	}
}

// TestBearerHeaders_JWTWithoutExpiry verifies a JWT with no exp claim is accepted.
func TestBearerHeaders_JWTWithoutExpiry(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "collector"})
	signed, err := tok.SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	if _, err := BearerHeaders(signed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestBearerHeaders_MalformedJWT verifies a dotted but unparseable token is
// treated as opaque rather than rejected.
func TestBearerHeaders_MalformedJWT(t *testing.T) {
	headers, err := BearerHeaders("not.a.jwt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if headers["authorization"] == "" {
		t.Error("expected authorization header for opaque token")
	}
}

func signedToken(t *testing.T, expiry time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "collector",
		"exp": expiry.Unix(),
	})
	signed, err := tok.SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}
