package exporters

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenExpired indicates a configured bearer token is a JWT whose
// expiry is already in the past.
var ErrTokenExpired = errors.New("exporters: bearer token is expired")

// BearerHeaders builds the authorization headers for a static collector
// token. An empty token yields nil headers.
//
// Tokens shaped like JWTs are parsed WITHOUT signature verification - the
// collector does the real verification - purely to reject tokens that are
// already expired at setup time, which would otherwise fail silently on
// every export.
func BearerHeaders(token string) (map[string]string, error) {
	if token == "" {
		return nil, nil
	}

	if looksLikeJWT(token) {
		if err := checkJWTExpiry(token); err != nil {
			return nil, err
		}
	}

	return map[string]string{"authorization": "Bearer " + token}, nil
}

func looksLikeJWT(token string) bool {
	return strings.Count(token, ".") == 2
}

func checkJWTExpiry(token string) error {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		// Not actually a JWT; treat as an opaque token.
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if exp.Before(time.Now()) {
		return fmt.Errorf("%w: expired at %s", ErrTokenExpired, exp.Format(time.RFC3339))
	}
	return nil
}
