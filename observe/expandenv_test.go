package observe

import (
	"errors"
	"testing"
)

func TestExpandEnv_BracedVariable(t *testing.T) {
	t.Setenv("OBS_TEST_ENDPOINT", "collector:4317")

	got, err := expandEnv("${OBS_TEST_ENDPOINT}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "collector:4317" {
		t.Errorf("expected 'collector:4317', got %q", got)
	}
}

func TestExpandEnv_EmbeddedVariable(t *testing.T) {
	t.Setenv("OBS_TEST_HOST", "collector")

	got, err := expandEnv("https://${OBS_TEST_HOST}:4317/v1/traces")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://collector:4317/v1/traces" {
		t.Errorf("unexpected expansion: %q", got)
	}
}

func TestExpandEnv_MissingVariable(t *testing.T) {
	_, err := expandEnv("${OBS_TEST_DEFINITELY_UNSET}")
	if err == nil {
		t.Fatal("expected error for missing variable")
	}
	if !errors.Is(err, ErrMissingEnvVar) {
		t.Errorf("expected ErrMissingEnvVar, got %v", err)
	}
}

func TestExpandEnv_DollarEscape(t *testing.T) {
	got, err := expandEnv("cost is $$5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "cost is $5" {
		t.Errorf("expected 'cost is $5', got %q", got)
	}
}

func TestExpandEnv_NoVariables(t *testing.T) {
	got, err := expandEnv("localhost:4317")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "localhost:4317" {
		t.Errorf("expected passthrough, got %q", got)
	}
}

func TestExpandEnv_MultipleMissingSorted(t *testing.T) {
	_, err := expandEnv("${OBS_TEST_ZZZ_UNSET}/${OBS_TEST_AAA_UNSET}")
	if err == nil {
		t.Fatal("expected error")
	}
	want := "observe: missing required environment variable: OBS_TEST_AAA_UNSET, OBS_TEST_ZZZ_UNSET"
	if got := err.Error(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
