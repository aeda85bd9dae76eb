package env

import "testing"

func TestGetFallsBackWhenUnsetOrEmpty(t *testing.T) {
	if got := Get("SHOPFRONT_ENV_TEST_MISSING", "fallback"); got != "fallback" {
		t.Fatalf("unset: got %q", got)
	}

	t.Setenv("SHOPFRONT_ENV_TEST_KEY", "")
	if got := Get("SHOPFRONT_ENV_TEST_KEY", "fallback"); got != "fallback" {
		t.Fatalf("empty: got %q", got)
	}

	t.Setenv("SHOPFRONT_ENV_TEST_KEY", "console")
	if got := Get("SHOPFRONT_ENV_TEST_KEY", "fallback"); got != "console" {
		t.Fatalf("set: got %q", got)
	}
}
