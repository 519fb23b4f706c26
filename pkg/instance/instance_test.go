package instance

import "testing"

func TestIDPrecedence(t *testing.T) {
	t.Setenv("STOREFRONT_INSTANCE_ID", "api-1")
	t.Setenv("DYNO", "web.1")
	if got := ID(); got != "api-1" {
		t.Fatalf("ID() = %q, want api-1", got)
	}

	t.Setenv("STOREFRONT_INSTANCE_ID", "")
	if got := ID(); got != "web.1" {
		t.Fatalf("ID() = %q, want web.1", got)
	}

	t.Setenv("DYNO", "")
	if got := ID(); got == "" {
		t.Fatalf("expected hostname fallback")
	}
}
