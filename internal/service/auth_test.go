package service

import "testing"

func TestSeaTalkSignature_RoundTrip(t *testing.T) {
	secret := "app-secret"
	token := "qr-token-1"
	code := "OPS123"

	sig := SeaTalkSignature(secret, token, code)
	if sig == "" {
		t.Fatalf("expected non-empty signature")
	}

	if SeaTalkSignature(secret, token, code) != sig {
		t.Fatalf("signature must be deterministic")
	}
	if SeaTalkSignature("other-secret", token, code) == sig {
		t.Fatalf("different secret must produce a different signature")
	}
	if SeaTalkSignature(secret, token, "OPS999") == sig {
		t.Fatalf("different employee code must produce a different signature")
	}
}
