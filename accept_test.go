package ws

import "testing"

// TestAcceptKeyRFCVector is the exact key/accept pair from RFC 6455 §1.3.
func TestAcceptKeyRFCVector(t *testing.T) {
	const nonce = "dGhlIHNhbXBsZSBub25jZQ=="
	const want = "s3pPLMBiTxaQ9kYGzzhZRbK+xOo="

	if got := AcceptKey(nonce); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if !CheckAcceptKey(nonce, want) {
		t.Fatal("CheckAcceptKey rejected the correct accept value")
	}
	if CheckAcceptKey(nonce, want+"x") {
		t.Fatal("CheckAcceptKey accepted a corrupted value")
	}
}

func TestNewNonceLength(t *testing.T) {
	n := NewNonce()
	if len(n) != NonceSize {
		t.Fatalf("got length %d, want %d", len(n), NonceSize)
	}
}
