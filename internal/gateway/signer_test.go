package gateway

import (
	"testing"
)

func TestSigner_GenerateHeaders(t *testing.T) {
	signer := NewSigner("key", "secret")

	if !signer.Enabled() {
		t.Fatal("signer with credentials should be enabled")
	}

	headers := signer.GenerateHeaders("market.buy", `{"id":3,"value":"500"}`)

	if headers["X-MARKET-KEY"] != "key" {
		t.Errorf("Expected X-MARKET-KEY to be 'key', got %s", headers["X-MARKET-KEY"])
	}
	if headers["X-MARKET-SIGN"] == "" {
		t.Error("X-MARKET-SIGN should not be empty")
	}
	if len(headers["X-MARKET-TIMESTAMP"]) != 13 { // Milliseconds
		t.Errorf("Expected timestamp len 13, got %s", headers["X-MARKET-TIMESTAMP"])
	}
}

func TestSigner_Disabled(t *testing.T) {
	if NewSigner("", "").Enabled() {
		t.Error("signer without credentials should be disabled")
	}
	if NewSigner("key", "").Enabled() {
		t.Error("signer without a secret should be disabled")
	}
}

func TestComputeHmacSha256(t *testing.T) {
	// Standard HMAC-SHA256 test vector
	key := "key"
	data := "The quick brown fox jumps over the lazy dog"
	// Base64: 97yD9DBThCSxMpjmqm+xQ+9NWaFJRhdZl0edvC0aPNg=

	expected := "97yD9DBThCSxMpjmqm+xQ+9NWaFJRhdZl0edvC0aPNg="
	result := computeHmacSha256(data, key)

	if result != expected {
		t.Errorf("HMAC mismatch. Expected %s, got %s", expected, result)
	}
}
