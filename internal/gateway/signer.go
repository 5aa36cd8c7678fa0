package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"
)

// Signer authenticates submit calls to the ledger node. It stands in for the
// wallet's bound signer: every mutating request carries an HMAC over the
// request body keyed by the account's secret.
type Signer struct {
	accessKey string
	secretKey string
}

// NewSigner creates a new Signer instance
func NewSigner(accessKey, secretKey string) *Signer {
	return &Signer{
		accessKey: accessKey,
		secretKey: secretKey,
	}
}

// Enabled reports whether credentials are configured. Read-only calls work
// unsigned.
func (s *Signer) Enabled() bool {
	return s.accessKey != "" && s.secretKey != ""
}

// GenerateHeaders creates the auth headers for a request.
// method: the RPC method name (e.g. market.buy)
// body: the serialized request envelope
func (s *Signer) GenerateHeaders(method, body string) map[string]string {
	timestamp := fmt.Sprintf("%d", time.Now().UnixMilli())

	// String to sign: timestamp + method + body
	payload := timestamp + method + body

	sign := computeHmacSha256(payload, s.secretKey)

	return map[string]string{
		"X-MARKET-KEY":       s.accessKey,
		"X-MARKET-SIGN":      sign,
		"X-MARKET-TIMESTAMP": timestamp,
		"Content-Type":       "application/json",
	}
}

func computeHmacSha256(message string, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
