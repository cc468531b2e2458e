package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// WebhookVerifier validates gateway callback signatures.
type WebhookVerifier struct {
	secret []byte
}

// NewWebhookVerifier constructs a verifier with the shared secret.
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: []byte(secret)}
}

// Sign computes the hex HMAC-SHA256 signature of a raw payload.
func (v *WebhookVerifier) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	_, _ = mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks the signature header against the raw request body. A
// missing secret rejects everything rather than accepting everything.
func (v *WebhookVerifier) Verify(payload []byte, signature string) error {
	if len(v.secret) == 0 {
		return fmt.Errorf("webhook secret not configured")
	}
	if signature == "" {
		return fmt.Errorf("missing signature")
	}
	expected := v.Sign(payload)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("invalid signature")
	}
	return nil
}
