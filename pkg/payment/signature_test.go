package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyRoundTrip(t *testing.T) {
	verifier := NewWebhookVerifier("topsecret")
	payload := []byte(`{"transaction_id":"tx-1","status":"success"}`)

	sig := verifier.Sign(payload)
	require.NotEmpty(t, sig)
	assert.NoError(t, verifier.Verify(payload, sig))
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	verifier := NewWebhookVerifier("topsecret")
	sig := verifier.Sign([]byte(`{"transaction_id":"tx-1"}`))

	err := verifier.Verify([]byte(`{"transaction_id":"tx-2"}`), sig)
	assert.Error(t, err)
}

func TestVerifyRejectsMissingSignature(t *testing.T) {
	verifier := NewWebhookVerifier("topsecret")
	err := verifier.Verify([]byte("{}"), "")
	assert.Error(t, err)
}

func TestVerifyRejectsWhenSecretUnset(t *testing.T) {
	verifier := NewWebhookVerifier("")
	sig := verifier.Sign([]byte("{}"))
	err := verifier.Verify([]byte("{}"), sig)
	assert.Error(t, err)
}
