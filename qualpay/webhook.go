package qualpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
)

// SignatureHeader is the request header carrying one or more base64
// HMAC-SHA256 signatures of the raw webhook body.
const SignatureHeader = "x-qualpay-webhook-signature"

// WebhookSignature computes the expected signature of a raw webhook body:
// base64 of HMAC-SHA256 keyed by the per-merchant webhook secret. The body
// must be the byte-exact form received on the wire; re-serializing a parsed
// payload invalidates the signature.
func WebhookSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyWebhook reports whether any of the supplied header signatures
// matches the raw body under the secret. It is a pure function of its
// inputs: identical inputs always yield the same verdict.
func VerifyWebhook(secret string, body []byte, signatures []string) bool {
	if len(body) == 0 || len(signatures) == 0 {
		return false
	}
	expected := []byte(WebhookSignature(secret, body))
	for _, signature := range signatures {
		if hmac.Equal([]byte(signature), expected) {
			return true
		}
	}
	return false
}

// DecodeWebhookEvent verifies the signature and decodes the event envelope.
// An invalid signature returns an error and no event; the payload must not
// be trusted, let alone acted on.
func DecodeWebhookEvent(secret string, body []byte, signatures []string) (*WebhookEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("qualpay: webhook body is empty")
	}
	if len(signatures) == 0 {
		return nil, errors.New("qualpay: webhook request is not signed")
	}
	if !VerifyWebhook(secret, body, signatures) {
		return nil, errors.New("qualpay: webhook signature mismatch")
	}

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, errors.New("qualpay: malformed webhook payload")
	}
	return &event, nil
}

// SubscriptionPayload decodes the event data as a subscription, the payload
// of every subscription_* event.
func (e *WebhookEvent) SubscriptionPayload() (*Subscription, error) {
	if len(e.Data) == 0 {
		return nil, errors.New("qualpay: webhook event has no data")
	}
	var subscription Subscription
	if err := json.Unmarshal(e.Data, &subscription); err != nil {
		return nil, errors.New("qualpay: webhook data is not a subscription")
	}
	return &subscription, nil
}
