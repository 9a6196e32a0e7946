package payments

import (
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"
)

// WebhookVerifier checks the authenticity of inbound gateway events against
// the shared signing secret.
type WebhookVerifier struct {
	secret string
}

// NewWebhookVerifier creates a WebhookVerifier for the given signing secret.
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

// Verify validates the signature header against the raw payload and returns
// the parsed event. The raw body must be passed untouched; any re-encoding
// breaks the signature.
func (v *WebhookVerifier) Verify(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, v.secret)
}
