package payments

import "context"

// PaymentIntent is the client-usable result of initiating a payment: the
// gateway's correlation ID and the secret the storefront needs to complete
// the payment directly with the processor.
type PaymentIntent struct {
	IntentID     string
	ClientSecret string
}

// Gateway abstracts the external payment processor. Implementations persist
// a Pending payment row correlating the intent with the order.
type Gateway interface {
	CreateIntent(ctx context.Context, orderID string, amount float64) (*PaymentIntent, error)
}
