package payments

import (
	"context"
	"fmt"
	"math"

	"shopbud/internal/models"
	"shopbud/internal/repositories"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

// stripeIntentAPI is the slice of the Stripe client the gateway needs.
// Narrowing it here keeps the adapter testable without network access.
type stripeIntentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// StripeGateway implements Gateway using the Stripe PaymentIntents API and
// records each created intent as a Pending payment row.
type StripeGateway struct {
	intents     stripeIntentAPI
	paymentRepo repositories.PaymentRepository
}

// NewStripeGateway creates a StripeGateway backed by the real Stripe client.
func NewStripeGateway(apiKey string, paymentRepo repositories.PaymentRepository) *StripeGateway {
	sc := client.New(apiKey, nil)
	return &StripeGateway{
		intents:     sc.PaymentIntents,
		paymentRepo: paymentRepo,
	}
}

// NewStripeGatewayWithAPI creates a StripeGateway over a caller-supplied
// intent API. Used by tests.
func NewStripeGatewayWithAPI(api stripeIntentAPI, paymentRepo repositories.PaymentRepository) *StripeGateway {
	return &StripeGateway{
		intents:     api,
		paymentRepo: paymentRepo,
	}
}

// CreateIntent creates a payment intent for the given amount (whole currency
// units) and persists the Pending payment correlating it with the order.
// The context bounds the outbound call.
func (g *StripeGateway) CreateIntent(ctx context.Context, orderID string, amount float64) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(math.Round(amount * 100))),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("order_id", orderID)

	pi, err := g.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent for order %s: %w", orderID, err)
	}

	payment := &models.Payment{
		OrderID:         orderID,
		PaymentIntentID: pi.ID,
		PaymentStatus:   models.PaymentStatusPending,
	}
	if err := g.paymentRepo.Create(payment); err != nil {
		return nil, fmt.Errorf("failed to persist payment for order %s: %w", orderID, err)
	}

	return &PaymentIntent{
		IntentID:     pi.ID,
		ClientSecret: pi.ClientSecret,
	}, nil
}
