package handlers

import (
	"encoding/json"
	"log"

	"shopbud/internal/payments"
	"shopbud/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v78"
)

// WebhookHandler receives asynchronous payment events from the gateway and
// hands confirmed payments to the reconciliation service.
type WebhookHandler struct {
	verifier  *payments.WebhookVerifier
	reconcile *services.ReconcileService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(verifier *payments.WebhookVerifier, reconcile *services.ReconcileService) *WebhookHandler {
	return &WebhookHandler{
		verifier:  verifier,
		reconcile: reconcile,
	}
}

// RegisterRoutes registers the webhook route. It must not sit behind auth
// middleware; the signature check is the authentication.
func (h *WebhookHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/payment/webhook", h.HandleWebhook)
}

// HandleWebhook verifies and dispatches one gateway event. Delivery is
// at-least-once: a 500 here makes the gateway retry, a 200 acknowledges
// the event for good.
func (h *WebhookHandler) HandleWebhook(c *fiber.Ctx) error {
	// The raw body is required; any re-encoding would break the signature.
	event, err := h.verifier.Verify(c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		log.Printf("Webhook signature verification failed: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Webhook signature verification failed.",
		})
	}

	// Only successful payment intents trigger reconciliation; every other
	// event subtype is acknowledged without action.
	if event.Type == "payment_intent.succeeded" {
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			log.Printf("Failed to parse payment intent from event %s: %v", event.ID, err)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Malformed payment intent payload.",
			})
		}

		if err := h.reconcile.HandlePaymentSucceeded(intent.ID); err != nil {
			// Retryable: the gateway redelivers until reconciliation
			// succeeds. Includes the missing-payment-row anomaly.
			log.Printf("Reconciliation failed for intent %s: %v", intent.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Error reconciling payment.",
			})
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"received": true,
	})
}
