package repositories

import (
	"errors"

	"shopbud/internal/models"
)

// ErrPaymentNotFound is returned when no payment matches the given
// correlation key.
var ErrPaymentNotFound = errors.New("payment not found")

// PaymentRepository defines the interface for payment data access.
type PaymentRepository interface {
	Create(payment *models.Payment) error
	// GetByIntentID looks up the payment correlated with a gateway payment
	// intent. A miss wraps ErrPaymentNotFound so callers can tell it apart
	// from an infrastructure failure.
	GetByIntentID(intentID string) (*models.Payment, error)
	// MarkPaid transitions the payment identified by the intent ID to Paid.
	// A miss wraps ErrPaymentNotFound.
	MarkPaid(intentID string) error
}
