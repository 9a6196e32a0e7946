package repositories

import (
	"fmt"
	"sync"

	"shopbud/internal/models"

	"github.com/google/uuid"
)

// MockPaymentRepository is an in-memory implementation of PaymentRepository.
type MockPaymentRepository struct {
	payments map[string]models.Payment // keyed by payment_intent_id
	mu       sync.RWMutex
}

// NewMockPaymentRepository creates a new instance of MockPaymentRepository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[string]models.Payment),
	}
}

// Create adds a new payment.
func (r *MockPaymentRepository) Create(payment *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if payment.PaymentStatus == "" {
		payment.PaymentStatus = models.PaymentStatusPending
	}
	for _, p := range r.payments {
		if p.OrderID == payment.OrderID {
			return fmt.Errorf("payment for order %s already exists", payment.OrderID)
		}
	}
	r.payments[payment.PaymentIntentID] = *payment
	return nil
}

// GetByIntentID returns the payment correlated with a payment intent.
func (r *MockPaymentRepository) GetByIntentID(intentID string) (*models.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	payment, ok := r.payments[intentID]
	if !ok {
		return nil, fmt.Errorf("intent %s: %w", intentID, ErrPaymentNotFound)
	}
	return &payment, nil
}

// MarkPaid sets the payment's status to Paid.
func (r *MockPaymentRepository) MarkPaid(intentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	payment, ok := r.payments[intentID]
	if !ok {
		return fmt.Errorf("intent %s: %w", intentID, ErrPaymentNotFound)
	}
	payment.PaymentStatus = models.PaymentStatusPaid
	r.payments[intentID] = payment
	return nil
}
