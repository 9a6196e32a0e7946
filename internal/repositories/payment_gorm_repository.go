package repositories

import (
	"fmt"

	"shopbud/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMPaymentRepository is a GORM implementation of PaymentRepository.
type GORMPaymentRepository struct {
	db *gorm.DB
}

// NewGORMPaymentRepository creates a new instance of GORMPaymentRepository.
func NewGORMPaymentRepository(db *gorm.DB) *GORMPaymentRepository {
	return &GORMPaymentRepository{
		db: db,
	}
}

// Create creates a new payment row. The unique index on order_id enforces
// the one-payment-per-order invariant at the database level.
func (r *GORMPaymentRepository) Create(payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if payment.PaymentStatus == "" {
		payment.PaymentStatus = models.PaymentStatusPending
	}
	if err := r.db.Create(payment).Error; err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// GetByIntentID retrieves the payment correlated with a payment intent.
func (r *GORMPaymentRepository) GetByIntentID(intentID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.First(&payment, "payment_intent_id = ?", intentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("intent %s: %w", intentID, ErrPaymentNotFound)
		}
		return nil, fmt.Errorf("failed to get payment by intent ID %s: %w", intentID, err)
	}
	return &payment, nil
}

// MarkPaid sets the payment's status to Paid.
func (r *GORMPaymentRepository) MarkPaid(intentID string) error {
	res := r.db.Model(&models.Payment{}).
		Where("payment_intent_id = ?", intentID).
		Update("payment_status", models.PaymentStatusPaid)
	if res.Error != nil {
		return fmt.Errorf("failed to mark payment paid for intent %s: %w", intentID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("intent %s: %w", intentID, ErrPaymentNotFound)
	}
	return nil
}
