package services

import (
	"errors"
	"log"
	"time"

	"shopbud/internal/repositories"
)

// ReconcileService applies confirmed payments to orders and stock. It is the
// only place in the system that sets paid_at or decrements stock.
type ReconcileService struct {
	paymentRepo repositories.PaymentRepository
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	mqClient    EventPublisher
}

// NewReconcileService creates a new ReconcileService.
func NewReconcileService(paymentRepo repositories.PaymentRepository, orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, mqClient EventPublisher) *ReconcileService {
	return &ReconcileService{
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		mqClient:    mqClient,
	}
}

// HandlePaymentSucceeded reconciles a "payment succeeded" gateway event
// against its order: mark the payment paid, stamp the order's paid_at and
// decrement stock per line item. Safe under at-least-once delivery: the
// paid_at gate turns redeliveries into no-ops before any downstream effect.
func (s *ReconcileService) HandlePaymentSucceeded(intentID string) error {
	payment, err := s.paymentRepo.GetByIntentID(intentID)
	if err != nil {
		if errors.Is(err, repositories.ErrPaymentNotFound) {
			// A succeeded intent with no payment row is a data-integrity
			// anomaly. Fail so the gateway retries once the cause (for
			// example replica lag) clears.
			return &ReconciliationLookupError{IntentID: intentID, Err: err}
		}
		return err
	}

	if err := s.paymentRepo.MarkPaid(intentID); err != nil {
		return err
	}

	applied, err := s.orderRepo.SetPaidAt(payment.OrderID, time.Now())
	if err != nil {
		return err
	}
	if !applied {
		// Already paid: this is a redelivered event. Stock was decremented
		// the first time around, so there is nothing left to do.
		log.Printf("Order %s already marked paid; ignoring duplicate event for intent %s", payment.OrderID, intentID)
		return nil
	}

	order, err := s.orderRepo.GetByID(payment.OrderID)
	if err != nil {
		return err
	}

	// Decrement stock per item. Failures here never fail the webhook; the
	// gateway's retry semantics are per-event, and paid_at is already set,
	// so a retry would skip this block entirely. Shortfalls go to the
	// reconciliation queue for an operator.
	for _, item := range order.Items {
		applied, err := s.productRepo.DecrementStock(item.ProductID, item.Quantity)
		if err != nil || !applied {
			log.Printf("Stock decrement failed for product %s (order %s, qty %d): applied=%v err=%v",
				item.ProductID, order.ID, item.Quantity, applied, err)
			if s.mqClient != nil {
				shortfall := map[string]interface{}{
					"orderID":   order.ID,
					"productID": item.ProductID,
					"quantity":  item.Quantity,
				}
				if pubErr := s.mqClient.PublishStockShortfall(shortfall); pubErr != nil {
					log.Printf("Warning: Failed to publish stock shortfall for order %s: %v", order.ID, pubErr)
				}
			}
		}
	}

	log.Printf("Order %s reconciled as paid (intent %s)", order.ID, intentID)
	return nil
}
