package repositories

import (
	"time"

	"shopbud/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// CreateOrderGraph persists the order together with its items and
	// shipping info as a single atomic unit. Either all rows become visible
	// or none do.
	CreateOrderGraph(order *models.Order, items []models.OrderItem, shipping *models.ShippingInfo) error
	GetByID(id string) (*models.Order, error)
	// GetAllPaid returns every paid order, items and shipping info included.
	GetAllPaid() ([]models.Order, error)
	// GetPaidByBuyer returns the buyer's paid orders.
	GetPaidByBuyer(buyerID string) ([]models.Order, error)
	// GetUnpaidOlderThan lists orders still awaiting payment that were
	// created before the cutoff. Used by the operator sweep for orders whose
	// payment-intent creation failed after the graph committed.
	GetUnpaidOlderThan(cutoff time.Time) ([]models.Order, error)
	UpdateStatus(id string, status string) error
	// SetPaidAt stamps the order's paid_at, but only if it is not set yet.
	// It returns false when the order was already paid, so redelivered
	// webhook events can skip downstream effects.
	SetPaidAt(id string, paidAt time.Time) (bool, error)
	Delete(id string) error
}
