package repositories

import (
	"fmt"
	"time"

	"shopbud/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// CreateOrderGraph creates the order, its items and its shipping info inside
// one transaction. The item rows are inserted as a single batch so no partial
// order graph is ever visible to concurrent readers.
func (r *GORMOrderRepository) CreateOrderGraph(order *models.Order, items []models.OrderItem, shipping *models.ShippingInfo) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if order.OrderStatus == "" {
		order.OrderStatus = models.OrderStatusProcessing
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items", "ShippingInfo").Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for i := range items {
			if items[i].ID == "" {
				items[i].ID = uuid.New().String()
			}
			items[i].OrderID = order.ID
		}
		if err := tx.CreateInBatches(items, len(items)).Error; err != nil {
			return fmt.Errorf("failed to create order items: %w", err)
		}

		if shipping.ID == "" {
			shipping.ID = uuid.New().String()
		}
		shipping.OrderID = order.ID
		if err := tx.Create(shipping).Error; err != nil {
			return fmt.Errorf("failed to create shipping info: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	order.Items = items
	order.ShippingInfo = shipping
	return nil
}

// GetByID retrieves a single order with its items and shipping info.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").Preload("ShippingInfo").First(&order, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("order with ID %s not found", id)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// GetAllPaid retrieves all orders that have been paid.
func (r *GORMOrderRepository) GetAllPaid() ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Preload("ShippingInfo").
		Where("paid_at IS NOT NULL").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get paid orders: %w", err)
	}
	return orders, nil
}

// GetPaidByBuyer retrieves the paid orders belonging to one buyer.
func (r *GORMOrderRepository) GetPaidByBuyer(buyerID string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Preload("ShippingInfo").
		Where("buyer_id = ? AND paid_at IS NOT NULL", buyerID).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get orders for buyer %s: %w", buyerID, err)
	}
	return orders, nil
}

// GetUnpaidOlderThan retrieves still-unpaid orders created before the cutoff.
func (r *GORMOrderRepository) GetUnpaidOlderThan(cutoff time.Time) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").
		Where("paid_at IS NULL AND created_at < ?", cutoff).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get unpaid orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus updates the administrative status of an order.
func (r *GORMOrderRepository) UpdateStatus(id string, status string) error {
	res := r.db.Model(&models.Order{}).Where("id = ?", id).Update("order_status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update order status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order with ID %s not found for status update", id)
	}
	return nil
}

// SetPaidAt stamps paid_at on the order if and only if it is still unset.
// The gate makes redelivered payment events a no-op.
func (r *GORMOrderRepository) SetPaidAt(id string, paidAt time.Time) (bool, error) {
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND paid_at IS NULL", id).
		Update("paid_at", paidAt)
	if res.Error != nil {
		return false, fmt.Errorf("failed to set paid_at for order %s: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Delete removes an order. Items and shipping info go with it via the
// cascade constraint.
func (r *GORMOrderRepository) Delete(id string) error {
	res := r.db.Select("Items", "ShippingInfo").Delete(&models.Order{ID: id})
	if res.Error != nil {
		return fmt.Errorf("failed to delete order: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order with ID %s not found for deletion", id)
	}
	return nil
}
