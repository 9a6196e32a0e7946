package repositories

import (
	"fmt"
	"sync"
	"time"

	"shopbud/internal/models"

	"github.com/google/uuid"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders map[string]models.Order
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// CreateOrderGraph stores the order with its items and shipping info.
// The map write is the commit point, so the graph appears all at once.
func (r *MockOrderRepository) CreateOrderGraph(order *models.Order, items []models.OrderItem, shipping *models.ShippingInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if order.OrderStatus == "" {
		order.OrderStatus = models.OrderStatusProcessing
	}
	order.CreatedAt = time.Now()

	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.New().String()
		}
		items[i].OrderID = order.ID
	}
	if shipping.ID == "" {
		shipping.ID = uuid.New().String()
	}
	shipping.OrderID = order.ID

	order.Items = items
	order.ShippingInfo = shipping
	r.orders[order.ID] = *order
	return nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order with ID %s not found", id)
	}
	return &order, nil
}

// GetAllPaid returns all paid orders.
func (r *MockOrderRepository) GetAllPaid() ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if order.PaidAt != nil {
			orderList = append(orderList, order)
		}
	}
	return orderList, nil
}

// GetPaidByBuyer returns the paid orders belonging to one buyer.
func (r *MockOrderRepository) GetPaidByBuyer(buyerID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orderList []models.Order
	for _, order := range r.orders {
		if order.BuyerID == buyerID && order.PaidAt != nil {
			orderList = append(orderList, order)
		}
	}
	return orderList, nil
}

// GetUnpaidOlderThan returns unpaid orders created before the cutoff.
func (r *MockOrderRepository) GetUnpaidOlderThan(cutoff time.Time) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orderList []models.Order
	for _, order := range r.orders {
		if order.PaidAt == nil && order.CreatedAt.Before(cutoff) {
			orderList = append(orderList, order)
		}
	}
	return orderList, nil
}

// UpdateStatus updates the administrative status of an order.
func (r *MockOrderRepository) UpdateStatus(id string, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order with ID %s not found for status update", id)
	}
	order.OrderStatus = status
	r.orders[id] = order
	return nil
}

// SetPaidAt stamps paid_at on the order unless it is already set.
func (r *MockOrderRepository) SetPaidAt(id string, paidAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return false, fmt.Errorf("order with ID %s not found", id)
	}
	if order.PaidAt != nil {
		return false, nil
	}
	order.PaidAt = &paidAt
	r.orders[id] = order
	return true, nil
}

// Delete removes an order and everything it owns.
func (r *MockOrderRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return fmt.Errorf("order with ID %s not found for deletion", id)
	}
	delete(r.orders, id)
	return nil
}
