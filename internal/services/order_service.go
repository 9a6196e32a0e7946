package services

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"time"

	"shopbud/internal/models"
	"shopbud/internal/payments"
	"shopbud/internal/repositories"
)

// Pricing policy: 18% tax on the subtotal, flat shipping fee waived once the
// subtotal reaches the free-shipping threshold, final total rounded to the
// nearest whole currency unit.
const (
	taxRate               = 0.18
	flatShippingFee       = 2.0
	freeShippingThreshold = 50.0
)

// EventPublisher publishes order lifecycle and reconciliation messages.
// Satisfied by *rabbitmq.Client; nil-able for setups without a broker.
type EventPublisher interface {
	PublishOrderCreated(event map[string]interface{}) error
	PublishStockShortfall(event map[string]interface{}) error
}

// OrderedItem is one cart line as submitted by the storefront. Only the
// product ID and quantity matter for validation; the optional images are
// used for the denormalized item snapshot.
type OrderedItem struct {
	Product struct {
		ID     string `json:"id"`
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
	} `json:"product"`
	Quantity int `json:"quantity"`
}

// PlaceOrderRequest carries the order placement wire contract. OrderedItems
// stays raw because clients send either a JSON array or a JSON-encoded
// string of one; it is decoded exactly once, in PlaceOrder.
type PlaceOrderRequest struct {
	FullName     string          `json:"full_name"`
	State        string          `json:"state"`
	City         string          `json:"city"`
	Country      string          `json:"country"`
	Address      string          `json:"address"`
	Pincode      string          `json:"pincode"`
	Phone        string          `json:"phone"`
	OrderedItems json.RawMessage `json:"orderedItems"`
}

// PlaceOrderResult is returned to the storefront so the client can complete
// payment directly with the gateway.
type PlaceOrderResult struct {
	OrderID       string
	TotalPrice    float64
	PaymentIntent string // client secret
}

// OrderService handles order placement and order reads.
type OrderService struct {
	orderRepo      repositories.OrderRepository
	productRepo    repositories.ProductRepository
	gateway        payments.Gateway
	mqClient       EventPublisher
	paymentTimeout time.Duration
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, gateway payments.Gateway, mqClient EventPublisher, paymentTimeout time.Duration) *OrderService {
	if paymentTimeout <= 0 {
		paymentTimeout = 10 * time.Second
	}
	return &OrderService{
		orderRepo:      orderRepo,
		productRepo:    productRepo,
		gateway:        gateway,
		mqClient:       mqClient,
		paymentTimeout: paymentTimeout,
	}
}

// decodeOrderedItems accepts either a JSON array of items or a JSON string
// wrapping one, and decodes it exactly once.
func decodeOrderedItems(raw json.RawMessage) ([]OrderedItem, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var items []OrderedItem
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, nil
	}
	var serialized string
	if err := json.Unmarshal(raw, &serialized); err != nil {
		return nil, &ValidationError{Message: "orderedItems must be a list or a serialized list"}
	}
	if err := json.Unmarshal([]byte(serialized), &items); err != nil {
		return nil, &ValidationError{Message: "orderedItems must be a list or a serialized list"}
	}
	return items, nil
}

// PlaceOrder validates the cart against the catalog, prices it, persists the
// order graph atomically and initiates payment with the gateway. No stock is
// decremented here; that happens at payment confirmation.
func (s *OrderService) PlaceOrder(ctx context.Context, buyerID string, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	// 1. Shipping fields must all be present.
	if req.FullName == "" || req.State == "" || req.City == "" || req.Country == "" ||
		req.Address == "" || req.Pincode == "" || req.Phone == "" {
		return nil, &ValidationError{Message: "please provide complete shipping details"}
	}

	// 2. The cart must contain at least one item.
	items, err := decodeOrderedItems(req.OrderedItems)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, &EmptyCartError{}
	}

	// 3/4. Every referenced product must exist with enough stock. Products
	// are fetched in one batch; stock is a point-in-time read, not a lock.
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.Product.ID)
	}
	products, err := s.productRepo.GetByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var subtotal float64
	orderItems := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		product, ok := byID[item.Product.ID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: item.Product.ID}
		}
		if item.Quantity > product.Stock {
			return nil, &InsufficientStockError{ProductName: product.Name, Available: product.Stock}
		}

		image := product.ImageURL
		if len(item.Product.Images) > 0 && item.Product.Images[0].URL != "" {
			image = item.Product.Images[0].URL
		}

		// Price and metadata are frozen here; historical orders must not
		// track later catalog changes.
		orderItems = append(orderItems, models.OrderItem{
			ProductID: product.ID,
			Quantity:  item.Quantity,
			Price:     product.Price,
			Image:     image,
			Title:     product.Name,
		})
		subtotal += product.Price * float64(item.Quantity)
	}

	taxPrice := subtotal * taxRate
	shippingPrice := flatShippingFee
	if subtotal >= freeShippingThreshold {
		shippingPrice = 0
	}
	totalPrice := math.Round(subtotal + taxPrice + shippingPrice)

	order := &models.Order{
		BuyerID:       buyerID,
		TotalPrice:    totalPrice,
		TaxPrice:      taxPrice,
		ShippingPrice: shippingPrice,
		OrderStatus:   models.OrderStatusProcessing,
	}
	shipping := &models.ShippingInfo{
		FullName: req.FullName,
		State:    req.State,
		City:     req.City,
		Country:  req.Country,
		Address:  req.Address,
		Pincode:  req.Pincode,
		Phone:    req.Phone,
	}

	// All validation passed; commit the order graph in one transaction.
	if err := s.orderRepo.CreateOrderGraph(order, orderItems, shipping); err != nil {
		return nil, err
	}

	// Initiate payment. The order graph is already committed; a failure here
	// leaves an unpaid order behind (surfaced via the unpaid-orders sweep)
	// rather than rolling anything back.
	intentCtx, cancel := context.WithTimeout(ctx, s.paymentTimeout)
	defer cancel()
	intent, err := s.gateway.CreateIntent(intentCtx, order.ID, totalPrice)
	if err != nil {
		return nil, &PaymentInitiationError{OrderID: order.ID, Err: err}
	}

	if s.mqClient != nil {
		event := map[string]interface{}{
			"orderID": order.ID,
			"buyerID": order.BuyerID,
			"status":  order.OrderStatus,
			"total":   order.TotalPrice,
		}
		if err := s.mqClient.PublishOrderCreated(event); err != nil {
			log.Printf("Warning: Failed to publish order created event for order %s: %v", order.ID, err)
		}
	}

	return &PlaceOrderResult{
		OrderID:       order.ID,
		TotalPrice:    totalPrice,
		PaymentIntent: intent.ClientSecret,
	}, nil
}

// GetOrderByID retrieves a single order with items and shipping info.
func (s *OrderService) GetOrderByID(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// GetMyOrders retrieves the buyer's paid orders.
func (s *OrderService) GetMyOrders(buyerID string) ([]models.Order, error) {
	return s.orderRepo.GetPaidByBuyer(buyerID)
}

// GetAllOrders retrieves every paid order.
func (s *OrderService) GetAllOrders() ([]models.Order, error) {
	return s.orderRepo.GetAllPaid()
}

// GetUnpaidOrders lists orders that never completed payment and are older
// than the given age. Operator sweep for intent-creation failures.
func (s *OrderService) GetUnpaidOrders(olderThan time.Duration) ([]models.Order, error) {
	return s.orderRepo.GetUnpaidOlderThan(time.Now().Add(-olderThan))
}

// UpdateOrderStatus updates the administrative status of an existing order.
func (s *OrderService) UpdateOrderStatus(id string, status string) error {
	if !models.IsValidOrderStatus(status) {
		return &ValidationError{Message: "invalid order status: " + status}
	}
	return s.orderRepo.UpdateStatus(id, status)
}

// DeleteOrder removes an order together with its items and shipping info.
func (s *OrderService) DeleteOrder(id string) error {
	return s.orderRepo.Delete(id)
}
