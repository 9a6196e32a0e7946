package services_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"shopbud/internal/models"
	"shopbud/internal/payments"
	"shopbud/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrderRepository is a mock implementation of repositories.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) CreateOrderGraph(order *models.Order, items []models.OrderItem, shipping *models.ShippingInfo) error {
	args := m.Called(order, items, shipping)
	if order.ID == "" {
		order.ID = "order-1"
	}
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) GetAllPaid() ([]models.Order, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepository) GetPaidByBuyer(buyerID string) ([]models.Order, error) {
	args := m.Called(buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepository) GetUnpaidOlderThan(cutoff time.Time) ([]models.Order, error) {
	args := m.Called(cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(id string, status string) error {
	args := m.Called(id, status)
	return args.Error(0)
}

func (m *MockOrderRepository) SetPaidAt(id string, paidAt time.Time) (bool, error) {
	args := m.Called(id, paidAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

// MockGateway is a mock implementation of payments.Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateIntent(ctx context.Context, orderID string, amount float64) (*payments.PaymentIntent, error) {
	args := m.Called(ctx, orderID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.PaymentIntent), args.Error(1)
}

// MockPublisher is a mock implementation of services.EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishOrderCreated(event map[string]interface{}) error {
	args := m.Called(event)
	return args.Error(0)
}

func (m *MockPublisher) PublishStockShortfall(event map[string]interface{}) error {
	args := m.Called(event)
	return args.Error(0)
}

func validShipping() services.PlaceOrderRequest {
	return services.PlaceOrderRequest{
		FullName: "Jordan Smith",
		State:    "Karnataka",
		City:     "Bengaluru",
		Country:  "India",
		Address:  "12 MG Road",
		Pincode:  "560001",
		Phone:    "9999999999",
	}
}

func cartJSON(t *testing.T, lines ...map[string]interface{}) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(lines)
	require.NoError(t, err)
	return raw
}

func cartLine(productID string, quantity int) map[string]interface{} {
	return map[string]interface{}{
		"product":  map[string]interface{}{"id": productID},
		"quantity": quantity,
	}
}

func newOrderService(orderRepo *MockOrderRepository, productRepo *MockProductRepository, gateway *MockGateway, publisher services.EventPublisher) *services.OrderService {
	return services.NewOrderService(orderRepo, productRepo, gateway, publisher, time.Second)
}

func TestPlaceOrder_FreeShippingScenario(t *testing.T) {
	// Cart [{product A, price 30, qty 2}]: subtotal 60 >= 50, shipping 0,
	// total = round(60 + 10.8) = 71.
	mockOrders := new(MockOrderRepository)
	mockProducts := new(MockProductRepository)
	mockGateway := new(MockGateway)
	service := newOrderService(mockOrders, mockProducts, mockGateway, nil)

	mockProducts.On("GetByIDs", []string{"prod-a"}).Return([]models.Product{
		{ID: "prod-a", Name: "Product A", Price: 30.0, Stock: 10},
	}, nil).Once()
	mockOrders.On("CreateOrderGraph", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	mockGateway.On("CreateIntent", mock.Anything, mock.Anything, 71.0).
		Return(&payments.PaymentIntent{IntentID: "pi_1", ClientSecret: "pi_1_secret"}, nil).Once()

	req := validShipping()
	req.OrderedItems = cartJSON(t, cartLine("prod-a", 2))

	result, err := service.PlaceOrder(context.Background(), "buyer-1", req)
	require.NoError(t, err)
	assert.Equal(t, 71.0, result.TotalPrice)
	assert.Equal(t, "pi_1_secret", result.PaymentIntent)
	mockOrders.AssertExpectations(t)
	mockProducts.AssertExpectations(t)
	mockGateway.AssertExpectations(t)
}

func TestPlaceOrder_FlatShippingScenario(t *testing.T) {
	// Cart [{product B, price 10, qty 2}]: subtotal 20 < 50, shipping 2,
	// total = round(20 + 3.6 + 2) = 26.
	mockOrders := new(MockOrderRepository)
	mockProducts := new(MockProductRepository)
	mockGateway := new(MockGateway)
	service := newOrderService(mockOrders, mockProducts, mockGateway, nil)

	mockProducts.On("GetByIDs", []string{"prod-b"}).Return([]models.Product{
		{ID: "prod-b", Name: "Product B", Price: 10.0, Stock: 5},
	}, nil).Once()
	mockOrders.On("CreateOrderGraph", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	mockGateway.On("CreateIntent", mock.Anything, mock.Anything, 26.0).
		Return(&payments.PaymentIntent{IntentID: "pi_2", ClientSecret: "pi_2_secret"}, nil).Once()

	req := validShipping()
	req.OrderedItems = cartJSON(t, cartLine("prod-b", 2))

	result, err := service.PlaceOrder(context.Background(), "buyer-1", req)
	require.NoError(t, err)
	assert.Equal(t, 26.0, result.TotalPrice)
	mockOrders.AssertExpectations(t)
}

func TestPlaceOrder_FreezesPriceAndMetadata(t *testing.T) {
	mockOrders := new(MockOrderRepository)
	mockProducts := new(MockProductRepository)
	mockGateway := new(MockGateway)
	service := newOrderService(mockOrders, mockProducts, mockGateway, nil)

	mockProducts.On("GetByIDs", []string{"prod-a"}).Return([]models.Product{
		{ID: "prod-a", Name: "Product A", Price: 30.0, Stock: 10, ImageURL: "https://img.example/a.png"},
	}, nil).Once()

	var capturedItems []models.OrderItem
	mockOrders.On("CreateOrderGraph", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			capturedItems = args.Get(1).([]models.OrderItem)
		}).Return(nil).Once()
	mockGateway.On("CreateIntent", mock.Anything, mock.Anything, mock.Anything).
		Return(&payments.PaymentIntent{IntentID: "pi_3", ClientSecret: "sec"}, nil).Once()

	req := validShipping()
	req.OrderedItems = cartJSON(t, cartLine("prod-a", 2))

	_, err := service.PlaceOrder(context.Background(), "buyer-1", req)
	require.NoError(t, err)
	require.Len(t, capturedItems, 1)
	assert.Equal(t, "prod-a", capturedItems[0].ProductID)
	assert.Equal(t, 30.0, capturedItems[0].Price)
	assert.Equal(t, "Product A", capturedItems[0].Title)
	assert.Equal(t, "https://img.example/a.png", capturedItems[0].Image)
	assert.Equal(t, 2, capturedItems[0].Quantity)
}

func TestPlaceOrder_SerializedStringCart(t *testing.T) {
	mockOrders := new(MockOrderRepository)
	mockProducts := new(MockProductRepository)
	mockGateway := new(MockGateway)
	service := newOrderService(mockOrders, mockProducts, mockGateway, nil)

	mockProducts.On("GetByIDs", []string{"prod-a"}).Return([]models.Product{
		{ID: "prod-a", Name: "Product A", Price: 30.0, Stock: 10},
	}, nil).Once()
	mockOrders.On("CreateOrderGraph", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	mockGateway.On("CreateIntent", mock.Anything, mock.Anything, mock.Anything).
		Return(&payments.PaymentIntent{IntentID: "pi_4", ClientSecret: "sec"}, nil).Once()

	// The storefront sometimes sends the cart as a JSON-encoded string.
	inner, err := json.Marshal([]map[string]interface{}{cartLine("prod-a", 1)})
	require.NoError(t, err)
	wrapped, err := json.Marshal(string(inner))
	require.NoError(t, err)

	req := validShipping()
	req.OrderedItems = wrapped

	result, err := service.PlaceOrder(context.Background(), "buyer-1", req)
	require.NoError(t, err)
	// subtotal 30 < 50: total = round(30 + 5.4 + 2) = 37
	assert.Equal(t, 37.0, result.TotalPrice)
}

func TestPlaceOrder_MissingShippingFields(t *testing.T) {
	mockOrders := new(MockOrderRepository)
	mockProducts := new(MockProductRepository)
	service := newOrderService(mockOrders, mockProducts, new(MockGateway), nil)

	req := validShipping()
	req.City = ""
	req.OrderedItems = cartJSON(t, cartLine("prod-a", 1))

	result, err := service.PlaceOrder(context.Background(), "buyer-1", req)
	assert.Nil(t, result)
	var validationErr *services.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	mockOrders.AssertNotCalled(t, "CreateOrderGraph", mock.Anything, mock.Anything, mock.Anything)
	mockProducts.AssertNotCalled(t, "GetByIDs", mock.Anything)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	mockOrders := new(MockOrderRepository)
	mockProducts := new(MockProductRepository)
	service := newOrderService(mockOrders, mockProducts, new(MockGateway), nil)

	req := validShipping()
	req.OrderedItems = json.RawMessage(`[]`)

	result, err := service.PlaceOrder(context.Background(), "buyer-1", req)
	assert.Nil(t, result)
	var emptyCartErr *services.EmptyCartError
	assert.ErrorAs(t, err, &emptyCartErr)
	mockOrders.AssertNotCalled(t, "CreateOrderGraph", mock.Anything, mock.Anything, mock.Anything)
}

func TestPlaceOrder_ProductNotFound(t *testing.T) {
	mockOrders := new(MockOrderRepository)
	mockProducts := new(MockProductRepository)
	service := newOrderService(mockOrders, mockProducts, new(MockGateway), nil)

	// The catalog only knows prod-a; the cart references prod-x too.
	mockProducts.On("GetByIDs", []string{"prod-a", "prod-x"}).Return([]models.Product{
		{ID: "prod-a", Name: "Product A", Price: 30.0, Stock: 10},
	}, nil).Once()

	req := validShipping()
	req.OrderedItems = cartJSON(t, cartLine("prod-a", 1), cartLine("prod-x", 1))

	result, err := service.PlaceOrder(context.Background(), "buyer-1", req)
	assert.Nil(t, result)
	var notFoundErr *services.ProductNotFoundError
	require.ErrorAs(t, err, &notFoundErr)
	assert.Equal(t, "prod-x", notFoundErr.ProductID)
	assert.Contains(t, err.Error(), "prod-x")
	mockOrders.AssertNotCalled(t, "CreateOrderGraph", mock.Anything, mock.Anything, mock.Anything)
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	mockOrders := new(MockOrderRepository)
	mockProducts := new(MockProductRepository)
	service := newOrderService(mockOrders, mockProducts, new(MockGateway), nil)

	mockProducts.On("GetByIDs", []string{"prod-a"}).Return([]models.Product{
		{ID: "prod-a", Name: "Product A", Price: 30.0, Stock: 1},
	}, nil).Once()

	req := validShipping()
	req.OrderedItems = cartJSON(t, cartLine("prod-a", 3))

	result, err := service.PlaceOrder(context.Background(), "buyer-1", req)
	assert.Nil(t, result)
	var stockErr *services.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Product A", stockErr.ProductName)
	assert.Equal(t, 1, stockErr.Available)
	mockOrders.AssertNotCalled(t, "CreateOrderGraph", mock.Anything, mock.Anything, mock.Anything)
}

func TestPlaceOrder_PaymentInitiationFailure(t *testing.T) {
	mockOrders := new(MockOrderRepository)
	mockProducts := new(MockProductRepository)
	mockGateway := new(MockGateway)
	service := newOrderService(mockOrders, mockProducts, mockGateway, nil)

	mockProducts.On("GetByIDs", []string{"prod-a"}).Return([]models.Product{
		{ID: "prod-a", Name: "Product A", Price: 30.0, Stock: 10},
	}, nil).Once()
	// The order graph commits before the gateway call; its failure must not
	// hide that the order persisted.
	mockOrders.On("CreateOrderGraph", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	mockGateway.On("CreateIntent", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("gateway unavailable")).Once()

	req := validShipping()
	req.OrderedItems = cartJSON(t, cartLine("prod-a", 2))

	result, err := service.PlaceOrder(context.Background(), "buyer-1", req)
	assert.Nil(t, result)
	var paymentErr *services.PaymentInitiationError
	require.ErrorAs(t, err, &paymentErr)
	mockOrders.AssertExpectations(t)
}

func TestPlaceOrder_PublishFailureDoesNotFailRequest(t *testing.T) {
	mockOrders := new(MockOrderRepository)
	mockProducts := new(MockProductRepository)
	mockGateway := new(MockGateway)
	mockPublisher := new(MockPublisher)
	service := newOrderService(mockOrders, mockProducts, mockGateway, mockPublisher)

	mockProducts.On("GetByIDs", []string{"prod-a"}).Return([]models.Product{
		{ID: "prod-a", Name: "Product A", Price: 30.0, Stock: 10},
	}, nil).Once()
	mockOrders.On("CreateOrderGraph", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	mockGateway.On("CreateIntent", mock.Anything, mock.Anything, mock.Anything).
		Return(&payments.PaymentIntent{IntentID: "pi_5", ClientSecret: "sec"}, nil).Once()
	mockPublisher.On("PublishOrderCreated", mock.Anything).Return(fmt.Errorf("broker down")).Once()

	req := validShipping()
	req.OrderedItems = cartJSON(t, cartLine("prod-a", 2))

	result, err := service.PlaceOrder(context.Background(), "buyer-1", req)
	require.NoError(t, err)
	assert.NotNil(t, result)
	mockPublisher.AssertExpectations(t)
}

func TestUpdateOrderStatus_InvalidStatus(t *testing.T) {
	mockOrders := new(MockOrderRepository)
	service := newOrderService(mockOrders, new(MockProductRepository), new(MockGateway), nil)

	err := service.UpdateOrderStatus("order-1", "teleported")
	var validationErr *services.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	mockOrders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)

	mockOrders.On("UpdateStatus", "order-1", models.OrderStatusShipped).Return(nil).Once()
	assert.NoError(t, service.UpdateOrderStatus("order-1", models.OrderStatusShipped))
	mockOrders.AssertExpectations(t)
}
