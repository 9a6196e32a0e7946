package handlers

import (
	"errors"
	"log"
	"time"

	"shopbud/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service        *services.OrderService
	unpaidSweepAge time.Duration
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, unpaidSweepAge time.Duration) *OrderHandler {
	if unpaidSweepAge <= 0 {
		unpaidSweepAge = 24 * time.Hour
	}
	return &OrderHandler{
		service:        service,
		unpaidSweepAge: unpaidSweepAge,
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/order")
	orderRoutes.Post("/new", h.HandlePlaceOrder)
	orderRoutes.Get("/me/orders", h.HandleGetMyOrders)
	orderRoutes.Get("/admin/all", h.HandleGetAllOrders)
	orderRoutes.Get("/admin/unpaid", h.HandleGetUnpaidOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Patch("/:id/status", h.HandleUpdateOrderStatus)
	orderRoutes.Delete("/:id", h.HandleDeleteOrder)
}

// placementStatus maps a placement failure to its HTTP status. The status
// code is the authoritative machine-readable signal; the message is for
// humans.
func placementStatus(err error) int {
	var (
		validationErr *services.ValidationError
		emptyCartErr  *services.EmptyCartError
		notFoundErr   *services.ProductNotFoundError
		stockErr      *services.InsufficientStockError
		paymentErr    *services.PaymentInitiationError
	)
	switch {
	case errors.As(err, &validationErr), errors.As(err, &emptyCartErr), errors.As(err, &stockErr):
		return fiber.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return fiber.StatusNotFound
	case errors.As(err, &paymentErr):
		return fiber.StatusInternalServerError
	}
	return fiber.StatusInternalServerError
}

// HandlePlaceOrder validates and persists a new order, then returns the
// payment handle the client needs to complete payment with the gateway.
func (h *OrderHandler) HandlePlaceOrder(c *fiber.Ctx) error {
	buyerID, ok := c.Locals("user_id").(string)
	if !ok || buyerID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Authentication required.",
		})
	}

	var req services.PlaceOrderRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing order request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body.",
		})
	}

	result, err := h.service.PlaceOrder(c.Context(), buyerID, req)
	if err != nil {
		log.Printf("Error placing order for buyer %s: %v", buyerID, err)
		return c.Status(placementStatus(err)).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":       true,
		"message":       "Order placed successfully. Please proceed to payment.",
		"paymentIntent": result.PaymentIntent,
		"total_price":   result.TotalPrice,
	})
}

// HandleGetOrderByID retrieves a single order with items and shipping info.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.service.GetOrderByID(orderID)
	if err != nil {
		log.Printf("Error getting order by ID %s: %v", orderID, err)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Order not found.",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Order fetched.",
		"orders":  order,
	})
}

// HandleGetMyOrders retrieves the authenticated buyer's paid orders.
func (h *OrderHandler) HandleGetMyOrders(c *fiber.Ctx) error {
	buyerID, ok := c.Locals("user_id").(string)
	if !ok || buyerID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Authentication required.",
		})
	}

	orders, err := h.service.GetMyOrders(buyerID)
	if err != nil {
		log.Printf("Error getting orders for buyer %s: %v", buyerID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Could not retrieve orders.",
		})
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"message":  "All your orders are fetched.",
		"myOrders": orders,
	})
}

// HandleGetAllOrders retrieves all paid orders for the dashboard.
func (h *OrderHandler) HandleGetAllOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetAllOrders()
	if err != nil {
		log.Printf("Error getting all orders: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Could not retrieve orders.",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "All orders fetched.",
		"orders":  orders,
	})
}

// HandleGetUnpaidOrders lists stale unpaid orders for operator follow-up.
// These are typically orders whose payment-intent creation failed after the
// order graph committed, or whose buyer abandoned payment.
func (h *OrderHandler) HandleGetUnpaidOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetUnpaidOrders(h.unpaidSweepAge)
	if err != nil {
		log.Printf("Error getting unpaid orders: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Could not retrieve unpaid orders.",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Unpaid orders fetched.",
		"orders":  orders,
	})
}

// HandleUpdateOrderStatus updates the administrative status of an order.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	orderID := c.Params("id")
	var updateData struct {
		Status string `json:"status"`
	}

	if err := c.BodyParser(&updateData); err != nil {
		log.Printf("Error parsing request body for status update: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body for status update.",
		})
	}
	if updateData.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Provide a valid status for order.",
		})
	}

	if err := h.service.UpdateOrderStatus(orderID, updateData.Status); err != nil {
		log.Printf("Error updating order status for order %s: %v", orderID, err)
		var validationErr *services.ValidationError
		status := fiber.StatusNotFound
		if errors.As(err, &validationErr) {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Order status updated.",
	})
}

// HandleDeleteOrder deletes an order and, via cascade, its items and
// shipping info.
func (h *OrderHandler) HandleDeleteOrder(c *fiber.Ctx) error {
	orderID := c.Params("id")
	if err := h.service.DeleteOrder(orderID); err != nil {
		log.Printf("Error deleting order %s: %v", orderID, err)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Invalid Order ID.",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Order deleted.",
	})
}
