package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"shopbud/internal/config"
	"shopbud/internal/handlers"
	"shopbud/internal/middleware"
	"shopbud/internal/models"
	"shopbud/internal/payments"
	"shopbud/internal/repositories"
	"shopbud/internal/services"
	"shopbud/pkg/rabbitmq"
)

// NewApp wires repositories, services and handlers into a Fiber app. The
// database handle, payment gateway and event publisher are injected so
// tests can swap them out.
func NewApp(cfg *config.Config, db *gorm.DB, gateway payments.Gateway, mqClient services.EventPublisher) (*fiber.App, *services.AuthService, error) {
	// --- Repositories ---
	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	paymentRepo := repositories.NewGORMPaymentRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	// --- Services ---
	productService := services.NewProductService(productRepo)
	orderService := services.NewOrderService(orderRepo, productRepo, gateway, mqClient, cfg.PaymentTimeout)
	reconcileService := services.NewReconcileService(paymentRepo, orderRepo, productRepo, mqClient)
	authService := services.NewAuthService(userRepo, cfg.JWTSecret)

	// --- Handlers ---
	productHandler := handlers.NewProductHandler(productService)
	orderHandler := handlers.NewOrderHandler(orderService, cfg.UnpaidSweepAge)
	authHandler := handlers.NewAuthHandler(authService)
	webhookHandler := handlers.NewWebhookHandler(payments.NewWebhookVerifier(cfg.StripeWebhookSecret), reconcileService)

	app := fiber.New()
	app.Use(logger.New()) // Request logger

	apiV1 := app.Group("/api/v1")

	// Public routes: auth issues tokens, the webhook authenticates itself
	// via the gateway signature.
	authHandler.RegisterRoutes(apiV1)
	webhookHandler.RegisterRoutes(apiV1)

	// Protected routes (require JWT authentication)
	protectedRoutes := apiV1.Group("", middleware.AuthRequired(authService))
	productHandler.RegisterRoutes(protectedRoutes)
	orderHandler.RegisterRoutes(protectedRoutes)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return app, authService, nil
}

func main() {
	// --- Configuration ---
	// Missing payment-gateway secrets are a fatal startup error, not a
	// per-request one.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// --- Database (pooled connection handle, passed into repositories) ---
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	err = db.AutoMigrate(
		&models.Product{},
		&models.User{},
		&models.Order{},
		&models.OrderItem{},
		&models.ShippingInfo{},
		&models.Payment{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// --- RabbitMQ Client ---
	mqConfig := rabbitmq.Config{URL: cfg.RabbitMQURL}
	mqClient, err := rabbitmq.NewClient(mqConfig)
	if err != nil {
		log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
	}
	defer mqClient.Close() // Ensure the connection is closed on exit

	// --- Payment Gateway ---
	paymentRepo := repositories.NewGORMPaymentRepository(db)
	gateway := payments.NewStripeGateway(cfg.StripeSecretKey, paymentRepo)

	app, _, err := NewApp(cfg, db, gateway, mqClient)
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}

	// --- Order events consumer ---
	// Downstream workflows (notifications, analytics) hang off this queue.
	go func() {
		err := mqClient.Consume(rabbitmq.OrderEventsQueue, func(msg amqp.Delivery) error {
			log.Printf("Received Order Event (Tag: %d): %s", msg.DeliveryTag, string(msg.Body))
			return nil // Return nil to acknowledge
		})
		if err != nil {
			log.Printf("Failed to start order events consumer: %v", err)
		}
	}()

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}
