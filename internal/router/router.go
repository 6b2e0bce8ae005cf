package router

import (
	"log"

	"firebase.google.com/go/v4/messaging"
	"github.com/A60874022/handmade-market/backend/internal/handlers"
	"github.com/A60874022/handmade-market/backend/internal/middleware"
	"github.com/A60874022/handmade-market/backend/internal/models"
	"github.com/A60874022/handmade-market/backend/internal/repositories"
	"github.com/A60874022/handmade-market/backend/internal/services"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies.
// messagingClient may be nil; push delivery is then disabled.
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, mgClient *mongo.Client, mongoDatabase string, messagingClient *messaging.Client) {
	// AutoMigrate PostgreSQL models
	err := pgdb.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.ProductImage{},
		&models.Favorite{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Dialogue{},
		&models.Notification{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	// The coalescing index is partial, which AutoMigrate cannot express.
	if err := pgdb.Exec(repositories.UnreadMessageIndex).Error; err != nil {
		log.Fatalf("Failed to create unread message index: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	categoryRepo := repositories.NewPostgresCategoryRepository(pgdb)
	productRepo := repositories.NewPostgresProductRepository(pgdb)
	favoriteRepo := repositories.NewPostgresFavoriteRepository(pgdb)
	cartRepo := repositories.NewPostgresCartRepository(pgdb)
	orderRepo := repositories.NewPostgresOrderRepository(pgdb)
	dialogueRepo := repositories.NewPostgresDialogueRepository(pgdb)
	messageRepo := repositories.NewMongoMessageRepository(mgClient.Database(mongoDatabase))
	notificationRepo := repositories.NewPostgresNotificationRepository(pgdb)

	// --- Services ---
	var pusher services.Pusher
	if messagingClient != nil {
		pusher = services.NewFCMPusher(messagingClient)
	}
	notificationService := services.NewNotificationService(notificationRepo, userRepo, pusher)
	mailService := services.NewMailService()

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo)
	authHandler.RegisterAuthRoutes(authGroup)
	log.Println("Auth routes configured.")

	// Public catalog routes
	public := e.Group("/api/v1")
	productHandler := handlers.NewProductHandler(productRepo, categoryRepo, userRepo, mailService)
	productHandler.RegisterPublicRoutes(public)
	log.Println("Public catalog routes configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware())
	log.Println("JWT authentication middleware applied to /api/v1 group.")

	// User profile routes
	userHandler := handlers.NewUserHandler(userRepo)
	userHandler.RegisterProfileRoutes(api)
	log.Println("User profile routes configured.")

	// Product management routes
	productHandler.RegisterProductRoutes(api)
	log.Println("Product routes configured.")

	// Favorite routes
	favoriteHandler := handlers.NewFavoriteHandler(favoriteRepo, productRepo, userRepo, notificationService)
	favoriteHandler.RegisterFavoriteRoutes(api)
	log.Println("Favorite routes configured.")

	// Cart routes
	cartHandler := handlers.NewCartHandler(cartRepo, productRepo)
	cartHandler.RegisterCartRoutes(api)
	log.Println("Cart routes configured.")

	// Order routes
	orderHandler := handlers.NewOrderHandler(orderRepo, cartRepo, userRepo, notificationService)
	orderHandler.RegisterOrderRoutes(api)
	log.Println("Order routes configured.")

	// Chat routes
	chatHandler := handlers.NewChatHandler(dialogueRepo, messageRepo, productRepo, userRepo, notificationService)
	chatHandler.RegisterChatRoutes(api)
	log.Println("Chat routes configured.")

	// Notification routes
	notificationHandler := handlers.NewNotificationHandler(notificationRepo, notificationService)
	notificationHandler.RegisterNotificationRoutes(api)
	log.Println("Notification routes configured.")

	log.Println("All routes configured.")
}
