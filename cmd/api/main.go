package main

import (
	"context"
	"encoding/json"
	"os"

	_ "backend/api/swagger" // swagger docs
	"backend/internal/database"
	"backend/internal/handler"
	"backend/internal/middleware"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/websocket"
	"backend/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// hubNotifier bridges posting events to the websocket hub
type hubNotifier struct {
	hub *websocket.Hub
	log zerolog.Logger
}

func (n *hubNotifier) NotifyStockAlert(event service.StockAlertEvent) {
	n.publish(event)
}

func (n *hubNotifier) NotifySalePosted(event service.SalePostedEvent) {
	n.publish(event)
}

func (n *hubNotifier) publish(event interface{}) {
	payload, err := json.Marshal(event)
	if err != nil {
		n.log.Error().Err(err).Msg("failed to marshal websocket event")
		return
	}
	n.hub.Broadcast <- payload
}

// @title           Sale Issuance & Inventory Ledger API
// @version         1.0
// @description     Multi-tenant retail backend: fiscal invoice posting, append-only stock ledger, purchases and withholding calculation.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	log := logger.New("ledger-api")

	if err := godotenv.Load("configs/.env"); err != nil {
		log.Info().Msg("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	log.Info().Str("host", dbHost).Str("database", dbName).Msg("Connected to PostgreSQL")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()
	notifier := &hubNotifier{hub: wsHub, log: log}

	// Permission middleware needs DB access for role lookups
	middleware.InitPermissionMiddleware(db)

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	productRepo := repository.NewProductRepository(db)
	clientRepo := repository.NewClientRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	userService := service.NewUserService(userRepo)
	roleService := service.NewRoleService(db)
	auditService := service.NewAuditService(auditRepo)
	companyService := service.NewCompanyService(companyRepo, auditRepo, txManager)
	productService := service.NewProductService(productRepo, auditRepo, txManager)
	clientService := service.NewClientService(clientRepo, auditRepo, txManager)
	supplierService := service.NewSupplierService(supplierRepo, auditRepo, txManager)
	ledgerService := service.NewLedgerService(productRepo, movementRepo, auditRepo, txManager, notifier)
	saleService := service.NewSaleService(saleRepo, productRepo, clientRepo, companyRepo, ledgerService, auditRepo, txManager, notifier)
	purchaseService := service.NewPurchaseService(purchaseRepo, productRepo, supplierRepo, ledgerService, auditRepo, txManager)

	// Seed default roles and permissions
	if err := roleService.SeedDefaultRolesAndPermissions(context.Background()); err != nil {
		log.Warn().Err(err).Msg("Failed to seed roles and permissions")
	}

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleService)
	auditHandler := handler.NewAuditHandler(auditService)
	companyHandler := handler.NewCompanyHandler(companyService)
	inventoryHandler := handler.NewInventoryHandler(productService, ledgerService)
	clientHandler := handler.NewClientHandler(clientService)
	supplierHandler := handler.NewSupplierHandler(supplierService)
	saleHandler := handler.NewSaleHandler(saleService)
	purchaseHandler := handler.NewPurchaseHandler(purchaseService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	roleHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	companyHandler.RegisterRoutes(router.Group(""))
	inventoryHandler.RegisterRoutes(router.Group(""))
	clientHandler.RegisterRoutes(router.Group(""))
	supplierHandler.RegisterRoutes(router.Group(""))
	saleHandler.RegisterRoutes(router.Group(""))
	purchaseHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Info().Str("port", port).Msg("Server listening")
	if err := router.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
