package main

import (
	"context"
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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Pricing Engine API
// @version         1.0
// @description     Tax and shipping pricing engine for e-commerce checkout, with rule-driven adjustments and exemption management.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		logger.Info("No configs/.env file found or error loading it")
	}

	logger.Initialize(logger.Config{
		Level:  os.Getenv("LOG_LEVEL"),
		Format: os.Getenv("LOG_FORMAT"),
	})

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
		logger.Fatal("Database connection failed", err)
	}
	logger.Info("Connected to PostgreSQL successfully")

	// Permission middleware needs DB access for role -> permission lookups
	middleware.InitPermissionMiddleware(db)

	// Set up WebSocket Hub; services publish config-change events through it
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	productRepo := repository.NewProductRepository(db)
	taxCategoryRepo := repository.NewTaxCategoryRepository(db)
	taxRateRepo := repository.NewTaxRateRepository(db)
	taxRuleRepo := repository.NewTaxRuleRepository(db)
	exemptionRepo := repository.NewTaxExemptionRepository(db)
	zoneRepo := repository.NewShippingZoneRepository(db)
	methodRepo := repository.NewShippingMethodRepository(db)
	shippingRateRepo := repository.NewShippingRateRepository(db)

	userService := service.NewUserService(userRepo)
	auditService := service.NewAuditService(db)
	roleService := service.NewRoleService(db)
	customerService := service.NewCustomerService(customerRepo, auditRepo, txManager)
	productService := service.NewProductService(productRepo, taxCategoryRepo, auditRepo, txManager)
	taxRateService := service.NewTaxRateService(taxRateRepo, taxCategoryRepo, auditRepo, txManager, wsHub)
	taxRuleService := service.NewTaxRuleService(taxRuleRepo, auditRepo, txManager, wsHub)
	exemptionService := service.NewTaxExemptionService(exemptionRepo, customerRepo, auditRepo, txManager, wsHub)
	shippingService := service.NewShippingService(zoneRepo, methodRepo, shippingRateRepo, auditRepo, txManager, wsHub)
	taxCalcService := service.NewTaxCalculationService(taxRateRepo, taxRuleRepo, exemptionRepo, productRepo)
	shippingCalcService := service.NewShippingCalculationService(zoneRepo, methodRepo, shippingRateRepo, productRepo)

	// Seed default roles and permissions on startup
	if err := roleService.SeedDefaultRolesAndPermissions(context.Background()); err != nil {
		logger.Warn("Failed to seed default roles", map[string]interface{}{"error": err.Error()})
	}

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	auditHandler := handler.NewAuditHandler(auditService)
	roleHandler := handler.NewRoleHandler(roleService)
	customerHandler := handler.NewCustomerHandler(customerService)
	productHandler := handler.NewProductHandler(productService)
	taxHandler := handler.NewTaxHandler(taxRateService, taxCalcService)
	taxRuleHandler := handler.NewTaxRuleHandler(taxRuleService)
	exemptionHandler := handler.NewTaxExemptionHandler(exemptionService)
	shippingHandler := handler.NewShippingHandler(shippingService, shippingCalcService)

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
	auditHandler.RegisterRoutes(router.Group(""))
	roleHandler.RegisterRoutes(router.Group(""))
	customerHandler.RegisterRoutes(router.Group(""))
	productHandler.RegisterRoutes(router.Group(""))
	taxHandler.RegisterRoutes(router.Group(""))
	taxRuleHandler.RegisterRoutes(router.Group(""))
	exemptionHandler.RegisterRoutes(router.Group(""))
	shippingHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info("Server listening", map[string]interface{}{"port": port})
	if err := router.Run(":" + port); err != nil {
		logger.Fatal("Server failed", err)
	}
}
