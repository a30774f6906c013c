package main

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/zeloxinc/zel-shop-server/internal/activation"
	"github.com/zeloxinc/zel-shop-server/internal/handler"
	"github.com/zeloxinc/zel-shop-server/internal/middleware"
	"github.com/zeloxinc/zel-shop-server/internal/model"
	"github.com/zeloxinc/zel-shop-server/internal/mpesa"
	"github.com/zeloxinc/zel-shop-server/internal/store"
	"github.com/zeloxinc/zel-shop-server/pkg/config"
	"github.com/zeloxinc/zel-shop-server/pkg/database"
	"github.com/zeloxinc/zel-shop-server/pkg/logger"
	"github.com/zeloxinc/zel-shop-server/prometheus"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load("zel-shop-server")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(cfg); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting zel-shop server...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	if err := database.Migrate(db,
		&model.Shop{},
		&model.Shopkeeper{},
		&model.PendingPayment{},
		&model.ProductType{},
		&model.ProductVariant{},
		&model.Sale{},
	); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database migrated")

	// Wire stores, gateway and the activation state machine
	keepers := store.NewKeeperStore(db)
	ledger := store.NewPaymentLedger(db)
	gateway := mpesa.NewClient(&cfg.Mpesa, log)
	activationSvc := activation.NewService(keepers, ledger, gateway, &cfg.Billing, cfg.Mpesa.CallbackBaseURL, log)

	shopkeepers := handler.NewShopkeeperHandler(keepers)
	shops := handler.NewShopHandler(keepers)
	payments := handler.NewPaymentHandler(activationSvc)
	products := handler.NewProductHandler(db)
	sales := handler.NewSalesHandler(db)

	// Initialize Echo framework
	e := echo.New()
	e.Validator = handler.NewRequestValidator()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.Metrics)

	api := e.Group("/api/v1")

	// Account lifecycle - public until the shop API key exists
	api.POST("/shopkeepers/signup", shopkeepers.Signup)
	api.POST("/shopkeepers/verify", shopkeepers.Verify)
	api.POST("/shopkeepers/login", shopkeepers.Login)

	// Payment - callback is provider-trusted, no app-level auth
	api.POST("/payment/initiate-activation", payments.InitiateActivation)
	api.POST("/payment/callback/activation/:order_id", payments.ActivationCallback)

	// Protected routes - resolved through the API key gate
	protected := api.Group("", middleware.APIKeyAuth(keepers))

	protected.GET("/shopkeepers/single", shopkeepers.GetProfile)
	protected.GET("/shopkeepers", shopkeepers.ListShopkeepers)

	protected.POST("/shops", shops.CreateShop)
	protected.GET("/shops", shops.GetShop)
	protected.GET("/shops/:shop_id", shops.GetShopByID)
	protected.PUT("/shops", shops.UpdateShop)
	protected.DELETE("/shops", shops.DeleteShop)

	protected.GET("/products", products.ListProducts)
	protected.POST("/products", products.CreateProductType)
	protected.PUT("/products/:type_id", products.UpdateProductType)
	protected.POST("/products/:type_id/variants", products.AddVariant)
	protected.PUT("/products/variants/:variant_id", products.UpdateVariant)

	protected.POST("/sales/upload", sales.UploadSales)
	protected.GET("/sales", sales.ListSales)
	protected.GET("/sales/variant/:variant_id", sales.SalesByVariant)
	protected.GET("/sales/summary/daily", sales.DailySummary)

	// Start server
	log.Info("Starting server", zap.String("port", cfg.Server.Port))
	if err := e.Start(":" + cfg.Server.Port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
