package main

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"syspres_app/internal/handlers"
	"syspres_app/internal/middleware"
	"syspres_app/internal/models"
	"syspres_app/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Database
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		logger.Fatal("DATABASE_URL not set")
	}
	db, err := services.InitDB(databaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := services.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize Redis (sessions, loan locks, dashboard cache)
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}
	cache, err := services.NewRedisCache(redisURL)
	if err != nil {
		logger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer cache.Close()

	rounder := models.DefaultRounder
	if raw := os.Getenv("ROUNDING_PLACES"); raw != "" {
		places, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || places < 0 || places > 6 {
			logger.Fatal("ROUNDING_PLACES must be an integer between 0 and 6", zap.String("value", raw))
		}
		rounder = models.Rounder{Places: int32(places)}
	}

	clock := services.SystemClock()
	audit := services.NewActivityLogger(db, logger)
	authService := services.NewAuthService(db, cache, logger)
	loanService := services.NewLoanService(db, cache, audit, clock, rounder, logger)
	paymentService := services.NewPaymentService(db, cache, audit, clock, rounder, logger)
	reportService := services.NewReportService(db, cache, audit, clock, rounder)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.CustomErrorHandler

	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	clientHandler := handlers.NewClientHandler(db, audit)
	loanHandler := handlers.NewLoanHandler(loanService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	reportHandler := handlers.NewReportHandler(reportService)
	settingsHandler := handlers.NewSettingsHandler(db, audit)

	// Public routes
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout)

	// Protected routes
	api := e.Group("/api")
	api.Use(middleware.RequireAuth(authService))
	api.GET("/me", authHandler.Me)

	dashboard := api.Group("", middleware.RequirePermission(models.PermissionDashboard))
	dashboard.GET("/dashboard", reportHandler.Dashboard)

	clients := api.Group("/clients", middleware.RequirePermission(models.PermissionClients))
	clients.GET("", clientHandler.ListClients)
	clients.POST("", clientHandler.CreateClient)
	clients.GET("/:id", clientHandler.GetClient)
	clients.PUT("/:id", clientHandler.UpdateClient)
	clients.DELETE("/:id", clientHandler.DeleteClient)

	loans := api.Group("/loans", middleware.RequirePermission(models.PermissionLoans))
	loans.GET("", loanHandler.ListLoans)
	loans.POST("", loanHandler.CreateLoan)
	loans.GET("/:id", loanHandler.GetLoan)
	loans.PUT("/:id", loanHandler.EditLoan)
	loans.DELETE("/:id", loanHandler.DeleteLoan)
	loans.GET("/:id/pending-interest", loanHandler.PendingInterest)
	loans.POST("/:id/restructure", loanHandler.Restructure)
	loans.POST("/:id/installments/:installment_id/settle", loanHandler.SettleInstallment)

	payments := api.Group("/payments", middleware.RequirePermission(models.PermissionPayments))
	payments.GET("", paymentHandler.ListPayments)
	payments.POST("", paymentHandler.RegisterPayment)
	payments.GET("/:id/receipt", paymentHandler.GetReceipt)

	reports := api.Group("/reports", middleware.RequirePermission(models.PermissionReports))
	reports.GET("/client-summary", reportHandler.ClientSummary)

	settings := api.Group("/settings", middleware.RequirePermission(models.PermissionSettings))
	settings.GET("", settingsHandler.GetSettings)
	settings.PUT("", settingsHandler.UpdateSettings)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info("Server starting", zap.String("port", port))
	e.Logger.Fatal(e.Start(":" + port))
}
