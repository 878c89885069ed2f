package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"receiptwise/internal/api"
	"receiptwise/internal/api/handlers"
	"receiptwise/internal/repository"
	"receiptwise/internal/service"
	"receiptwise/internal/storage"
	"receiptwise/pkg/auth"
	"receiptwise/pkg/config"
	"receiptwise/pkg/logger"
	"receiptwise/pkg/postgres"

	"go.uber.org/zap"
)

// @title ReceiptWise API
// @version 1.0
// @description Personal finance tracker with receipt image ingestion

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting ReceiptWise service")

	// Initialize database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := postgres.RunMigrations(&cfg.Database); err != nil {
		appLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db, appLogger)
	categoryRepo := repository.NewCategoryRepository(db, appLogger)
	txRepo := repository.NewTransactionRepository(db, appLogger)

	// Initialize image storage
	imageStore, err := storage.NewImageStore(cfg.Upload.Dir, cfg.Upload.MaxSizeBytes, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize image storage", zap.Error(err))
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtManager, appLogger)

	visionService, err := service.NewVisionService(ctx, cfg.Gemini, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize vision service", zap.Error(err))
	}

	extractionService := service.NewExtractionService(visionService, categoryRepo, imageStore, appLogger)
	expenseService := service.NewExpenseService(txRepo, categoryRepo, appLogger)
	categoryService := service.NewCategoryService(categoryRepo, appLogger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, appLogger)
	ocrHandler := handlers.NewOCRHandler(extractionService, imageStore, appLogger)
	expenseHandler := handlers.NewExpenseHandler(expenseService, appLogger)
	categoryHandler := handlers.NewCategoryHandler(categoryService, appLogger)

	// Setup router
	app := api.SetupRouter(authHandler, ocrHandler, expenseHandler, categoryHandler, jwtManager, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
