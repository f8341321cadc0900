package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"legalis/internal/api"
	"legalis/internal/api/handlers"
	"legalis/internal/engine"
	"legalis/internal/repository"
	"legalis/internal/service"
	"legalis/internal/storage"
	"legalis/pkg/auth"
	"legalis/pkg/config"
	"legalis/pkg/logger"
	"legalis/pkg/postgres"

	"go.uber.org/zap"
)

// @title Legalis API
// @version 1.0
// @description Legal document analysis service: upload a document, poll its analysis, generate reply letters.
// @termsOfService http://swagger.io/terms/

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
	appLogger.Info("Starting Legalis service")

	// Initialize database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db, appLogger)
	docRepo := repository.NewDocumentRepository(db, appLogger)
	analysisRepo := repository.NewAnalysisRepository(db, appLogger)
	replyRepo := repository.NewReplyLetterRepository(db, appLogger)

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtManager, appLogger)

	engineClient, err := engine.NewGigaChatClient(ctx, &cfg.Engine, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize analysis engine", zap.Error(err))
	}
	defer engineClient.Close()

	store, err := storage.NewMinIO(&cfg.Storage)
	if err != nil {
		appLogger.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	docService := service.NewDocumentService(docRepo, analysisRepo, store, engineClient, cfg.Engine.Timeout, appLogger)
	replyService := service.NewReplyService(docRepo, analysisRepo, replyRepo, engineClient, appLogger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, appLogger)
	docHandler := handlers.NewDocumentHandler(docService, replyService, appLogger)

	// Setup router
	app := api.SetupRouter(authHandler, docHandler, jwtManager, appLogger)

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
