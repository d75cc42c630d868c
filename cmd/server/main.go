package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ordersapp "github.com/returns/backend/internal/application/orders"
	returnsapp "github.com/returns/backend/internal/application/returns"
	"github.com/returns/backend/internal/domain/logistics"
	"github.com/returns/backend/internal/infrastructure/auth"
	"github.com/returns/backend/internal/infrastructure/config"
	"github.com/returns/backend/internal/infrastructure/crypto"
	"github.com/returns/backend/internal/infrastructure/logger"
	"github.com/returns/backend/internal/infrastructure/persistence"
	"github.com/returns/backend/internal/infrastructure/shiprocket"
	"github.com/returns/backend/internal/interfaces/http/handler"
	"github.com/returns/backend/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting returns backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	returnRepo := persistence.NewGormReturnRequestRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)

	// Bank detail cipher for cash-on-delivery refund accounts
	cipher, err := crypto.NewBankCipher(cfg.Returns.BankEncryptionKey)
	if err != nil {
		log.Fatal("Failed to initialize bank cipher", zap.Error(err))
	}

	// Shiprocket token cache: Redis shares one token across instances,
	// otherwise each process logs in on its own.
	var tokens shiprocket.TokenCache
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing redis client", zap.Error(err))
			}
		}()
		tokens = shiprocket.NewRedisTokenCache(redisClient, cfg.Shiprocket.Email, cfg.Shiprocket.Password)
		log.Info("Using Redis token cache", zap.String("addr", cfg.Redis.Addr()))
	} else {
		tokens = shiprocket.NewMemoryTokenCache()
	}

	// Logistics gateway
	var gateway logistics.Gateway
	gateway, err = shiprocket.NewClient(&shiprocket.Config{
		BaseURL:  cfg.Shiprocket.BaseURL,
		Email:    cfg.Shiprocket.Email,
		Password: cfg.Shiprocket.Password,
	}, tokens, log)
	if err != nil {
		log.Fatal("Failed to initialize shiprocket client", zap.Error(err))
	}

	// Initialize application services
	lifecycleService := returnsapp.NewLifecycleService(
		returnRepo, orderRepo, gateway, cipher, &cfg.Shiprocket, cfg.Returns.WindowDays,
	)
	webhookService := returnsapp.NewWebhookService(returnRepo, orderRepo)
	cancellationService := ordersapp.NewCancellationService(orderRepo, gateway)
	fulfillmentService := ordersapp.NewFulfillmentService(orderRepo, gateway, &cfg.Shiprocket)

	// JWT token service
	jwtService := auth.NewJWTService(cfg.JWT)

	// Initialize HTTP handlers and router
	handlers := router.Handlers{
		Returns: handler.NewReturnRequestHandler(lifecycleService),
		Orders:  handler.NewOrderHandler(cancellationService, fulfillmentService),
		Webhook: handler.NewWebhookHandler(webhookService, cfg.Shiprocket.WebhookSecret),
		System:  handler.NewSystemHandler(db.Ping),
	}
	engine := router.New(cfg, log, jwtService, handlers).Setup()

	// Create HTTP server
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
