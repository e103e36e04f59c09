package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/safar/store-backoffice/internal/config"
	"github.com/safar/store-backoffice/internal/database"
	"github.com/safar/store-backoffice/internal/events"
	"github.com/safar/store-backoffice/internal/handler"
	"github.com/safar/store-backoffice/internal/memstore"
	"github.com/safar/store-backoffice/internal/service"
	"github.com/safar/store-backoffice/internal/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	loc, err := cfg.Checkout.Location()
	if err != nil {
		logger.Fatal("Invalid checkout timezone", zap.Error(err))
	}

	ctx := context.Background()

	var (
		dataStore   service.Store
		healthCheck func(context.Context) error
	)
	if cfg.LocalMode {
		logger.Info("Running in local mode with in-memory store")
		dataStore = memstore.NewSeeded()
	} else {
		db, err := database.NewConnection(ctx, &cfg.Database)
		if err != nil {
			logger.Fatal("Connect to database", zap.Error(err))
		}
		defer db.Close()
		logger.Info("Connected to database successfully")

		dataStore = store.New(db, cfg.Database.MaxRetries)
		healthCheck = db.PingContext
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled() {
		publisher = events.NewKafkaProducer(cfg.Kafka.BrokerList(), cfg.Kafka.Topic, logger)
		logger.Info("Publishing events to Kafka",
			zap.Strings("brokers", cfg.Kafka.BrokerList()),
			zap.String("topic", cfg.Kafka.Topic))
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("Close event publisher", zap.Error(err))
		}
	}()

	deps := service.Deps{
		Store:     dataStore,
		Publisher: publisher,
		Logger:    logger,
		Checkout:  cfg.Checkout,
		Location:  loc,
	}

	router, err := handler.NewRouter(handler.Services{
		Orders:  service.NewOrderService(deps),
		Sales:   service.NewSaleService(deps),
		Catalog: service.NewCatalogService(deps),
	}, handler.RouterConfig{
		AdminAPIKey: cfg.AdminAPIKey,
		HealthCheck: healthCheck,
	}, logger)
	if err != nil {
		logger.Fatal("Build router", zap.Error(err))
	}
	if cfg.AdminAPIKey == "" {
		logger.Warn("ADMIN_API_KEY is not set, admin routes are unprotected")
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited", zap.Time("at", time.Now()))
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
