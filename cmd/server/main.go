package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"renditr/internal/api"
	"renditr/internal/config"
	"renditr/internal/repository"
	"renditr/internal/service"
	"renditr/internal/storage"
	"renditr/pkg/logger"

	"go.uber.org/zap"
)

const (
	AppName    = "renditr"
	AppVersion = "0.1.0"

	ShutdownTimeout = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application failed to start: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("Starting renditr",
		zap.String("version", AppVersion),
		zap.String("port", cfg.Server.Port),
		zap.String("catalog", cfg.Catalog.Type),
		zap.String("storage", cfg.Storage.Type),
		zap.Bool("development", cfg.IsDevelopment()))

	catalog, err := repository.NewCatalog(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize catalog: %w", err)
	}
	defer func() {
		if err := catalog.Close(); err != nil {
			logger.Error("Failed to close catalog", zap.Error(err))
		}
	}()

	blobStorage, err := storage.NewBlobStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize blob storage: %w", err)
	}

	renderer, err := service.NewRendererService(cfg.Image.BackgroundColor)
	if err != nil {
		return fmt.Errorf("failed to initialize renderer: %w", err)
	}
	hasher := service.NewHasherService()

	ingestService := service.NewIngestService(catalog, blobStorage, hasher, renderer, cfg)
	compareService := service.NewCompareService(renderer, cfg)
	purgeService := service.NewPurgeService(catalog, blobStorage, cfg)
	metricsService := service.NewMetricsService(catalog)
	healthService := service.NewHealthService(catalog, blobStorage, AppVersion)

	router := api.NewRouter(cfg, ingestService, compareService, purgeService, metricsService, healthService)

	server := &http.Server{
		Addr:           ":" + cfg.Server.Port,
		Handler:        router.GetEngine(),
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server",
			zap.String("addr", server.Addr),
			zap.String("mode", cfg.Server.GinMode))

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	logger.Info(AppName+" started",
		zap.String("version", AppVersion),
		zap.String("port", cfg.Server.Port))

	return waitForShutdown(server, serverErrChan)
}

// waitForShutdown waits for shutdown signal and gracefully shuts down the server
func waitForShutdown(server *http.Server, serverErrChan chan error) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrChan:
		return err
	case sig := <-quit:
		logger.Info("Received shutdown signal, starting graceful shutdown",
			zap.String("signal", sig.String()))
		return gracefulShutdown(server)
	}
}

// gracefulShutdown drains in-flight requests before exiting
func gracefulShutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	logger.Info("Shutting down HTTP server",
		zap.Duration("timeout", ShutdownTimeout))

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Failed to gracefully shutdown server", zap.Error(err))
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("Server shut down successfully")
	return nil
}
