package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"littlesteps/internal/assistant"
	"littlesteps/internal/config"
	"littlesteps/internal/content"
	"littlesteps/internal/database"
	"littlesteps/internal/handlers"
	"littlesteps/internal/profile"
	"littlesteps/internal/security"
	"littlesteps/internal/storage"
	"littlesteps/internal/web"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	// Initialize database with config (supports sqlite, sqlite-go, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer db.Close()
	logger.Info("Database connection established", zap.String("type", db.Dialect.Name()))

	applied, err := db.RunMigrations(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("Migrations completed", zap.Strings("applied", applied))

	secret := cfg.AppSecret
	if secret == "" {
		secret, err = randomSecret()
		if err != nil {
			return err
		}
		logger.Warn("APP_SECRET is not set; devices will lose their profiles on restart")
	}
	deviceKey, err := security.DeriveKey(secret, security.PurposeDeviceToken)
	if err != nil {
		return err
	}
	csrfKey, err := security.DeriveKey(secret, security.PurposeCSRF)
	if err != nil {
		return err
	}

	renderer, err := web.Load(cfg.TemplatesPath)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}
	logger.Info("Templates loaded", zap.String("path", cfg.TemplatesPath))

	registry := profile.NewRegistry(
		func(deviceID string) storage.Storage { return storage.NewSQLStorage(db, deviceID) },
		logger.Named("profiles"),
		profile.WithSeed(cfg.SeedExample),
	)
	defer registry.Close()

	conversations := assistant.NewConversations(
		assistant.WithDelay(cfg.AssistantDelay),
		assistant.WithLogger(logger.Named("assistant")),
	)
	defer conversations.Close()

	limiter := security.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	defer limiter.Stop()

	// photos arrive as multipart uploads; leave headroom for the text fields
	maxBody := int64(cfg.PhotoMaxBytes) + 1<<20
	mw := handlers.NewMiddleware(
		security.NewDeviceIssuer(deviceKey, cfg.DeviceTokenTTL),
		security.NewCSRFGenerator(csrfKey),
		limiter,
		logger.Named("http"),
		maxBody,
	)
	base := handlers.NewBase(registry, content.NewWorkspaces(content.Default(), nil), conversations, renderer, mw, logger.Named("handlers"))

	// devices that stop visiting are dropped from memory; profiles stay in storage
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go base.SweepIdle(sweepCtx, cfg.DeviceSweep, cfg.DeviceIdleTTL)

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, mw,
		handlers.NewPageHandler(base),
		handlers.NewProfileHandler(base, int64(cfg.PhotoMaxBytes)),
		handlers.NewAssistantHandler(base),
	)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      mw.Wrap(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("addr", "http://localhost"+addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("Server shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
