package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sweepDeskApp/config"
	"sweepDeskApp/internal/app"
	"sweepDeskApp/internal/app/dto"
	httphandlers "sweepDeskApp/internal/handlers/http"
	"sweepDeskApp/pkg/utils"

	"github.com/google/uuid"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.LoadConfig()
	log := setupLogger(cfg.Env)

	// Create cancellable context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("Shutting down...")
		cancel()
	}()

	log.Info("Initializing app...")
	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Error(fmt.Sprintf("Failed to initialize app: %v", err))
		os.Exit(1)
	}

	// Start event processor
	log.Info("Starting event processor...")
	go application.EventProcessor.Run(ctx)

	if cfg.DemoSeed {
		seedDemoData(ctx, log, application)
	}

	// Set up HTTP server
	httpAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	httpServer := httphandlers.NewServer(
		httpAddr,
		application.Validation,
		application.Recovery,
		application.SessionAPI,
		application.SweepAudit,
		application.Broadcaster,
	)

	// Start HTTP server in a goroutine
	go func() {
		log.Info(fmt.Sprintf("HTTP server listening on %s", httpAddr))
		if err := httpServer.Start(); err != nil {
			log.Info(fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	// Wait for termination signal
	<-ctx.Done()

	// Clean up app resources
	log.Info("Cleaning up app resources...")
	application.Cleanup(ctx)

	// Create a timeout context for graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	log.Info("Shutting down HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Info(fmt.Sprintf("HTTP server shutdown error: %v", err))
	}

	log.Info("Service stopped.")
}

// seedDemoData registers a generated session with mixed-state wallets so
// the dashboard has something to show without the real trading subsystem.
func seedDemoData(ctx context.Context, log *slog.Logger, application *app.AppContext) {
	gen := utils.NewSessionGenerator()
	session, vault := gen.GenerateSession()

	if err := application.WalletStore.RegisterSession(ctx, session.ID, vault); err != nil {
		log.Error(fmt.Sprintf("Failed to seed demo session: %v", err))
		return
	}
	for _, w := range gen.GenerateWallets(6) {
		if err := application.WalletStore.PutWallet(ctx, session.ID, w); err != nil {
			log.Error(fmt.Sprintf("Failed to seed demo wallet: %v", err))
		}
	}

	event := dto.RegisteredEvent(uuid.New().String(), session)
	if application.KafkaProducer != nil {
		if err := application.KafkaProducer.PublishEvent(ctx, event); err != nil {
			log.Error(fmt.Sprintf("Failed to publish demo event: %v", err))
		}
	} else {
		application.EventCh <- event
	}

	log.Info(fmt.Sprintf("Seeded demo session %s with 6 wallets", session.ID))
}

func setupLogger(env string) *slog.Logger {
	var logger *slog.Logger

	switch env {
	case envDev:
		logger = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		logger = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default: // envLocal
		logger = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	}

	return logger
}
