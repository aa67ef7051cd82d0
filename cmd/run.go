package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"royaltyengine/api"
	"royaltyengine/config"
	"royaltyengine/database"
	"royaltyengine/events"
	"royaltyengine/models"
	"royaltyengine/provider"
	"royaltyengine/repository"
	"royaltyengine/service"
)

// Run initializes and starts the royalty engine
func Run(ctx context.Context) error {
	log.Info("Starting royalty engine...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize event bus
	eventBus := events.NewBus()

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize platform integrations
	licenses := provider.NewPostgresLicenseProvider(db)
	usage := provider.NewPostgresUsageEventSource(db)
	sink := provider.NewLogNotificationSink()
	renderer := provider.NewCSVRenderer(uowFactory)

	policy := &models.PayoutPolicy{
		DefaultThresholdCents:     cfg.DefaultThresholdCents,
		CreatorThresholdOverrides: cfg.CreatorThresholdOverrides,
		GracePeriodMonths:         cfg.GracePeriodMonths,
		PlatformFeeBps:            cfg.PlatformFeeBps,
	}

	// Initialize services
	log.Info("Initializing services...")
	queue := newCalculationQueue(64)
	validationService := service.NewValidationService(uowFactory, licenses)
	runService := service.NewRunService(uowFactory, licenses, usage, validationService, queue, policy)
	statementService := service.NewStatementService(uowFactory, renderer)

	// Background workers
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()
	stopWorkers := startCalculationWorkers(workerCtx, runService, queue, cfg.CalculationWorkers)
	stopSweeper := startStuckRunSweeper(workerCtx, runService, cfg.SweepInterval, cfg.StuckRunTimeout)
	startNotificationRelay(eventBus, sink)

	// HTTP server
	server := api.NewServer(runService, statementService, validationService)
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.Router(),
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.ListenAddr).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	log.WithField("environment", cfg.Environment).Info("Royalty engine is running")

	select {
	case err := <-serverErr:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
	}

	// Graceful shutdown: stop accepting requests, then drain workers.
	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown error")
	}

	cancelWorkers()
	stopWorkers()
	stopSweeper()

	log.Info("Closing database connection...")
	db.Close()

	log.Info("Shutdown completed")
	return nil
}
