// video-service is the HTTP API server for submitting video generations
// and checking operation status.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dreamframe/internal/api"
	"dreamframe/internal/config"
	"dreamframe/internal/credentials"
	"dreamframe/internal/dispatcher"
	"dreamframe/internal/generation"
	"dreamframe/internal/health"
	"dreamframe/internal/media"
	"dreamframe/internal/observability"
	"dreamframe/internal/veo"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(); err != nil {
		slog.Error("Service failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load configuration
	svcCfg := config.LoadServiceConfig()
	veoCfg := veo.LoadConfigFromEnv()
	genCfg := generation.LoadConfigFromEnv()
	dispatcherCfg := dispatcher.LoadConfigFromEnv()
	mediaCfg := media.LoadConfigFromEnv()

	if veoCfg.ProjectID == "" {
		return fmt.Errorf("VEO_PROJECT_ID is required")
	}

	// Setup metrics
	metrics, metricsHandler, err := observability.NewMetrics(ctx)
	if err != nil {
		return err
	}

	// Resolve backend credentials
	creds, err := newCredentials(ctx)
	if err != nil {
		return err
	}

	// Create callback dispatcher
	eventDispatcher := dispatcher.NewMemory(dispatcherCfg, metrics)

	// Create backend client
	registry := veo.NewRegistry(veoCfg.Candidates)
	backend := veo.NewClient(veoCfg, registry, creds, metrics)

	slog.Info("Backend configured",
		"project", veoCfg.ProjectID,
		"location", veoCfg.Location,
		"candidates", registry.Candidates(),
	)

	// Create health checker; readiness verifies a token can be minted
	var readiness health.ReadinessChecker
	if rc, ok := creds.(health.ReadinessChecker); ok {
		readiness = rc
	}
	healthChecker := health.NewChecker(readiness)

	// Create generation service
	poller := generation.NewPoller(backend, genCfg.PollInterval, genCfg.PollDeadline)
	svcOpts := generation.ServiceOptions{
		Dispatcher:  eventDispatcher,
		Metrics:     metrics,
		EventSource: genCfg.EventSource,
	}
	if mediaCfg.Enabled() {
		svcOpts.Retriever = media.NewRetriever(mediaCfg, creds)
		slog.Info("Media retrieval enabled", "dir", mediaCfg.Dir)
	}
	generationService := generation.NewService(backend, poller, svcOpts)

	// Create API router
	router := api.NewRouter(api.RouterConfig{
		Service:       generationService,
		Metrics:       metrics,
		HealthChecker: healthChecker,
		APIKey:        svcCfg.APIKey,
	})

	if svcCfg.APIKey != "" {
		slog.Info("API authentication enabled")
	} else {
		slog.Warn("API authentication disabled - no API key configured")
	}

	// Create API server. Generation requests block until the remote
	// operation reaches a terminal state, so the response write timeout
	// must outlast the polling deadline.
	apiServer := &http.Server{
		Addr:              ":" + svcCfg.Port,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      genCfg.PollDeadline + time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	// Create metrics server
	metricsMux := http.NewServeMux()
	metricsMux.Handle("GET /metrics", metricsHandler)
	metricsServer := &http.Server{
		Addr:         ":" + svcCfg.MetricsPort,
		Handler:      metricsMux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// Channel to capture server errors
	serverErr := make(chan error, 1)

	// Start API server
	go func() {
		slog.Info("Starting API server", "port", svcCfg.Port)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Start metrics server
	go func() {
		slog.Info("Starting metrics server", "port", svcCfg.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// shutdown closes both servers gracefully
	shutdown := func(timeout time.Duration) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := apiServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("API server shutdown error", "error", err)
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server shutdown error", "error", err)
		}
	}

	// Wait for interrupt signal or server error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("Received shutdown signal", "signal", sig)
	case err := <-serverErr:
		slog.Error("Server failed to start", "error", err)
		shutdown(5 * time.Second)
		return err
	}

	// Phase 1: Mark service as unhealthy for load balancer draining
	healthChecker.SetShuttingDown()

	// Wait for load balancers to stop sending traffic
	if svcCfg.ShutdownDrainWait > 0 {
		slog.Info("Waiting for traffic to drain", "duration", svcCfg.ShutdownDrainWait)
		time.Sleep(svcCfg.ShutdownDrainWait)
	}

	// Phase 2: Graceful shutdown - stop accepting new connections,
	// finish in-flight requests. In-flight generations are abandoned at
	// this point; their operations keep running on the backend and can
	// be picked up again through the check endpoint.
	slog.Info("Starting graceful shutdown")
	shutdown(25 * time.Second)

	// Phase 3: Drain callback dispatcher
	slog.Info("Draining callback dispatcher")
	dispatcherCtx, dispatcherCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer dispatcherCancel()
	if err := eventDispatcher.Close(dispatcherCtx); err != nil {
		slog.Warn("Dispatcher shutdown error", "error", err)
	}

	// Log final dispatcher stats
	stats := eventDispatcher.Stats()
	slog.Info("Dispatcher stats",
		"delivered", stats.Delivered,
		"failed", stats.Failed,
		"dropped", stats.Dropped,
	)

	slog.Info("Shutdown complete")
	return nil
}

// newCredentials builds the token provider: a service-account file when
// VEO_CREDENTIALS_FILE is set, otherwise Application Default Credentials.
func newCredentials(ctx context.Context) (credentials.Provider, error) {
	if path := config.GetEnv("VEO_CREDENTIALS_FILE", ""); path != "" {
		return credentials.NewGoogleProviderFromFile(ctx, path)
	}
	return credentials.NewGoogleProvider(ctx)
}
