// Package main provides the standalone alert check worker.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aqmonitor/aqmonitor/internal/api/handler"
	"github.com/aqmonitor/aqmonitor/internal/app"
	"github.com/aqmonitor/aqmonitor/internal/config"
	"github.com/aqmonitor/aqmonitor/internal/logging"
	"github.com/aqmonitor/aqmonitor/internal/telemetry"
	"github.com/aqmonitor/aqmonitor/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "aqmonitor-worker"

	cfg := config.Load()
	cfg.Log.Service = serviceName
	cfg.Log.Version = Version
	log := logging.New(cfg.Log)

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting Air Quality Monitor worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.App.Env,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize services")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}
	defer func() {
		if closeErr := application.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close connections")
		}
	}()

	// Worker also exposes health endpoints for its orchestrator
	ops := handler.NewOpsHandler(handler.OpsHandlerConfig{
		Ping:      application.Ping,
		Providers: application.Providers,
		Scheduler: application.Job,
	})
	mux := chi.NewRouter()
	mux.Get("/health", ops.HealthCheck)
	mux.Get("/ready", ops.ReadinessCheck)
	mux.Get("/status", ops.SystemStatus)
	mux.Handle("/metrics", application.Metrics.Handler())

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	switch {
	case !cfg.Scheduler.Enabled:
		log.Info().Msg("alert check scheduler disabled")
	case !cfg.SchedulerReady():
		log.Warn().Msg("alert check scheduler not started: OPENWEATHER_API_KEY not set")
	default:
		go application.Job.Start(ctx)
		log.Info().
			Dur("interval", application.Job.Interval()).
			Msg("alert check scheduler started")
	}

	if cfg.PubSub.Enabled() {
		pubsubHandler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        cfg.PubSub.ProjectID,
			SubscriptionName: cfg.PubSub.Subscription,
			Job:              application.Job,
			Logger:           logging.WithComponent(log, "pubsub"),
		})
		if err != nil {
			log.Error().Err(err).Msg("failed to create Pub/Sub handler")
		} else {
			defer func() {
				if closeErr := pubsubHandler.Close(); closeErr != nil {
					log.Error().Err(closeErr).Msg("failed to close Pub/Sub client")
				}
			}()
			go func() {
				if err := pubsubHandler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error().Err(err).Msg("Pub/Sub receiver stopped")
				}
			}()
			log.Info().
				Str("subscription", cfg.PubSub.Subscription).
				Msg("Pub/Sub trigger enabled")
		}
	}

	<-ctx.Done()
	log.Info().Msg("shutting down worker")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
