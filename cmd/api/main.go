// Package main provides the entrypoint for the Air Quality Monitor API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aqmonitor/aqmonitor/internal/api"
	"github.com/aqmonitor/aqmonitor/internal/api/handler"
	"github.com/aqmonitor/aqmonitor/internal/api/middleware"
	"github.com/aqmonitor/aqmonitor/internal/app"
	"github.com/aqmonitor/aqmonitor/internal/config"
	"github.com/aqmonitor/aqmonitor/internal/logging"
	"github.com/aqmonitor/aqmonitor/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "aqmonitor-api"

	cfg := config.Load()
	cfg.Log.Service = serviceName
	cfg.Log.Version = Version
	log := logging.New(cfg.Log)

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.App.Env).
		Msg("starting Air Quality Monitor API")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry
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
	if tp.Enabled() {
		log.Info().
			Str("otlp_endpoint", cfg.Telemetry.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize HTTP metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize services")
		os.Exit(1)
	}
	defer func() {
		if closeErr := application.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close connections")
		}
	}()

	// Disable the in-process scheduler when cmd/worker runs the checks.
	var scheduler handler.SchedulerStats
	switch {
	case !cfg.Scheduler.Enabled:
		log.Info().Msg("background scheduler disabled")
	case !cfg.SchedulerReady():
		log.Warn().Msg("background scheduler not started: OPENWEATHER_API_KEY not set")
	default:
		scheduler = application.Job
		go application.Job.Start(ctx)
		log.Info().
			Dur("interval", application.Job.Interval()).
			Msg("background scheduler started")
	}

	router := api.NewRouter(api.RouterConfig{
		Logger:         log,
		ServiceName:    serviceName,
		HTTPMetrics:    httpMetrics,
		Metrics:        application.Metrics,
		CORSOrigins:    cfg.App.CORSOrigins,
		RequireTLS:     cfg.App.RequireTLS,
		AlertRateLimit: cfg.App.AlertRateLimit,
		Readings:       application.Readings,
		Preferences:    application.Preferences,
		Checker:        application.Checker,
		Sender:         application.Notifier,
		Ops: handler.OpsHandlerConfig{
			Ping:      application.Ping,
			Providers: application.Providers,
			Scheduler: scheduler,
		},
	})

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		log.Error().Err(err).Msg("server error")
	}

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
