// Package api provides the HTTP API for the Air Quality Monitor.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aqmonitor/aqmonitor/internal/api/handler"
	"github.com/aqmonitor/aqmonitor/internal/api/middleware"
	"github.com/aqmonitor/aqmonitor/internal/metrics"
	"github.com/aqmonitor/aqmonitor/internal/preference"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger      zerolog.Logger
	ServiceName string

	// HTTPMetrics records OpenTelemetry request metrics. Optional.
	HTTPMetrics *middleware.Metrics
	// Metrics holds the domain counters served at /metrics. Optional.
	Metrics *metrics.Metrics

	CORSOrigins []string
	RequireTLS  bool
	// AlertRateLimit is the per-IP requests per minute on the alert
	// endpoints. Zero uses middleware.AlertRateLimit.
	AlertRateLimit int

	Readings    handler.ReadingService
	Preferences *preference.Service
	Checker     handler.LocationChecker
	Sender      handler.AQIAlertSender

	Ops handler.OpsHandlerConfig
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "aqmonitor-api"
	}
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.HTTPMetrics != nil {
		r.Use(cfg.HTTPMetrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Location", "X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(middleware.SecurityHeaders)            // Security headers
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement

	opsHandler := handler.NewOpsHandler(cfg.Ops)
	airQualityHandler := handler.NewAirQualityHandler(cfg.Readings)
	preferenceHandler := handler.NewPreferenceHandler(cfg.Preferences)
	alertHandler := handler.NewAlertHandler(handler.AlertHandlerConfig{
		Checker: cfg.Checker,
		Sender:  cfg.Sender,
		Metrics: cfg.Metrics,
		Logger:  cfg.Logger,
	})

	alertLimit := middleware.AlertRateLimit
	if cfg.AlertRateLimit > 0 {
		alertLimit = middleware.RateLimitConfig{RequestLimit: cfg.AlertRateLimit, WindowLength: time.Minute}
	}
	alertRateLimit := middleware.RateLimitByIP(alertLimit)
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)

	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)

		r.Get("/health", opsHandler.HealthCheck)
		r.Get("/ready", opsHandler.ReadinessCheck)
		r.Get("/status", opsHandler.SystemStatus)

		r.Group(func(r chi.Router) {
			r.Use(standardRateLimit)

			r.Route("/air-quality/{location}", func(r chi.Router) {
				r.Get("/", airQualityHandler.GetCurrent)
				r.Get("/history", airQualityHandler.GetHistory)
			})

			r.Route("/preferences", func(r chi.Router) {
				r.With(middleware.RequireJSON).Post("/", preferenceHandler.CreatePreference)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", preferenceHandler.GetPreference)
					r.With(middleware.RequireJSON).Put("/", preferenceHandler.UpdatePreference)
					r.Delete("/", preferenceHandler.DeletePreference)
				})
			})
		})

		r.Route("/alerts", func(r chi.Router) {
			r.With(standardRateLimit).Get("/thresholds", alertHandler.GetThresholds)

			// Test and check send email - strict rate limiting
			r.Group(func(r chi.Router) {
				r.Use(alertRateLimit)
				r.Use(middleware.RequireJSON)
				r.Post("/test", alertHandler.SendTestAlert)
				r.Post("/check", alertHandler.CheckAlerts)
			})
		})
	})

	return r
}
