// Package handler provides HTTP handlers for the Air Quality Monitor API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/aqmonitor/aqmonitor/internal/api/models"
	"github.com/aqmonitor/aqmonitor/internal/api/response"
	"github.com/aqmonitor/aqmonitor/internal/provider/resilience"
	"github.com/aqmonitor/aqmonitor/internal/worker"
)

// SchedulerStats reports the periodic alert check.
type SchedulerStats interface {
	GetMetrics() worker.JobMetrics
	Interval() time.Duration
}

// OpsHandlerConfig holds the dependencies of OpsHandler.
type OpsHandlerConfig struct {
	// Ping checks the database. Nil reports ready.
	Ping func(ctx context.Context) error

	// Providers may be nil.
	Providers *resilience.Registry

	// Scheduler is nil when the in-process scheduler is not running.
	Scheduler SchedulerStats
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	ping      func(ctx context.Context) error
	providers *resilience.Registry
	scheduler SchedulerStats
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsHandlerConfig) *OpsHandler {
	return &OpsHandler{
		ping:      cfg.Ping,
		providers: cfg.Providers,
		scheduler: cfg.Scheduler,
	}
}

// HealthCheck handles GET /api/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status:  "ok",
		Message: "Air Quality Monitor API is running.",
	})
}

// ReadinessCheck handles GET /api/ready - database reachability.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"database": "ok"}
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			response.ServiceUnavailable(w, r, "database unreachable: "+err.Error())
			return
		}
	}
	response.JSON(w, r, http.StatusOK, models.Readiness{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Checks: checks,
	})
}

// SystemStatus handles GET /api/status - provider and scheduler status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:    models.HealthStatusOK,
		Time:      models.Timestamp(time.Now()),
		Providers: []models.ProviderStatus{},
	}

	if h.providers != nil {
		for _, p := range h.providers.All() {
			ps := providerStatus(p)
			if ps.Status == models.HealthStatusFail {
				status.Status = models.HealthStatusDegraded
			} else if ps.Status == models.HealthStatusDegraded && status.Status == models.HealthStatusOK {
				status.Status = models.HealthStatusDegraded
			}
			status.Providers = append(status.Providers, ps)
		}
	}

	if h.scheduler != nil {
		status.Scheduler = schedulerStatus(h.scheduler)
	}

	response.JSON(w, r, http.StatusOK, status)
}

func providerStatus(p resilience.Health) models.ProviderStatus {
	ps := models.ProviderStatus{Provider: p.Name, Status: models.HealthStatusOK}
	switch {
	case p.Degraded():
		ps.Status = models.HealthStatusDegraded
	case !p.Healthy():
		ps.Status = models.HealthStatusFail
	}
	if p.LastSuccessAt != nil {
		ts := models.Timestamp(*p.LastSuccessAt)
		ps.LastSuccessAt = &ts
	}
	if p.LastFailureAt != nil {
		ts := models.Timestamp(*p.LastFailureAt)
		ps.LastFailureAt = &ts
	}
	if p.LastError != "" {
		msg := p.LastError
		ps.Message = &msg
	}
	return ps
}

func schedulerStatus(s SchedulerStats) *models.SchedulerStatus {
	m := s.GetMetrics()
	out := &models.SchedulerStatus{
		Enabled:          true,
		Interval:         s.Interval().String(),
		TotalRuns:        m.TotalRuns,
		LocationsChecked: m.LocationsChecked,
		LocationsFailed:  m.LocationsFailed,
		AlertsSent:       m.AlertsSent,
	}
	if !m.LastRunAt.IsZero() {
		ts := models.Timestamp(m.LastRunAt)
		out.LastRunAt = &ts
		out.LastRunDuration = m.LastRunDuration.String()
	}
	return out
}
