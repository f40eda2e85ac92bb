package models

// Health is the liveness body.
type Health struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Readiness is the readiness body.
type Readiness struct {
	Status HealthStatus      `json:"status"`
	Time   Timestamp         `json:"time"`
	Checks map[string]string `json:"checks,omitempty"`
}

// SystemStatus reports provider and scheduler state.
type SystemStatus struct {
	Status    HealthStatus     `json:"status"`
	Time      Timestamp        `json:"time"`
	Providers []ProviderStatus `json:"providers"`
	Scheduler *SchedulerStatus `json:"scheduler,omitempty"`
}

// ProviderStatus is the state of one external provider.
type ProviderStatus struct {
	Provider      string       `json:"provider"`
	Status        HealthStatus `json:"status"`
	LastSuccessAt *Timestamp   `json:"last_success_at,omitempty"`
	LastFailureAt *Timestamp   `json:"last_failure_at,omitempty"`
	Message       *string      `json:"message,omitempty"`
}

// SchedulerStatus summarises the periodic alert check.
type SchedulerStatus struct {
	Enabled          bool       `json:"enabled"`
	Interval         string     `json:"interval"`
	TotalRuns        int64      `json:"total_runs"`
	LocationsChecked int64      `json:"locations_checked"`
	LocationsFailed  int64      `json:"locations_failed"`
	AlertsSent       int64      `json:"alerts_sent"`
	LastRunAt        *Timestamp `json:"last_run_at,omitempty"`
	LastRunDuration  string     `json:"last_run_duration,omitempty"`
}
