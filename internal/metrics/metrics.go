// Package metrics exposes Prometheus counters for readings, alerts and
// scheduler runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Alert kinds used as label values.
const (
	KindAQI       = "aqi"
	KindPollutant = "pollutant"
	KindTest      = "test"
)

// Metrics holds the domain collectors. A nil *Metrics records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	ReadingsFetched  *prometheus.CounterVec
	AlertsSent       *prometheus.CounterVec
	AlertsFailed     *prometheus.CounterVec
	SchedulerRuns    *prometheus.CounterVec
	SchedulerLatency prometheus.Histogram
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collectors on reg and serves them from g.
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: g,
		ReadingsFetched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aqmonitor_readings_fetched_total",
				Help: "Readings fetched from the air quality provider",
			},
			[]string{"status"}, // success, not_found, error
		),
		AlertsSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aqmonitor_alerts_sent_total",
				Help: "Alert emails delivered",
			},
			[]string{"kind"},
		),
		AlertsFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aqmonitor_alert_delivery_failures_total",
				Help: "Alert emails that could not be delivered",
			},
			[]string{"kind"},
		),
		SchedulerRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aqmonitor_scheduler_location_checks_total",
				Help: "Locations checked by the scheduler",
			},
			[]string{"status"}, // success, error
		),
		SchedulerLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "aqmonitor_scheduler_run_duration_seconds",
				Help:    "Duration of a full scheduled alert check",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),
	}
}

// Fetched counts one provider fetch by outcome.
func (m *Metrics) Fetched(status string) {
	if m == nil {
		return
	}
	m.ReadingsFetched.WithLabelValues(status).Inc()
}

// AlertSent counts one delivered alert.
func (m *Metrics) AlertSent(kind string) {
	if m == nil {
		return
	}
	m.AlertsSent.WithLabelValues(kind).Inc()
}

// AlertFailed counts one failed delivery.
func (m *Metrics) AlertFailed(kind string) {
	if m == nil {
		return
	}
	m.AlertsFailed.WithLabelValues(kind).Inc()
}

// LocationChecked counts one scheduled location check.
func (m *Metrics) LocationChecked(ok bool) {
	if m == nil {
		return
	}
	status := "success"
	if !ok {
		status = "error"
	}
	m.SchedulerRuns.WithLabelValues(status).Inc()
}

// RunFinished observes the duration of a scheduler run.
func (m *Metrics) RunFinished(d time.Duration) {
	if m == nil {
		return
	}
	m.SchedulerLatency.Observe(d.Seconds())
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
