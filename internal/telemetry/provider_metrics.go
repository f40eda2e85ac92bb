package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/aqmonitor/aqmonitor/internal/telemetry"

// ProviderMetrics records outbound provider calls. A nil *ProviderMetrics
// records nothing.
type ProviderMetrics struct {
	duration metric.Float64Histogram
	total    metric.Int64Counter
}

// NewProviderMetrics creates the provider call instruments on the global meter.
func NewProviderMetrics() (*ProviderMetrics, error) {
	meter := otel.Meter(meterName)

	duration, err := meter.Float64Histogram(
		"provider.request.duration",
		metric.WithDescription("Duration of provider requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	total, err := meter.Int64Counter(
		"provider.request.total",
		metric.WithDescription("Total number of provider requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &ProviderMetrics{duration: duration, total: total}, nil
}

// RecordRequest records one call of operation against provider.
func (m *ProviderMetrics) RecordRequest(provider, operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("provider.name", provider),
		attribute.String("provider.operation", operation),
		attribute.Bool("error", err != nil),
	)
	// detached from the request context so cancelled calls are still counted
	ctx := context.Background()
	m.duration.Record(ctx, d.Seconds(), attrs)
	m.total.Add(ctx, 1, attrs)
}
