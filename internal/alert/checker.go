package alert

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aqmonitor/aqmonitor/internal/airquality"
	"github.com/aqmonitor/aqmonitor/internal/telemetry"
)

// Fetcher returns a fresh, stored reading for a location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) (*airquality.Reading, error)
}

// CheckResult is the outcome of one fetch-then-evaluate cycle.
type CheckResult struct {
	Reading    *airquality.Reading
	Recipients []string
}

// Checker runs the fetch-then-evaluate cycle for a location.
type Checker struct {
	fetcher   Fetcher
	evaluator *Evaluator
	tracer    trace.Tracer
}

// NewChecker creates a Checker.
func NewChecker(fetcher Fetcher, evaluator *Evaluator) *Checker {
	return &Checker{
		fetcher:   fetcher,
		evaluator: evaluator,
		tracer:    telemetry.Tracer("github.com/aqmonitor/aqmonitor/internal/alert"),
	}
}

// Check fetches the current reading for location and evaluates it against
// the preferences matching location as given by the caller.
func (c *Checker) Check(ctx context.Context, location string) (*CheckResult, error) {
	ctx, span := c.tracer.Start(ctx, "alert.check", trace.WithAttributes(
		attribute.String("location", location),
	))
	defer span.End()

	reading, err := c.fetcher.Fetch(ctx, location)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, err
	}

	recipients, err := c.evaluator.Evaluate(ctx, location, reading)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluate failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("aqi", reading.AQI),
		attribute.Int("alerts_sent", len(recipients)),
	)
	return &CheckResult{Reading: reading, Recipients: recipients}, nil
}
