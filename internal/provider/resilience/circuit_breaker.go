// Package resilience wraps outbound provider HTTP calls with a timeout, a
// circuit breaker and optional exponential-backoff retries.
package resilience

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerConfig configures the circuit breaker guarding a provider.
type BreakerConfig struct {
	Name string

	// HalfOpenRequests is how many trial calls pass while half-open.
	HalfOpenRequests uint32

	// ResetInterval clears the closed-state counters periodically. Zero keeps them.
	ResetInterval time.Duration

	// OpenFor is how long the breaker stays open before probing again.
	OpenFor time.Duration

	// ShouldTrip decides when the breaker opens. Nil means TripOnFailureRatio.
	ShouldTrip func(counts gobreaker.Counts) bool

	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultBreakerConfig returns the breaker settings used for provider clients.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		HalfOpenRequests: 1,
		OpenFor:          60 * time.Second,
		ShouldTrip:       TripOnFailureRatio,
	}
}

// TripOnFailureRatio opens the breaker once five or more calls were made and
// at least half of them failed.
func TripOnFailureRatio(counts gobreaker.Counts) bool {
	if counts.Requests < 5 {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
}

func newBreaker[T any](cfg BreakerConfig) *gobreaker.CircuitBreaker[T] {
	trip := cfg.ShouldTrip
	if trip == nil {
		trip = TripOnFailureRatio
	}
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:          cfg.Name,
		MaxRequests:   cfg.HalfOpenRequests,
		Interval:      cfg.ResetInterval,
		Timeout:       cfg.OpenFor,
		ReadyToTrip:   trip,
		OnStateChange: cfg.OnStateChange,
	})
}
