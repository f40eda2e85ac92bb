// Package worker runs the periodic alert check and handles on-demand
// check requests from Pub/Sub.
package worker

import (
	"time"
)

// JobConfig holds configuration for the alert check job.
type JobConfig struct {
	// Interval between scheduled runs.
	// Default: 5 minutes
	Interval time.Duration

	// Concurrency is the number of locations checked at once.
	// Default: 1
	Concurrency int

	// Timeout bounds the check of a single location.
	// Default: 1 minute
	Timeout time.Duration
}

// DefaultJobConfig returns the default alert check configuration.
func DefaultJobConfig() JobConfig {
	return JobConfig{
		Interval:    5 * time.Minute,
		Concurrency: 1,
		Timeout:     time.Minute,
	}
}

func (c JobConfig) withDefaults() JobConfig {
	d := DefaultJobConfig()
	if c.Interval <= 0 {
		c.Interval = d.Interval
	}
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	return c
}
