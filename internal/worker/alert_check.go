package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aqmonitor/aqmonitor/internal/alert"
	"github.com/aqmonitor/aqmonitor/internal/metrics"
)

// LocationSource lists the locations that have at least one subscription.
type LocationSource interface {
	Locations(ctx context.Context) ([]string, error)
}

// LocationChecker runs fetch-then-evaluate for one location.
type LocationChecker interface {
	Check(ctx context.Context, location string) (*alert.CheckResult, error)
}

// AlertCheckJob checks every subscribed location for alert conditions.
type AlertCheckJob struct {
	config    JobConfig
	logger    zerolog.Logger
	locations LocationSource
	checker   LocationChecker
	metrics   *metrics.Metrics
	now       func() time.Time

	mu    sync.RWMutex
	stats JobMetrics
}

// JobMetrics is a snapshot of alert check statistics since process start.
type JobMetrics struct {
	TotalRuns        int64
	LocationsChecked int64
	LocationsFailed  int64
	AlertsSent       int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
}

// AlertCheckJobConfig holds configuration for creating an AlertCheckJob.
type AlertCheckJobConfig struct {
	Config    JobConfig
	Logger    zerolog.Logger
	Locations LocationSource
	Checker   LocationChecker
	Metrics   *metrics.Metrics
}

// NewAlertCheckJob creates a new alert check job.
func NewAlertCheckJob(cfg AlertCheckJobConfig) *AlertCheckJob {
	return &AlertCheckJob{
		config:    cfg.Config.withDefaults(),
		logger:    cfg.Logger,
		locations: cfg.Locations,
		checker:   cfg.Checker,
		metrics:   cfg.Metrics,
		now:       time.Now,
	}
}

// RunResult contains the result of one alert check run.
type RunResult struct {
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Locations  int
	Successful int
	Failed     int
	AlertsSent int
	Errors     []LocationError
}

// LocationError records a location whose check failed.
type LocationError struct {
	Location string
	Error    string
}

// Run checks every subscribed location once. A failing location is recorded
// and the run continues with the rest. Run only returns an error when the
// location list cannot be loaded.
func (j *AlertCheckJob) Run(ctx context.Context) (*RunResult, error) {
	startTime := j.now()
	result := &RunResult{StartTime: startTime}

	locations, err := j.locations.Locations(ctx)
	if err != nil {
		return nil, fmt.Errorf("load subscribed locations: %w", err)
	}
	result.Locations = len(locations)

	j.logger.Info().
		Int("locations", result.Locations).
		Int("concurrency", j.config.Concurrency).
		Msg("starting alert check")

	work := make(chan string, len(locations))
	results := make(chan locationResult, len(locations))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.checkWorker(ctx, work, results)
		}()
	}

	for _, loc := range locations {
		work <- loc
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	for lr := range results {
		j.metrics.LocationChecked(lr.err == nil)
		if lr.err != nil {
			result.Failed++
			result.Errors = append(result.Errors, LocationError{Location: lr.location, Error: lr.err.Error()})
			j.logger.Error().Err(lr.err).Str("location", lr.location).Msg("alert check failed")
			continue
		}
		result.Successful++
		result.AlertsSent += lr.sent
	}

	result.EndTime = j.now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)
	j.metrics.RunFinished(result.Duration)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("alerts_sent", result.AlertsSent).
		Msg("alert check completed")

	return result, nil
}

// CheckLocation checks a single location with the per-location timeout.
func (j *AlertCheckJob) CheckLocation(ctx context.Context, location string) (*alert.CheckResult, error) {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()
	return j.checker.Check(ctx, location)
}

// Start runs the job every interval until ctx is cancelled. The first run
// happens one interval after Start is called.
func (j *AlertCheckJob) Start(ctx context.Context) {
	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	j.logger.Info().Dur("interval", j.config.Interval).Msg("alert scheduler started")

	for {
		select {
		case <-ctx.Done():
			j.logger.Info().Msg("alert scheduler stopped")
			return
		case <-ticker.C:
			if _, err := j.Run(ctx); err != nil {
				j.logger.Error().Err(err).Msg("scheduled alert check failed")
			}
		}
	}
}

// Interval returns the configured run interval.
func (j *AlertCheckJob) Interval() time.Duration {
	return j.config.Interval
}

type locationResult struct {
	location string
	sent     int
	err      error
}

func (j *AlertCheckJob) checkWorker(ctx context.Context, work <-chan string, results chan<- locationResult) {
	for location := range work {
		if ctx.Err() != nil {
			results <- locationResult{location: location, err: ctx.Err()}
			continue
		}
		res, err := j.CheckLocation(ctx, location)
		lr := locationResult{location: location, err: err}
		if err == nil {
			lr.sent = len(res.Recipients)
		}
		results <- lr
	}
}

func (j *AlertCheckJob) updateMetrics(result *RunResult) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.stats.TotalRuns++
	j.stats.LocationsChecked += int64(result.Successful)
	j.stats.LocationsFailed += int64(result.Failed)
	j.stats.AlertsSent += int64(result.AlertsSent)
	j.stats.LastRunAt = result.EndTime
	j.stats.LastRunDuration = result.Duration
}

// GetMetrics returns a copy of the current statistics.
func (j *AlertCheckJob) GetMetrics() JobMetrics {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return j.stats
}
