// Package alert decides who is notified for a fresh reading and sends the
// alerts.
package alert

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aqmonitor/aqmonitor/internal/airquality"
	"github.com/aqmonitor/aqmonitor/internal/metrics"
	"github.com/aqmonitor/aqmonitor/internal/notify"
	"github.com/aqmonitor/aqmonitor/internal/preference"
)

// DefaultAQIThreshold replaces an overall-AQI threshold of 0.
const DefaultAQIThreshold = 150

// EvaluatedPollutants are the pollutants with per-preference alerts. SO2 and
// CO thresholds are stored but not evaluated.
var EvaluatedPollutants = []airquality.Pollutant{
	airquality.PM25,
	airquality.PM10,
	airquality.NO2,
	airquality.O3,
}

// PreferenceSource returns the preferences matching a location.
type PreferenceSource interface {
	MatchingLocation(ctx context.Context, location string) ([]*preference.Preference, error)
}

// Sender delivers the two alert kinds.
type Sender interface {
	SendAQIAlert(ctx context.Context, email, location string, aqi int, reading *airquality.Reading) error
	SendPollutantAlert(ctx context.Context, email, location string, exceeded []notify.Exceedance) error
}

// EvaluatorConfig holds the dependencies of Evaluator.
type EvaluatorConfig struct {
	Preferences PreferenceSource
	Sender      Sender
	Logger      zerolog.Logger
	Metrics     *metrics.Metrics
}

// Evaluator compares a reading against every matching preference.
type Evaluator struct {
	prefs   PreferenceSource
	sender  Sender
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(cfg EvaluatorConfig) *Evaluator {
	return &Evaluator{
		prefs:   cfg.Preferences,
		sender:  cfg.Sender,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}
}

// Evaluate sends every alert reading warrants for preferences matching
// location and returns the recipients in send order. A recipient appears
// twice when both alert kinds fire. Delivery failures are logged and skipped;
// only a failure to load preferences is returned.
func (e *Evaluator) Evaluate(ctx context.Context, location string, reading *airquality.Reading) ([]string, error) {
	prefs, err := e.prefs.MatchingLocation(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("load preferences for %q: %w", location, err)
	}

	sent := make([]string, 0)
	for _, p := range prefs {
		email := p.Recipient()
		if email == "" {
			continue
		}

		if reading.AQI >= aqiThreshold(p) {
			if err := e.sender.SendAQIAlert(ctx, email, location, reading.AQI, reading); err != nil {
				e.deliveryFailed(err, p, metrics.KindAQI)
			} else {
				e.metrics.AlertSent(metrics.KindAQI)
				sent = append(sent, email)
			}
		}

		if exceeded := Exceeded(p, reading); len(exceeded) > 0 {
			if err := e.sender.SendPollutantAlert(ctx, email, location, exceeded); err != nil {
				e.deliveryFailed(err, p, metrics.KindPollutant)
			} else {
				e.metrics.AlertSent(metrics.KindPollutant)
				sent = append(sent, email)
			}
		}
	}
	return sent, nil
}

// Exceeded returns the evaluated pollutants at or above the preference's
// threshold. A threshold of 0 disables that pollutant; an unreported
// concentration counts as 0.
func Exceeded(p *preference.Preference, reading *airquality.Reading) []notify.Exceedance {
	var out []notify.Exceedance
	for _, pol := range EvaluatedPollutants {
		threshold := p.Threshold(pol)
		if threshold == 0 {
			continue
		}
		value, _ := reading.Value(pol)
		if value >= threshold {
			out = append(out, notify.Exceedance{Pollutant: pol, Value: value, Threshold: threshold})
		}
	}
	return out
}

func aqiThreshold(p *preference.Preference) int {
	if p.AlertThreshold == 0 {
		return DefaultAQIThreshold
	}
	return p.AlertThreshold
}

func (e *Evaluator) deliveryFailed(err error, p *preference.Preference, kind string) {
	e.metrics.AlertFailed(kind)
	e.logger.Error().
		Err(err).
		Int64("preference_id", p.ID).
		Str("location", p.Location).
		Str("kind", kind).
		Msg("alert delivery failed")
}
