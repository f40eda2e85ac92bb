package airquality

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aqmonitor/aqmonitor/internal/cache"
	"github.com/aqmonitor/aqmonitor/internal/metrics"
)

// HistoryWindow is how far back History looks.
const HistoryWindow = 24 * time.Hour

// Provider resolves place names and reports current concentrations.
type Provider interface {
	// ResolveLocation geocodes name. It returns ErrLocationNotFound when the
	// provider has no match and ErrProviderNotConfigured without credentials.
	ResolveLocation(ctx context.Context, name string) (Location, error)

	// FetchCurrent returns the current reading at a coordinate. Location and
	// Timestamp are left for the caller to fill in.
	FetchCurrent(ctx context.Context, lat, lon float64) (*Reading, error)
}

// ServiceConfig holds the dependencies of Service.
type ServiceConfig struct {
	Provider   Provider
	Repository Repository
	Logger     zerolog.Logger

	// GeocodeCache holds resolved locations. Nil disables caching.
	GeocodeCache cache.Cache
	GeocodeTTL   time.Duration

	// Timeout bounds one full fetch (geocode plus air pollution call).
	Timeout time.Duration

	Metrics *metrics.Metrics
	Now     func() time.Time
}

// Service fetches and stores readings.
type Service struct {
	provider   Provider
	repo       Repository
	logger     zerolog.Logger
	geocache   cache.Cache
	geocodeTTL time.Duration
	timeout    time.Duration
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewService creates a reading service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.GeocodeTTL == 0 {
		cfg.GeocodeTTL = 24 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		provider:   cfg.Provider,
		repo:       cfg.Repository,
		logger:     cfg.Logger,
		geocache:   cfg.GeocodeCache,
		geocodeTTL: cfg.GeocodeTTL,
		timeout:    cfg.Timeout,
		metrics:    cfg.Metrics,
		now:        cfg.Now,
	}
}

// Fetch resolves name, fetches the current reading there and stores it.
// The stored reading carries the provider's canonical location name.
func (s *Service) Fetch(ctx context.Context, name string) (*Reading, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrLocationNotFound
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	loc, err := s.resolve(ctx, name)
	if err != nil {
		s.metrics.Fetched(fetchStatus(err))
		return nil, err
	}

	reading, err := s.provider.FetchCurrent(ctx, loc.Lat, loc.Lon)
	if err != nil {
		s.metrics.Fetched(fetchStatus(err))
		return nil, err
	}
	reading.Location = loc.Name
	reading.Timestamp = s.now().UTC()

	if err := s.repo.Save(ctx, reading); err != nil {
		s.metrics.Fetched("error")
		return nil, fmt.Errorf("store reading: %w", err)
	}
	s.metrics.Fetched("success")

	s.logger.Debug().
		Str("location", reading.Location).
		Int("aqi", reading.AQI).
		Int64("reading_id", reading.ID).
		Msg("reading stored")

	return reading, nil
}

// History returns stored readings from the last 24 hours whose location
// matches location, oldest first.
func (s *Service) History(ctx context.Context, location string) ([]*Reading, error) {
	since := s.now().UTC().Add(-HistoryWindow)
	all, err := s.repo.ListSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	out := make([]*Reading, 0, len(all))
	for _, r := range all {
		if MatchLocation(r.Location, location) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Service) resolve(ctx context.Context, name string) (Location, error) {
	key := "geocode:" + strings.ToLower(name)

	if s.geocache != nil {
		data, ok, err := s.geocache.Get(ctx, key)
		if err != nil {
			s.logger.Warn().Err(err).Str("location", name).Msg("geocode cache read failed")
		} else if ok {
			var loc Location
			if err := json.Unmarshal(data, &loc); err == nil {
				return loc, nil
			}
		}
	}

	loc, err := s.provider.ResolveLocation(ctx, name)
	if err != nil {
		return Location{}, err
	}
	if loc.Name == "" {
		loc.Name = name
	}

	if s.geocache != nil {
		data, _ := json.Marshal(loc)
		if err := s.geocache.Set(ctx, key, data, s.geocodeTTL); err != nil {
			s.logger.Warn().Err(err).Str("location", name).Msg("geocode cache write failed")
		}
	}
	return loc, nil
}

func fetchStatus(err error) string {
	if errors.Is(err, ErrLocationNotFound) {
		return "not_found"
	}
	return "error"
}
