// Package openweathermap implements the air quality provider on top of the
// OpenWeatherMap geocoding and air pollution APIs.
package openweathermap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/aqmonitor/aqmonitor/internal/airquality"
	"github.com/aqmonitor/aqmonitor/internal/provider/resilience"
	"github.com/aqmonitor/aqmonitor/internal/telemetry"
)

const (
	// ProviderName identifies this provider in metrics and the registry.
	ProviderName = "openweathermap"

	DefaultGeocodingURL    = "http://api.openweathermap.org/geo/1.0/direct"
	DefaultAirPollutionURL = "http://api.openweathermap.org/data/2.5/air_pollution"
)

// ClientConfig holds configuration for the OpenWeatherMap client.
type ClientConfig struct {
	// APIKey is the OpenWeatherMap key. Calls fail with
	// airquality.ErrProviderNotConfigured while it is empty.
	APIKey string

	GeocodingURL    string
	AirPollutionURL string

	// HTTPClient is the resilient client to use. Nil builds one named
	// ProviderName with default settings.
	HTTPClient *resilience.Client

	Metrics *telemetry.ProviderMetrics
	Logger  zerolog.Logger
}

// Client talks to OpenWeatherMap.
type Client struct {
	apiKey          string
	geocodingURL    string
	airPollutionURL string
	http            *resilience.Client
	metrics         *telemetry.ProviderMetrics
	logger          zerolog.Logger
}

// NewClient creates an OpenWeatherMap client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.GeocodingURL == "" {
		cfg.GeocodingURL = DefaultGeocodingURL
	}
	if cfg.AirPollutionURL == "" {
		cfg.AirPollutionURL = DefaultAirPollutionURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = resilience.NewClient(resilience.ClientConfig{Name: ProviderName})
	}
	return &Client{
		apiKey:          cfg.APIKey,
		geocodingURL:    cfg.GeocodingURL,
		airPollutionURL: cfg.AirPollutionURL,
		http:            cfg.HTTPClient,
		metrics:         cfg.Metrics,
		logger:          cfg.Logger,
	}
}

type geocodeResult struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

type airPollutionResponse struct {
	List []struct {
		Main struct {
			AQI int `json:"aqi"`
		} `json:"main"`
		Components map[string]float64 `json:"components"`
		Dt         int64              `json:"dt"`
	} `json:"list"`
}

// ResolveLocation returns the first geocoding match for name.
func (c *Client) ResolveLocation(ctx context.Context, name string) (loc airquality.Location, err error) {
	if c.apiKey == "" {
		return airquality.Location{}, airquality.ErrProviderNotConfigured
	}
	start := time.Now()
	defer func() { c.metrics.RecordRequest(ProviderName, "geocode", time.Since(start), err) }()

	q := url.Values{}
	q.Set("q", name)
	q.Set("limit", "1")
	q.Set("appid", c.apiKey)

	var results []geocodeResult
	if err := c.get(ctx, c.geocodingURL+"?"+q.Encode(), &results); err != nil {
		return airquality.Location{}, err
	}
	if len(results) == 0 {
		return airquality.Location{}, fmt.Errorf("%w: %q", airquality.ErrLocationNotFound, name)
	}

	loc = airquality.Location{Name: results[0].Name, Lat: results[0].Lat, Lon: results[0].Lon}
	if loc.Name == "" {
		loc.Name = name
	}
	return loc, nil
}

// FetchCurrent returns the current air pollution reading at lat, lon.
// Components missing from the response are left nil.
func (c *Client) FetchCurrent(ctx context.Context, lat, lon float64) (r *airquality.Reading, err error) {
	if c.apiKey == "" {
		return nil, airquality.ErrProviderNotConfigured
	}
	start := time.Now()
	defer func() { c.metrics.RecordRequest(ProviderName, "air_pollution", time.Since(start), err) }()

	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lon", fmt.Sprintf("%f", lon))
	q.Set("appid", c.apiKey)

	var resp airPollutionResponse
	if err := c.get(ctx, c.airPollutionURL+"?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	if len(resp.List) == 0 {
		return nil, fmt.Errorf("%w: empty air pollution response", airquality.ErrProviderUnavailable)
	}

	item := resp.List[0]
	component := func(key string) *float64 {
		v, ok := item.Components[key]
		if !ok {
			return nil
		}
		return airquality.Float(airquality.Round2(v))
	}

	return &airquality.Reading{
		AQI:      airquality.IndexToAQI(item.Main.AQI),
		AQIIndex: item.Main.AQI,
		PM25:     component("pm2_5"),
		PM10:     component("pm10"),
		CO:       component("co"),
		NO2:      component("no2"),
		O3:       component("o3"),
		SO2:      component("so2"),
	}, nil
}

func (c *Client) get(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// The request URL holds the API key and must not reach callers.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fmt.Errorf("%w: %w", airquality.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("provider", ProviderName).
			Msg("unexpected provider status")
		return fmt.Errorf("%w: unexpected status code: %d", airquality.ErrProviderUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %w", airquality.ErrProviderUnavailable, err)
	}
	return nil
}

var _ airquality.Provider = (*Client)(nil)
