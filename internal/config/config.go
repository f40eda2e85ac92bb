// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/aqmonitor/aqmonitor/internal/cache"
	"github.com/aqmonitor/aqmonitor/internal/database"
	"github.com/aqmonitor/aqmonitor/internal/logging"
	"github.com/aqmonitor/aqmonitor/internal/notify"
	"github.com/aqmonitor/aqmonitor/internal/worker"
)

// Config is the full service configuration.
type Config struct {
	App       AppConfig
	Log       logging.Config
	Provider  ProviderConfig
	Mail      notify.SMTPConfig
	Database  database.Config
	Scheduler SchedulerConfig
	Redis     cache.RedisConfig
	PubSub    PubSubConfig
	Telemetry TelemetryConfig
}

type AppConfig struct {
	Port           string
	Env            string
	CORSOrigins    []string
	RequireTLS     bool
	GeocodeTTL     time.Duration
	AlertRateLimit int
}

// ProviderConfig configures the OpenWeatherMap client.
type ProviderConfig struct {
	APIKey          string
	GeocodingURL    string
	AirPollutionURL string
	Timeout         time.Duration
	MaxRetries      int
}

// Configured reports whether an API key is set.
func (p ProviderConfig) Configured() bool {
	return p.APIKey != ""
}

// SchedulerConfig controls the periodic alert check. Only one process of a
// deployment should enable it; set SCHEDULER_ENABLED=false on the API when
// the worker runs alongside it.
type SchedulerConfig struct {
	Enabled bool
	Job     worker.JobConfig
}

// SchedulerReady reports whether this process should run the alert check
// ticker: enabled and with a provider key to fetch readings.
func (c *Config) SchedulerReady() bool {
	return c.Scheduler.Enabled && c.Provider.Configured()
}

// PubSubConfig enables the worker's Pub/Sub trigger when both fields are set.
type PubSubConfig struct {
	ProjectID    string
	Subscription string
}

func (p PubSubConfig) Enabled() bool {
	return p.ProjectID != "" && p.Subscription != ""
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
}

// Load reads configuration from the environment, after loading a .env file
// from the working directory when one exists.
func Load() *Config {
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "development")
	return &Config{
		App: AppConfig{
			Port:           getEnv("APP_PORT", "5000"),
			Env:            env,
			CORSOrigins:    getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
			RequireTLS:     getEnvAsBool("REQUIRE_TLS", false),
			GeocodeTTL:     getEnvAsDuration("GEOCODE_CACHE_TTL", 24*time.Hour),
			AlertRateLimit: getEnvAsInt("ALERT_RATE_LIMIT", 10),
		},
		Log: logging.Config{
			Level:       getEnv("LOG_LEVEL", "info"),
			Format:      getEnv("LOG_FORMAT", ""),
			Environment: env,
		},
		Provider: ProviderConfig{
			APIKey:          getEnv("OPENWEATHER_API_KEY", ""),
			GeocodingURL:    getEnv("OPENWEATHER_GEOCODING_URL", ""),
			AirPollutionURL: getEnv("OPENWEATHER_AIR_POLLUTION_URL", ""),
			Timeout:         getEnvAsDuration("PROVIDER_TIMEOUT", 10*time.Second),
			MaxRetries:      getEnvAsInt("PROVIDER_MAX_RETRIES", 0),
		},
		Mail: notify.SMTPConfig{
			Host:     getEnv("MAIL_SERVER", "smtp.gmail.com"),
			Port:     getEnvAsInt("MAIL_PORT", 587),
			Username: getEnv("MAIL_USERNAME", ""),
			Password: getEnv("MAIL_PASSWORD", ""),
			From:     getEnv("MAIL_DEFAULT_SENDER", ""),
		},
		Database: database.Config{
			URL:             getEnv("DATABASE_URL", "sqlite:///data/air_quality.db"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Scheduler: SchedulerConfig{
			Enabled: getEnvAsBool("SCHEDULER_ENABLED", true),
			Job: worker.JobConfig{
				Interval:    getEnvAsDuration("SCHEDULER_INTERVAL", 5*time.Minute),
				Concurrency: getEnvAsInt("SCHEDULER_CONCURRENCY", 1),
				Timeout:     getEnvAsDuration("SCHEDULER_TIMEOUT", time.Minute),
			},
		},
		Redis: cache.RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Prefix:   getEnv("REDIS_PREFIX", "aqmonitor:"),
		},
		PubSub: PubSubConfig{
			ProjectID:    getEnv("PUBSUB_PROJECT_ID", ""),
			Subscription: getEnv("PUBSUB_SUBSCRIPTION", ""),
		},
		Telemetry: TelemetryConfig{
			Enabled:      getEnvAsBool("OTEL_ENABLED", false),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
