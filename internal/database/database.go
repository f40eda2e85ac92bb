// Package database opens the PostgreSQL or SQLite store selected by
// DATABASE_URL.
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Drivers selectable through Config.URL.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrUnsupportedURL is returned for a DATABASE_URL with an unknown scheme.
var ErrUnsupportedURL = errors.New("unsupported database url")

// Config holds database connection configuration.
type Config struct {
	// URL is either postgres://... or sqlite:///relative/path.db
	// (sqlite:////abs/path.db for an absolute path).
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Driver returns DriverPostgres or DriverSQLite.
func (c Config) Driver() (string, error) {
	u := strings.ToLower(strings.TrimSpace(c.URL))
	switch {
	case strings.HasPrefix(u, "postgres://"), strings.HasPrefix(u, "postgresql://"):
		return DriverPostgres, nil
	case strings.HasPrefix(u, "sqlite://"):
		return DriverSQLite, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedURL, redact(c.URL))
}

// SQLitePath returns the file path of a sqlite:// URL.
func (c Config) SQLitePath() string {
	u := strings.TrimSpace(c.URL)
	if len(u) >= len("sqlite:///") && strings.EqualFold(u[:len("sqlite:///")], "sqlite:///") {
		return u[len("sqlite:///"):]
	}
	if len(u) >= len("sqlite://") && strings.EqualFold(u[:len("sqlite://")], "sqlite://") {
		return u[len("sqlite://"):]
	}
	return u
}

// Redacted returns the URL with any password removed, for logging.
func (c Config) Redacted() string {
	return redact(c.URL)
}

func redact(url string) string {
	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return url
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return url
	}
	user, _, _ := strings.Cut(creds, ":")
	return scheme + "://" + user + ":***@" + host
}

// Connect creates a new PostgreSQL connection pool.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxOpenConns) //nolint:gosec // bounded by config
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns) //nolint:gosec // bounded by config
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// Schema creates the PostgreSQL tables when they do not exist.
const Schema = `
CREATE TABLE IF NOT EXISTS user_preferences (
	id              BIGSERIAL PRIMARY KEY,
	location        TEXT NOT NULL,
	email           TEXT,
	alert_threshold INTEGER NOT NULL DEFAULT 150,
	pm25_threshold  DOUBLE PRECISION NOT NULL DEFAULT 35.4,
	pm10_threshold  DOUBLE PRECISION NOT NULL DEFAULT 154.0,
	no2_threshold   DOUBLE PRECISION NOT NULL DEFAULT 100.0,
	o3_threshold    DOUBLE PRECISION NOT NULL DEFAULT 100.0,
	so2_threshold   DOUBLE PRECISION NOT NULL DEFAULT 75.0,
	co_threshold    DOUBLE PRECISION NOT NULL DEFAULT 10000.0,
	email_enabled   BOOLEAN NOT NULL DEFAULT FALSE,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_user_preferences_location ON user_preferences (location);

CREATE TABLE IF NOT EXISTS air_quality_data (
	id        BIGSERIAL PRIMARY KEY,
	location  TEXT NOT NULL,
	aqi       INTEGER NOT NULL,
	pm25      DOUBLE PRECISION,
	pm10      DOUBLE PRECISION,
	co        DOUBLE PRECISION,
	no2       DOUBLE PRECISION,
	o3        DOUBLE PRECISION,
	so2       DOUBLE PRECISION,
	timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_air_quality_data_timestamp ON air_quality_data (timestamp);
`

// Migrate applies Schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
