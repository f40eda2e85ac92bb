// Package app wires the configured stores, provider and services shared by
// the API and worker binaries.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/aqmonitor/aqmonitor/internal/airquality"
	"github.com/aqmonitor/aqmonitor/internal/airquality/openweathermap"
	"github.com/aqmonitor/aqmonitor/internal/alert"
	"github.com/aqmonitor/aqmonitor/internal/cache"
	"github.com/aqmonitor/aqmonitor/internal/config"
	"github.com/aqmonitor/aqmonitor/internal/database"
	"github.com/aqmonitor/aqmonitor/internal/logging"
	"github.com/aqmonitor/aqmonitor/internal/metrics"
	"github.com/aqmonitor/aqmonitor/internal/notify"
	"github.com/aqmonitor/aqmonitor/internal/preference"
	"github.com/aqmonitor/aqmonitor/internal/provider/resilience"
	"github.com/aqmonitor/aqmonitor/internal/telemetry"
	"github.com/aqmonitor/aqmonitor/internal/worker"
)

// App holds the wired services of one process.
type App struct {
	Readings    *airquality.Service
	Preferences *preference.Service
	Notifier    *notify.Notifier
	Checker     *alert.Checker
	Job         *worker.AlertCheckJob
	Providers   *resilience.Registry
	Metrics     *metrics.Metrics

	// Ping checks the database connection.
	Ping func(ctx context.Context) error

	closers []func() error
}

// Store is an opened database with its repositories.
type Store struct {
	Driver      string
	Readings    airquality.Repository
	Preferences preference.Repository
	Ping        func(ctx context.Context) error
	Close       func() error
}

// OpenStore connects to the database named by cfg.URL and prepares its
// tables.
func OpenStore(ctx context.Context, cfg database.Config) (*Store, error) {
	driver, err := cfg.Driver()
	if err != nil {
		return nil, err
	}

	switch driver {
	case database.DriverPostgres:
		pool, err := database.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return postgresStore(pool), nil

	default:
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath())
		if err != nil {
			return nil, err
		}
		store, err := sqliteStore(db)
		if err != nil {
			_ = database.CloseSQLite(db)
			return nil, err
		}
		return store, nil
	}
}

func postgresStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Driver:      database.DriverPostgres,
		Readings:    airquality.NewPostgresRepository(pool),
		Preferences: preference.NewPostgresRepository(pool),
		Ping:        pool.Ping,
		Close: func() error {
			pool.Close()
			return nil
		},
	}
}

func sqliteStore(db *gorm.DB) (*Store, error) {
	readings, err := airquality.NewSQLiteRepository(db)
	if err != nil {
		return nil, fmt.Errorf("prepare readings table: %w", err)
	}
	prefs, err := preference.NewSQLiteRepository(db)
	if err != nil {
		return nil, fmt.Errorf("prepare preferences table: %w", err)
	}
	return &Store{
		Driver:      database.DriverSQLite,
		Readings:    readings,
		Preferences: prefs,
		Ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		Close: func() error { return database.CloseSQLite(db) },
	}, nil
}

// New opens the store and builds every service from cfg.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{
		Providers: resilience.NewRegistry(),
		Metrics:   metrics.New(),
	}

	store, err := OpenStore(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.closers = append(a.closers, store.Close)
	a.Ping = store.Ping
	log.Info().
		Str("driver", store.Driver).
		Str("url", cfg.Database.Redacted()).
		Msg("database connected")

	geocache, err := geocodeCache(ctx, cfg.Redis, log)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	if closer, ok := geocache.(interface{ Close() error }); ok {
		a.closers = append(a.closers, closer.Close)
	}

	providerMetrics, err := telemetry.NewProviderMetrics()
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("provider metrics: %w", err)
	}

	provider := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:          cfg.Provider.APIKey,
		GeocodingURL:    cfg.Provider.GeocodingURL,
		AirPollutionURL: cfg.Provider.AirPollutionURL,
		HTTPClient: resilience.NewClient(resilience.ClientConfig{
			Name:     openweathermap.ProviderName,
			Timeout:  cfg.Provider.Timeout,
			Retries:  uint64(max(cfg.Provider.MaxRetries, 0)),
			Registry: a.Providers,
		}),
		Metrics: providerMetrics,
		Logger:  logging.WithComponent(log, "openweathermap"),
	})
	if !cfg.Provider.Configured() {
		log.Warn().Msg("OPENWEATHER_API_KEY not set; air quality requests will fail until a key is provided")
	}

	a.Readings = airquality.NewService(airquality.ServiceConfig{
		Provider:     provider,
		Repository:   store.Readings,
		Logger:       logging.WithComponent(log, "airquality"),
		GeocodeCache: geocache,
		GeocodeTTL:   cfg.App.GeocodeTTL,
		Metrics:      a.Metrics,
	})
	a.Preferences = preference.NewService(store.Preferences)

	var mailer notify.Mailer
	if cfg.Mail.Configured() {
		mailer = notify.NewSMTPMailer(cfg.Mail)
	} else {
		log.Warn().Msg("mail credentials not set; alert emails will fail")
	}
	a.Notifier = notify.NewNotifier(notify.NotifierConfig{
		Mailer: mailer,
		Logger: logging.WithComponent(log, "notify"),
	})

	evaluator := alert.NewEvaluator(alert.EvaluatorConfig{
		Preferences: a.Preferences,
		Sender:      a.Notifier,
		Logger:      logging.WithComponent(log, "alert"),
		Metrics:     a.Metrics,
	})
	a.Checker = alert.NewChecker(a.Readings, evaluator)
	a.Job = worker.NewAlertCheckJob(worker.AlertCheckJobConfig{
		Config:    cfg.Scheduler.Job,
		Logger:    logging.WithComponent(log, "scheduler"),
		Locations: a.Preferences,
		Checker:   a.Checker,
		Metrics:   a.Metrics,
	})

	return a, nil
}

// Close releases the database and cache connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

func geocodeCache(ctx context.Context, cfg cache.RedisConfig, log zerolog.Logger) (cache.Cache, error) {
	if cfg.Addr == "" {
		return cache.NewMemory(), nil
	}
	r, err := cache.NewRedis(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	log.Info().Str("addr", cfg.Addr).Msg("redis geocode cache connected")
	return r, nil
}
