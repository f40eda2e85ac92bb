package airquality

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores readings in the air_quality_data table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a PostgreSQL reading store.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Save inserts r.
func (p *PostgresRepository) Save(ctx context.Context, r *Reading) error {
	query := `
		INSERT INTO air_quality_data (location, aqi, pm25, pm10, co, no2, o3, so2, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := p.pool.QueryRow(ctx, query,
		r.Location, r.AQI, r.PM25, r.PM10, r.CO, r.NO2, r.O3, r.SO2, r.Timestamp,
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

// ListSince returns readings taken at or after since, oldest first.
func (p *PostgresRepository) ListSince(ctx context.Context, since time.Time) ([]*Reading, error) {
	query := `
		SELECT id, location, aqi, pm25, pm10, co, no2, o3, so2, timestamp
		FROM air_quality_data
		WHERE timestamp >= $1
		ORDER BY timestamp ASC, id ASC
	`
	rows, err := p.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	out := make([]*Reading, 0)
	for rows.Next() {
		var r Reading
		if err := rows.Scan(&r.ID, &r.Location, &r.AQI, &r.PM25, &r.PM10, &r.CO, &r.NO2, &r.O3, &r.SO2, &r.Timestamp); err != nil {
			return nil, err
		}
		r.Timestamp = r.Timestamp.UTC()
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var _ Repository = (*PostgresRepository)(nil)
