package preference

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores preferences in the user_preferences table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a PostgreSQL preference store.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const selectPreference = `
	SELECT
		id, location, email, alert_threshold,
		pm25_threshold, pm10_threshold, no2_threshold, o3_threshold,
		so2_threshold, co_threshold, email_enabled,
		created_at, updated_at
	FROM user_preferences
`

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*Preference, error) {
	p, err := scanPreference(r.pool.QueryRow(ctx, selectPreference+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPreferenceNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*Preference, error) {
	rows, err := r.pool.Query(ctx, selectPreference+` ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*Preference, 0)
	for rows.Next() {
		p, err := scanPreference(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Create(ctx context.Context, p *Preference) error {
	query := `
		INSERT INTO user_preferences (
			location, email, alert_threshold,
			pm25_threshold, pm10_threshold, no2_threshold, o3_threshold,
			so2_threshold, co_threshold, email_enabled,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	return r.pool.QueryRow(ctx, query,
		p.Location, p.Email, p.AlertThreshold,
		p.PM25Threshold, p.PM10Threshold, p.NO2Threshold, p.O3Threshold,
		p.SO2Threshold, p.COThreshold, p.EmailEnabled,
		p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
}

func (r *PostgresRepository) Update(ctx context.Context, p *Preference) error {
	query := `
		UPDATE user_preferences SET
			location = $2,
			email = $3,
			alert_threshold = $4,
			pm25_threshold = $5,
			pm10_threshold = $6,
			no2_threshold = $7,
			o3_threshold = $8,
			so2_threshold = $9,
			co_threshold = $10,
			email_enabled = $11,
			updated_at = $12
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		p.ID, p.Location, p.Email, p.AlertThreshold,
		p.PM25Threshold, p.PM10Threshold, p.NO2Threshold, p.O3Threshold,
		p.SO2Threshold, p.COThreshold, p.EmailEnabled, p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrPreferenceNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM user_preferences WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrPreferenceNotFound
	}
	return nil
}

func (r *PostgresRepository) DistinctLocations(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT location FROM user_preferences ORDER BY location`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var loc string
		if err := rows.Scan(&loc); err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

func scanPreference(row pgx.Row) (*Preference, error) {
	var p Preference
	err := row.Scan(
		&p.ID, &p.Location, &p.Email, &p.AlertThreshold,
		&p.PM25Threshold, &p.PM10Threshold, &p.NO2Threshold, &p.O3Threshold,
		&p.SO2Threshold, &p.COThreshold, &p.EmailEnabled,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

var _ Repository = (*PostgresRepository)(nil)
