package preference

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type preferenceRow struct {
	ID             int64   `gorm:"column:id;primaryKey;autoIncrement"`
	Location       string  `gorm:"column:location;type:text;not null;index"`
	Email          *string `gorm:"column:email;type:text"`
	AlertThreshold int     `gorm:"column:alert_threshold;not null"`
	PM25Threshold  float64 `gorm:"column:pm25_threshold;not null"`
	PM10Threshold  float64 `gorm:"column:pm10_threshold;not null"`
	NO2Threshold   float64 `gorm:"column:no2_threshold;not null"`
	O3Threshold    float64 `gorm:"column:o3_threshold;not null"`
	SO2Threshold   float64 `gorm:"column:so2_threshold;not null"`
	COThreshold    float64 `gorm:"column:co_threshold;not null"`
	EmailEnabled   bool    `gorm:"column:email_enabled;not null"`

	// unix microseconds
	CreatedMicros int64 `gorm:"column:created_at;not null"`
	UpdatedMicros int64 `gorm:"column:updated_at;not null"`
}

func (preferenceRow) TableName() string {
	return "user_preferences"
}

// SQLiteRepository stores preferences through gorm on SQLite.
type SQLiteRepository struct {
	db *gorm.DB
}

// NewSQLiteRepository migrates the preference table and returns the store.
func NewSQLiteRepository(db *gorm.DB) (*SQLiteRepository, error) {
	if err := db.AutoMigrate(&preferenceRow{}); err != nil {
		return nil, fmt.Errorf("migrate user_preferences: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id int64) (*Preference, error) {
	var row preferenceRow
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPreferenceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get preference: %w", err)
	}
	return row.toPreference(), nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*Preference, error) {
	var rows []preferenceRow
	if err := r.db.WithContext(ctx).Order("id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	out := make([]*Preference, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toPreference())
	}
	return out, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, p *Preference) error {
	row := fromPreference(p)
	row.ID = 0
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create preference: %w", err)
	}
	p.ID = row.ID
	return nil
}

func (r *SQLiteRepository) Update(ctx context.Context, p *Preference) error {
	row := fromPreference(p)
	result := r.db.WithContext(ctx).
		Model(&preferenceRow{}).
		Where("id = ?", p.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(&row)
	if result.Error != nil {
		return fmt.Errorf("update preference: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPreferenceNotFound
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&preferenceRow{})
	if result.Error != nil {
		return fmt.Errorf("delete preference: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPreferenceNotFound
	}
	return nil
}

func (r *SQLiteRepository) DistinctLocations(ctx context.Context) ([]string, error) {
	var out []string
	err := r.db.WithContext(ctx).
		Model(&preferenceRow{}).
		Distinct("location").
		Order("location asc").
		Pluck("location", &out).Error
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func fromPreference(p *Preference) preferenceRow {
	return preferenceRow{
		ID:             p.ID,
		Location:       p.Location,
		Email:          p.Email,
		AlertThreshold: p.AlertThreshold,
		PM25Threshold:  p.PM25Threshold,
		PM10Threshold:  p.PM10Threshold,
		NO2Threshold:   p.NO2Threshold,
		O3Threshold:    p.O3Threshold,
		SO2Threshold:   p.SO2Threshold,
		COThreshold:    p.COThreshold,
		EmailEnabled:   p.EmailEnabled,
		CreatedMicros:  p.CreatedAt.UnixMicro(),
		UpdatedMicros:  p.UpdatedAt.UnixMicro(),
	}
}

func (row *preferenceRow) toPreference() *Preference {
	return &Preference{
		ID:             row.ID,
		Location:       row.Location,
		Email:          row.Email,
		AlertThreshold: row.AlertThreshold,
		PM25Threshold:  row.PM25Threshold,
		PM10Threshold:  row.PM10Threshold,
		NO2Threshold:   row.NO2Threshold,
		O3Threshold:    row.O3Threshold,
		SO2Threshold:   row.SO2Threshold,
		COThreshold:    row.COThreshold,
		EmailEnabled:   row.EmailEnabled,
		CreatedAt:      time.UnixMicro(row.CreatedMicros).UTC(),
		UpdatedAt:      time.UnixMicro(row.UpdatedMicros).UTC(),
	}
}

var _ Repository = (*SQLiteRepository)(nil)
