package airquality

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type readingRow struct {
	ID       int64    `gorm:"column:id;primaryKey;autoIncrement"`
	Location string   `gorm:"column:location;type:text;not null"`
	AQI      int      `gorm:"column:aqi;not null"`
	PM25     *float64 `gorm:"column:pm25"`
	PM10     *float64 `gorm:"column:pm10"`
	CO       *float64 `gorm:"column:co"`
	NO2      *float64 `gorm:"column:no2"`
	O3       *float64 `gorm:"column:o3"`
	SO2      *float64 `gorm:"column:so2"`

	// TakenAt is the reading time in unix microseconds.
	TakenAt int64 `gorm:"column:taken_at;not null;index"`
}

func (readingRow) TableName() string {
	return "air_quality_data"
}

// SQLiteRepository stores readings through gorm on SQLite.
type SQLiteRepository struct {
	db *gorm.DB
}

// NewSQLiteRepository migrates the reading table and returns the store.
func NewSQLiteRepository(db *gorm.DB) (*SQLiteRepository, error) {
	if err := db.AutoMigrate(&readingRow{}); err != nil {
		return nil, fmt.Errorf("migrate air_quality_data: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

// Save inserts r.
func (s *SQLiteRepository) Save(ctx context.Context, r *Reading) error {
	row := readingRow{
		Location: r.Location,
		AQI:      r.AQI,
		PM25:     r.PM25,
		PM10:     r.PM10,
		CO:       r.CO,
		NO2:      r.NO2,
		O3:       r.O3,
		SO2:      r.SO2,
		TakenAt:  r.Timestamp.UnixMicro(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	r.ID = row.ID
	return nil
}

// ListSince returns readings taken at or after since, oldest first.
func (s *SQLiteRepository) ListSince(ctx context.Context, since time.Time) ([]*Reading, error) {
	var rows []readingRow
	err := s.db.WithContext(ctx).
		Where("taken_at >= ?", since.UnixMicro()).
		Order("taken_at asc").
		Order("id asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}

	out := make([]*Reading, 0, len(rows))
	for _, row := range rows {
		out = append(out, &Reading{
			ID:        row.ID,
			Location:  row.Location,
			AQI:       row.AQI,
			PM25:      row.PM25,
			PM10:      row.PM10,
			CO:        row.CO,
			NO2:       row.NO2,
			O3:        row.O3,
			SO2:       row.SO2,
			Timestamp: time.UnixMicro(row.TakenAt).UTC(),
		})
	}
	return out, nil
}

var _ Repository = (*SQLiteRepository)(nil)
