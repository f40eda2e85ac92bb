// Package preference manages per-location alert subscriptions.
package preference

import (
	"errors"
	"time"

	"github.com/aqmonitor/aqmonitor/internal/airquality"
)

// ErrPreferenceNotFound is returned for an unknown preference id.
var ErrPreferenceNotFound = errors.New("preference not found")

// Thresholds holds one value per alertable quantity.
type Thresholds struct {
	AQI  int
	PM25 float64
	PM10 float64
	NO2  float64
	O3   float64
	SO2  float64
	CO   float64
}

// DefaultThresholds apply to any threshold not given on create.
var DefaultThresholds = Thresholds{
	AQI:  150,
	PM25: 35.4,
	PM10: 154.0,
	NO2:  100.0,
	O3:   100.0,
	SO2:  75.0,
	CO:   10000.0,
}

// Preference is one alert subscription for a location.
type Preference struct {
	ID             int64
	Location       string
	Email          *string
	AlertThreshold int
	PM25Threshold  float64
	PM10Threshold  float64
	NO2Threshold   float64
	O3Threshold    float64
	SO2Threshold   float64
	COThreshold    float64
	EmailEnabled   bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Threshold returns the stored threshold for pollutant p.
func (p *Preference) Threshold(pol airquality.Pollutant) float64 {
	switch pol {
	case airquality.PM25:
		return p.PM25Threshold
	case airquality.PM10:
		return p.PM10Threshold
	case airquality.NO2:
		return p.NO2Threshold
	case airquality.O3:
		return p.O3Threshold
	case airquality.SO2:
		return p.SO2Threshold
	case airquality.CO:
		return p.COThreshold
	}
	return 0
}

// Recipient returns the address alerts go to, or "" when the preference
// cannot receive email.
func (p *Preference) Recipient() string {
	if !p.EmailEnabled || p.Email == nil {
		return ""
	}
	return *p.Email
}
