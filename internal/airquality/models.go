// Package airquality fetches, classifies and stores air quality readings.
package airquality

import (
	"errors"
	"math"
	"time"
)

var (
	// ErrLocationNotFound means the provider could not resolve the location name.
	ErrLocationNotFound = errors.New("location not found")

	// ErrProviderNotConfigured means no provider API key is set.
	ErrProviderNotConfigured = errors.New("air quality provider is not configured")

	// ErrProviderUnavailable wraps failed provider calls.
	ErrProviderUnavailable = errors.New("air quality provider unavailable")
)

// Pollutant identifies one concentration carried by a Reading.
type Pollutant string

const (
	PM25 Pollutant = "pm25"
	PM10 Pollutant = "pm10"
	CO   Pollutant = "co"
	NO2  Pollutant = "no2"
	O3   Pollutant = "o3"
	SO2  Pollutant = "so2"
)

// Pollutants lists every pollutant in display order.
var Pollutants = []Pollutant{PM25, PM10, CO, NO2, O3, SO2}

// Label returns the human readable pollutant name.
func (p Pollutant) Label() string {
	switch p {
	case PM25:
		return "PM2.5"
	case PM10:
		return "PM10"
	case CO:
		return "CO"
	case NO2:
		return "NO₂"
	case O3:
		return "O₃"
	case SO2:
		return "SO₂"
	}
	return string(p)
}

// Location is a geocoded place.
type Location struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Reading is one stored air quality snapshot. Concentrations are in µg/m³;
// a nil concentration means the provider did not report it.
type Reading struct {
	ID       int64
	Location string
	AQI      int

	// AQIIndex is the provider's 1-5 index. It is not persisted.
	AQIIndex int

	PM25 *float64
	PM10 *float64
	CO   *float64
	NO2  *float64
	O3   *float64
	SO2  *float64

	Timestamp time.Time
}

// Value returns the concentration of p and whether it was reported.
func (r *Reading) Value(p Pollutant) (float64, bool) {
	var v *float64
	switch p {
	case PM25:
		v = r.PM25
	case PM10:
		v = r.PM10
	case CO:
		v = r.CO
	case NO2:
		v = r.NO2
	case O3:
		v = r.O3
	case SO2:
		v = r.SO2
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

// Float returns a pointer to v, for building readings.
func Float(v float64) *float64 {
	return &v
}

var indexToAQI = map[int]int{1: 25, 2: 75, 3: 125, 4: 175, 5: 250}

// IndexToAQI converts the provider's 1-5 index to an approximate US AQI.
// Values outside 1-5 scale linearly by 50.
func IndexToAQI(index int) int {
	if aqi, ok := indexToAQI[index]; ok {
		return aqi
	}
	return index * 50
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
