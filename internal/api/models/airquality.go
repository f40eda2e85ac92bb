package models

// Reading is a stored air quality reading.
type Reading struct {
	ID        int64     `json:"id"`
	Location  string    `json:"location"`
	AQI       int       `json:"aqi"`
	AQIIndex  *int      `json:"aqi_index,omitempty"`
	PM25      *float64  `json:"pm25"`
	PM10      *float64  `json:"pm10"`
	CO        *float64  `json:"co"`
	NO2       *float64  `json:"no2"`
	O3        *float64  `json:"o3"`
	SO2       *float64  `json:"so2"`
	Timestamp Timestamp `json:"timestamp"`
}

// Recommendations is the health advice attached to a reading.
type Recommendations struct {
	Level          string   `json:"level"`
	Color          string   `json:"color"`
	Recommendation string   `json:"recommendation"`
	Activities     []string `json:"activities"`
}

// CurrentAirQualityResponse is the body of GET /air-quality/{location}.
type CurrentAirQualityResponse struct {
	Data            Reading         `json:"data"`
	Recommendations Recommendations `json:"recommendations"`
}

// HistoryResponse is the body of GET /air-quality/{location}/history.
type HistoryResponse struct {
	Location string    `json:"location"`
	Data     []Reading `json:"data"`
}
