package models

// Thresholds is the default threshold table.
type Thresholds struct {
	AQI  int     `json:"aqi"`
	PM25 float64 `json:"pm25"`
	PM10 float64 `json:"pm10"`
	NO2  float64 `json:"no2"`
	O3   float64 `json:"o3"`
	SO2  float64 `json:"so2"`
	CO   float64 `json:"co"`
}

// TestAlertRequest is the body of POST /alerts/test.
type TestAlertRequest struct {
	Email    string  `json:"email"`
	Location *string `json:"location,omitempty"`
	AQI      *int    `json:"aqi,omitempty"`
}

// TestAlertResponse confirms a test alert was sent.
type TestAlertResponse struct {
	Message  string `json:"message"`
	Email    string `json:"email"`
	Location string `json:"location"`
	AQI      int    `json:"aqi"`
}

// CheckAlertsRequest is the body of POST /alerts/check.
type CheckAlertsRequest struct {
	Location string `json:"location"`
}

// CheckAlertsResponse reports a manual alert check.
type CheckAlertsResponse struct {
	Data       Reading  `json:"data"`
	AlertsSent int      `json:"alerts_sent"`
	Recipients []string `json:"recipients"`
}
