package models

// Preference is an alert subscription.
type Preference struct {
	ID             int64     `json:"id"`
	Location       string    `json:"location"`
	Email          *string   `json:"email"`
	AlertThreshold int       `json:"alert_threshold"`
	PM25Threshold  float64   `json:"pm25_threshold"`
	PM10Threshold  float64   `json:"pm10_threshold"`
	NO2Threshold   float64   `json:"no2_threshold"`
	O3Threshold    float64   `json:"o3_threshold"`
	SO2Threshold   float64   `json:"so2_threshold"`
	COThreshold    float64   `json:"co_threshold"`
	EmailEnabled   bool      `json:"email_enabled"`
	CreatedAt      Timestamp `json:"created_at"`
	UpdatedAt      Timestamp `json:"updated_at"`
}

// PreferenceCreateRequest is the body of POST /preferences. Omitted
// thresholds take their defaults.
type PreferenceCreateRequest struct {
	Location       string   `json:"location"`
	Email          *string  `json:"email,omitempty"`
	AlertThreshold *int     `json:"alert_threshold,omitempty"`
	PM25Threshold  *float64 `json:"pm25_threshold,omitempty"`
	PM10Threshold  *float64 `json:"pm10_threshold,omitempty"`
	NO2Threshold   *float64 `json:"no2_threshold,omitempty"`
	O3Threshold    *float64 `json:"o3_threshold,omitempty"`
	SO2Threshold   *float64 `json:"so2_threshold,omitempty"`
	COThreshold    *float64 `json:"co_threshold,omitempty"`
	EmailEnabled   *bool    `json:"email_enabled,omitempty"`
}

// PreferenceUpdateRequest is the body of PUT /preferences/{id}. Only
// supplied fields change.
type PreferenceUpdateRequest struct {
	Location       *string  `json:"location,omitempty"`
	Email          *string  `json:"email,omitempty"`
	AlertThreshold *int     `json:"alert_threshold,omitempty"`
	PM25Threshold  *float64 `json:"pm25_threshold,omitempty"`
	PM10Threshold  *float64 `json:"pm10_threshold,omitempty"`
	NO2Threshold   *float64 `json:"no2_threshold,omitempty"`
	O3Threshold    *float64 `json:"o3_threshold,omitempty"`
	SO2Threshold   *float64 `json:"so2_threshold,omitempty"`
	COThreshold    *float64 `json:"co_threshold,omitempty"`
	EmailEnabled   *bool    `json:"email_enabled,omitempty"`
}

// Empty reports whether no field was supplied.
func (r *PreferenceUpdateRequest) Empty() bool {
	return r.Location == nil && r.Email == nil && r.AlertThreshold == nil &&
		r.PM25Threshold == nil && r.PM10Threshold == nil && r.NO2Threshold == nil &&
		r.O3Threshold == nil && r.SO2Threshold == nil && r.COThreshold == nil &&
		r.EmailEnabled == nil
}
