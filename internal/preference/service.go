package preference

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/aqmonitor/aqmonitor/internal/airquality"
	"github.com/aqmonitor/aqmonitor/internal/api/models"
)

// ValidationError carries the invalid fields of a request.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	return "validation failed: " + e.Errors[0].Message
}

// Service exposes preference CRUD and the location join used by alerting.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a preference service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Create stores a new preference. Thresholds not given take DefaultThresholds.
func (s *Service) Create(ctx context.Context, input *models.PreferenceCreateRequest) (*models.Preference, error) {
	if errs := validateCreate(input); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	now := s.now().UTC()
	p := &Preference{
		Location:       strings.TrimSpace(input.Location),
		Email:          normalizeEmail(input.Email),
		AlertThreshold: intOr(input.AlertThreshold, DefaultThresholds.AQI),
		PM25Threshold:  floatOr(input.PM25Threshold, DefaultThresholds.PM25),
		PM10Threshold:  floatOr(input.PM10Threshold, DefaultThresholds.PM10),
		NO2Threshold:   floatOr(input.NO2Threshold, DefaultThresholds.NO2),
		O3Threshold:    floatOr(input.O3Threshold, DefaultThresholds.O3),
		SO2Threshold:   floatOr(input.SO2Threshold, DefaultThresholds.SO2),
		COThreshold:    floatOr(input.COThreshold, DefaultThresholds.CO),
		EmailEnabled:   input.EmailEnabled != nil && *input.EmailEnabled,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create preference: %w", err)
	}
	out := ToAPI(p)
	return &out, nil
}

// Get returns one preference.
func (s *Service) Get(ctx context.Context, id int64) (*models.Preference, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	out := ToAPI(p)
	return &out, nil
}

// Update applies the supplied fields only. An empty email clears it.
func (s *Service) Update(ctx context.Context, id int64, input *models.PreferenceUpdateRequest) (*models.Preference, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if errs := validateUpdate(input); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	if input.Location != nil {
		p.Location = strings.TrimSpace(*input.Location)
	}
	if input.Email != nil {
		p.Email = normalizeEmail(input.Email)
	}
	if input.AlertThreshold != nil {
		p.AlertThreshold = *input.AlertThreshold
	}
	if input.PM25Threshold != nil {
		p.PM25Threshold = *input.PM25Threshold
	}
	if input.PM10Threshold != nil {
		p.PM10Threshold = *input.PM10Threshold
	}
	if input.NO2Threshold != nil {
		p.NO2Threshold = *input.NO2Threshold
	}
	if input.O3Threshold != nil {
		p.O3Threshold = *input.O3Threshold
	}
	if input.SO2Threshold != nil {
		p.SO2Threshold = *input.SO2Threshold
	}
	if input.COThreshold != nil {
		p.COThreshold = *input.COThreshold
	}
	if input.EmailEnabled != nil {
		p.EmailEnabled = *input.EmailEnabled
	}
	p.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	out := ToAPI(p)
	return &out, nil
}

// Delete removes a preference.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// MatchingLocation returns every preference whose location matches location
// under airquality.MatchLocation.
func (s *Service) MatchingLocation(ctx context.Context, location string) ([]*Preference, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	out := make([]*Preference, 0, len(all))
	for _, p := range all {
		if airquality.MatchLocation(p.Location, location) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Locations returns the distinct tracked locations.
func (s *Service) Locations(ctx context.Context) ([]string, error) {
	return s.repo.DistinctLocations(ctx)
}

// ToAPI converts a preference to its response body.
func ToAPI(p *Preference) models.Preference {
	return models.Preference{
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
		CreatedAt:      models.Timestamp(p.CreatedAt),
		UpdatedAt:      models.Timestamp(p.UpdatedAt),
	}
}

func validateCreate(input *models.PreferenceCreateRequest) []models.FieldError {
	var errs []models.FieldError
	if strings.TrimSpace(input.Location) == "" {
		errs = append(errs, models.FieldError{Field: "location", Message: "location is required", Code: "required"})
	}
	errs = append(errs, validateEmail(input.Email)...)
	errs = append(errs, validateThresholds(input.AlertThreshold, map[string]*float64{
		"pm25_threshold": input.PM25Threshold,
		"pm10_threshold": input.PM10Threshold,
		"no2_threshold":  input.NO2Threshold,
		"o3_threshold":   input.O3Threshold,
		"so2_threshold":  input.SO2Threshold,
		"co_threshold":   input.COThreshold,
	})...)
	return errs
}

func validateUpdate(input *models.PreferenceUpdateRequest) []models.FieldError {
	if input.Empty() {
		return []models.FieldError{{Field: "body", Message: "no fields to update", Code: "required"}}
	}
	var errs []models.FieldError
	if input.Location != nil && strings.TrimSpace(*input.Location) == "" {
		errs = append(errs, models.FieldError{Field: "location", Message: "location must not be empty", Code: "required"})
	}
	errs = append(errs, validateEmail(input.Email)...)
	errs = append(errs, validateThresholds(input.AlertThreshold, map[string]*float64{
		"pm25_threshold": input.PM25Threshold,
		"pm10_threshold": input.PM10Threshold,
		"no2_threshold":  input.NO2Threshold,
		"o3_threshold":   input.O3Threshold,
		"so2_threshold":  input.SO2Threshold,
		"co_threshold":   input.COThreshold,
	})...)
	return errs
}

var thresholdFields = []string{
	"pm25_threshold", "pm10_threshold", "no2_threshold", "o3_threshold", "so2_threshold", "co_threshold",
}

func validateThresholds(aqi *int, pollutants map[string]*float64) []models.FieldError {
	var errs []models.FieldError
	if aqi != nil && *aqi < 0 {
		errs = append(errs, models.FieldError{Field: "alert_threshold", Message: "alert_threshold must be >= 0", Code: "min"})
	}
	for _, field := range thresholdFields {
		if v := pollutants[field]; v != nil && *v < 0 {
			errs = append(errs, models.FieldError{Field: field, Message: field + " must be >= 0", Code: "min"})
		}
	}
	return errs
}

func validateEmail(email *string) []models.FieldError {
	if email == nil || strings.TrimSpace(*email) == "" {
		return nil
	}
	if !ValidEmail(*email) {
		return []models.FieldError{InvalidEmail}
	}
	return nil
}

// InvalidEmail is the field error reported for a malformed address.
var InvalidEmail = models.FieldError{Field: "email", Message: "email is not a valid address", Code: "format"}

// ValidEmail reports whether email parses as a single RFC 5322 address.
func ValidEmail(email string) bool {
	_, err := mail.ParseAddress(strings.TrimSpace(email))
	return err == nil
}

func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	e := strings.TrimSpace(*email)
	if e == "" {
		return nil
	}
	return &e
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
