package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aqmonitor/aqmonitor/internal/airquality"
	"github.com/aqmonitor/aqmonitor/internal/alert"
	"github.com/aqmonitor/aqmonitor/internal/api/models"
	"github.com/aqmonitor/aqmonitor/internal/api/response"
	"github.com/aqmonitor/aqmonitor/internal/metrics"
	"github.com/aqmonitor/aqmonitor/internal/notify"
	"github.com/aqmonitor/aqmonitor/internal/preference"
)

// Test alert defaults.
const (
	testAlertLocation = "Test City"
	testAlertAQI      = 175
)

// LocationChecker runs fetch-then-evaluate for one location.
type LocationChecker interface {
	Check(ctx context.Context, location string) (*alert.CheckResult, error)
}

// AQIAlertSender sends an AQI alert email.
type AQIAlertSender interface {
	SendAQIAlert(ctx context.Context, email, location string, aqi int, reading *airquality.Reading) error
}

// AlertHandlerConfig holds the dependencies of AlertHandler.
type AlertHandlerConfig struct {
	Checker LocationChecker
	Sender  AQIAlertSender
	Metrics *metrics.Metrics
	Logger  zerolog.Logger
}

// AlertHandler handles alert endpoints.
type AlertHandler struct {
	checker LocationChecker
	sender  AQIAlertSender
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(cfg AlertHandlerConfig) *AlertHandler {
	return &AlertHandler{
		checker: cfg.Checker,
		sender:  cfg.Sender,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}
}

// GetThresholds handles GET /api/alerts/thresholds - the default thresholds.
func (h *AlertHandler) GetThresholds(w http.ResponseWriter, r *http.Request) {
	d := preference.DefaultThresholds
	response.JSON(w, r, http.StatusOK, models.Thresholds{
		AQI:  d.AQI,
		PM25: d.PM25,
		PM10: d.PM10,
		NO2:  d.NO2,
		O3:   d.O3,
		SO2:  d.SO2,
		CO:   d.CO,
	})
}

// SendTestAlert handles POST /api/alerts/test - send one AQI alert built from
// a fixed sample reading.
func (h *AlertHandler) SendTestAlert(w http.ResponseWriter, r *http.Request) {
	var input models.TestAlertRequest
	if err := decodeBody(r, &input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	email := strings.TrimSpace(input.Email)
	if email == "" {
		response.BadRequest(w, r, "email is required", []models.FieldError{
			{Field: "email", Message: "email is required", Code: "required"},
		})
		return
	}
	if !preference.ValidEmail(email) {
		response.BadRequest(w, r, "email is not a valid address", []models.FieldError{preference.InvalidEmail})
		return
	}
	location := testAlertLocation
	if input.Location != nil && strings.TrimSpace(*input.Location) != "" {
		location = strings.TrimSpace(*input.Location)
	}
	aqi := testAlertAQI
	if input.AQI != nil {
		aqi = *input.AQI
	}

	if err := h.sender.SendAQIAlert(r.Context(), email, location, aqi, sampleReading(location, aqi)); err != nil {
		h.metrics.AlertFailed(metrics.KindTest)
		h.logger.Error().Err(err).Str("recipient", email).Msg("test alert failed")

		var derr *notify.DeliveryError
		if errors.As(err, &derr) {
			response.DeliveryError(w, r, derr.Err.Error())
			return
		}
		response.InternalError(w, r, err.Error())
		return
	}
	h.metrics.AlertSent(metrics.KindTest)

	response.JSON(w, r, http.StatusOK, models.TestAlertResponse{
		Message:  "Test alert sent to " + email,
		Email:    email,
		Location: location,
		AQI:      aqi,
	})
}

// CheckAlerts handles POST /api/alerts/check - fetch the current reading for
// a location and alert its subscribers.
func (h *AlertHandler) CheckAlerts(w http.ResponseWriter, r *http.Request) {
	var input models.CheckAlertsRequest
	if err := decodeBody(r, &input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	location := strings.TrimSpace(input.Location)
	if location == "" {
		response.BadRequest(w, r, "location is required", []models.FieldError{
			{Field: "location", Message: "location is required", Code: "required"},
		})
		return
	}

	result, err := h.checker.Check(r.Context(), location)
	if err != nil {
		writeFetchError(w, r, err)
		return
	}

	recipients := result.Recipients
	if recipients == nil {
		recipients = []string{}
	}
	response.JSON(w, r, http.StatusOK, models.CheckAlertsResponse{
		Data:       toReading(result.Reading),
		AlertsSent: len(recipients),
		Recipients: recipients,
	})
}

func sampleReading(location string, aqi int) *airquality.Reading {
	return &airquality.Reading{
		Location: location,
		AQI:      aqi,
		PM25:     airquality.Float(55.5),
		PM10:     airquality.Float(120.0),
		CO:       airquality.Float(400.0),
		NO2:      airquality.Float(45.0),
		O3:       airquality.Float(80.0),
		SO2:      airquality.Float(10.0),
	}
}
