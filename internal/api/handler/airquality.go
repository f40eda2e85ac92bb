package handler

import (
	"context"
	"net/http"

	"github.com/aqmonitor/aqmonitor/internal/airquality"
	"github.com/aqmonitor/aqmonitor/internal/api/models"
	"github.com/aqmonitor/aqmonitor/internal/api/response"
)

// ReadingService fetches and lists readings.
type ReadingService interface {
	Fetch(ctx context.Context, location string) (*airquality.Reading, error)
	History(ctx context.Context, location string) ([]*airquality.Reading, error)
}

// AirQualityHandler handles air quality endpoints.
type AirQualityHandler struct {
	readings ReadingService
}

// NewAirQualityHandler creates a new AirQualityHandler.
func NewAirQualityHandler(readings ReadingService) *AirQualityHandler {
	return &AirQualityHandler{readings: readings}
}

// GetCurrent handles GET /api/air-quality/{location} - fetch, store and
// classify the current reading.
func (h *AirQualityHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	location := pathParam(r, "location")

	reading, err := h.readings.Fetch(r.Context(), location)
	if err != nil {
		writeFetchError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.CurrentAirQualityResponse{
		Data:            toReading(reading),
		Recommendations: toRecommendations(airquality.Recommend(reading.AQI)),
	})
}

// GetHistory handles GET /api/air-quality/{location}/history - stored
// readings of the last 24 hours.
func (h *AirQualityHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	location := pathParam(r, "location")

	readings, err := h.readings.History(r.Context(), location)
	if err != nil {
		response.InternalError(w, r, err.Error())
		return
	}

	data := make([]models.Reading, 0, len(readings))
	for _, reading := range readings {
		data = append(data, toReading(reading))
	}
	response.JSON(w, r, http.StatusOK, models.HistoryResponse{
		Location: location,
		Data:     data,
	})
}
