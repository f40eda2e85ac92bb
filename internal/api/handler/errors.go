package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/aqmonitor/aqmonitor/internal/airquality"
	"github.com/aqmonitor/aqmonitor/internal/api/models"
	"github.com/aqmonitor/aqmonitor/internal/api/response"
)

// writeFetchError maps a reading fetch failure to its response.
func writeFetchError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, airquality.ErrLocationNotFound):
		response.NotFound(w, r, err.Error())
	case errors.Is(err, airquality.ErrProviderNotConfigured):
		response.InternalError(w, r, err.Error())
	case errors.Is(err, airquality.ErrProviderUnavailable):
		response.UpstreamError(w, r, err.Error())
	default:
		response.InternalError(w, r, "failed to fetch air quality: "+err.Error())
	}
}

// decodeBody decodes a JSON request body into v. An empty body leaves v
// untouched.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// pathParam returns the unescaped URL parameter key.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func toReading(r *airquality.Reading) models.Reading {
	out := models.Reading{
		ID:        r.ID,
		Location:  r.Location,
		AQI:       r.AQI,
		PM25:      r.PM25,
		PM10:      r.PM10,
		CO:        r.CO,
		NO2:       r.NO2,
		O3:        r.O3,
		SO2:       r.SO2,
		Timestamp: models.Timestamp(r.Timestamp),
	}
	if r.AQIIndex != 0 {
		idx := r.AQIIndex
		out.AQIIndex = &idx
	}
	return out
}

func toRecommendations(rec airquality.Recommendation) models.Recommendations {
	return models.Recommendations{
		Level:          rec.Level,
		Color:          rec.Color,
		Recommendation: rec.Recommendation,
		Activities:     rec.Activities,
	}
}
