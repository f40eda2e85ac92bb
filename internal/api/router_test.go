package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqmonitor/aqmonitor/internal/airquality"
	"github.com/aqmonitor/aqmonitor/internal/airquality/openweathermap"
	"github.com/aqmonitor/aqmonitor/internal/alert"
	"github.com/aqmonitor/aqmonitor/internal/api"
	"github.com/aqmonitor/aqmonitor/internal/api/handler"
	"github.com/aqmonitor/aqmonitor/internal/api/models"
	"github.com/aqmonitor/aqmonitor/internal/cache"
	"github.com/aqmonitor/aqmonitor/internal/metrics"
	"github.com/aqmonitor/aqmonitor/internal/notify"
	"github.com/aqmonitor/aqmonitor/internal/preference"
	"github.com/aqmonitor/aqmonitor/internal/provider/resilience"
)

// fakeOWM serves geocoding for London only and a fixed air pollution reading
// with OpenWeatherMap index aqi (1-5).
func fakeOWM(t *testing.T, aqi int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/geo/1.0/direct":
			if strings.EqualFold(r.URL.Query().Get("q"), "london") {
				_, _ = w.Write([]byte(`[{"name":"London","lat":51.5074,"lon":-0.1278,"country":"GB"}]`))
				return
			}
			_, _ = w.Write([]byte(`[]`))
		case "/data/2.5/air_pollution":
			_, _ = w.Write([]byte(`{"list":[{"main":{"aqi":` + strconv.Itoa(aqi) + `},` +
				`"components":{"co":201.94,"no":0.02,"no2":120.5,"o3":68.66,"so2":0.64,"pm2_5":40.123,"pm10":60.5,"nh3":0.12},` +
				`"dt":1741608000}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

type testEnv struct {
	router   http.Handler
	mailer   *notify.MemoryMailer
	readings *airquality.InMemoryRepository
}

func newTestEnv(t *testing.T, owmIndex int) *testEnv {
	t.Helper()
	return newProviderEnv(t, fakeOWM(t, owmIndex).URL, "test-key")
}

func newProviderEnv(t *testing.T, providerURL, apiKey string) *testEnv {
	t.Helper()
	logger := zerolog.New(io.Discard)

	registry := resilience.NewRegistry()
	provider := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:          apiKey,
		GeocodingURL:    providerURL + "/geo/1.0/direct",
		AirPollutionURL: providerURL + "/data/2.5/air_pollution",
		HTTPClient: resilience.NewClient(resilience.ClientConfig{
			Name:     openweathermap.ProviderName,
			Registry: registry,
		}),
		Logger: logger,
	})

	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg, reg)

	readingRepo := airquality.NewInMemoryRepository()
	readings := airquality.NewService(airquality.ServiceConfig{
		Provider:     provider,
		Repository:   readingRepo,
		Logger:       logger,
		GeocodeCache: cache.NewMemory(),
		Metrics:      m,
	})
	preferences := preference.NewService(preference.NewInMemoryRepository())

	mailer := &notify.MemoryMailer{}
	notifier := notify.NewNotifier(notify.NotifierConfig{Mailer: mailer, Logger: logger})
	evaluator := alert.NewEvaluator(alert.EvaluatorConfig{
		Preferences: preferences,
		Sender:      notifier,
		Logger:      logger,
		Metrics:     m,
	})

	router := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		Metrics:     m,
		Readings:    readings,
		Preferences: preferences,
		Checker:     alert.NewChecker(readings, evaluator),
		Sender:      notifier,
		Ops: handler.OpsHandlerConfig{
			Ping:      func(context.Context) error { return nil },
			Providers: registry,
		},
	})

	return &testEnv{router: router, mailer: mailer, readings: readingRepo}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func createPreference(t *testing.T, env *testEnv, body string) models.Preference {
	t.Helper()
	w := env.do(t, http.MethodPost, "/api/preferences", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p models.Preference
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	return p
}

func TestRouter_HealthCheck(t *testing.T) {
	env := newTestEnv(t, 1)

	w := env.do(t, http.MethodGet, "/api/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var health models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "Air Quality Monitor API is running.", health.Message)
}

func TestRouter_ReadinessCheck(t *testing.T) {
	env := newTestEnv(t, 1)

	w := env.do(t, http.MethodGet, "/api/ready", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var ready models.Readiness
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ready))
	assert.Equal(t, models.HealthStatusOK, ready.Status)
}

func TestRouter_CurrentAirQuality(t *testing.T) {
	env := newTestEnv(t, 3)

	w := env.do(t, http.MethodGet, "/api/air-quality/london", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body models.CurrentAirQualityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "London", body.Data.Location)
	assert.Equal(t, 125, body.Data.AQI)
	require.NotNil(t, body.Data.PM25)
	assert.Equal(t, 40.12, *body.Data.PM25)
	assert.Equal(t, "Unhealthy for Sensitive Groups", body.Recommendations.Level)

	stored, err := env.readings.ListSince(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestRouter_CurrentAirQualityUnknownLocation(t *testing.T) {
	env := newTestEnv(t, 1)

	w := env.do(t, http.MethodGet, "/api/air-quality/Atlantis", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}

func TestRouter_History(t *testing.T) {
	env := newTestEnv(t, 2)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/air-quality/London", "").Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/air-quality/London", "").Code)

	w := env.do(t, http.MethodGet, "/api/air-quality/lond/history", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body models.HistoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "lond", body.Location)
	require.Len(t, body.Data, 2)
	assert.False(t, body.Data[1].Timestamp.Time().Before(body.Data[0].Timestamp.Time()))
}

func TestRouter_PreferenceLifecycle(t *testing.T) {
	env := newTestEnv(t, 1)

	w := env.do(t, http.MethodPost, "/api/preferences", `{"location":"London","email":"a@example.com","email_enabled":true}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.Preference
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "/api/preferences/"+strconv.FormatInt(created.ID, 10), w.Header().Get("Location"))
	assert.Equal(t, 150, created.AlertThreshold)
	assert.Equal(t, 35.4, created.PM25Threshold)
	assert.Equal(t, 10000.0, created.COThreshold)
	assert.True(t, created.EmailEnabled)

	path := "/api/preferences/" + strconv.FormatInt(created.ID, 10)

	w = env.do(t, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPut, path, `{"alert_threshold":100,"email_enabled":false}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated models.Preference
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, 100, updated.AlertThreshold)
	assert.False(t, updated.EmailEnabled)
	assert.Equal(t, "London", updated.Location)

	w = env.do(t, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Preferences deleted"}`, w.Body.String())

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, path, "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, path, "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPut, path, `{"alert_threshold":5}`).Code)
}

func TestRouter_PreferenceValidation(t *testing.T) {
	env := newTestEnv(t, 1)

	tests := []struct {
		name string
		body string
	}{
		{name: "missing location", body: `{"email":"a@example.com"}`},
		{name: "blank location", body: `{"location":"   "}`},
		{name: "bad email", body: `{"location":"London","email":"not-an-email"}`},
		{name: "negative threshold", body: `{"location":"London","pm25_threshold":-1}`},
		{name: "null body", body: `null`},
		{name: "malformed", body: `{"location":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/preferences", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestRouter_PreferenceBadID(t *testing.T) {
	env := newTestEnv(t, 1)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/preferences/abc", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/preferences/999", "").Code)
}

func TestRouter_RejectsNonJSONBody(t *testing.T) {
	env := newTestEnv(t, 1)

	req := httptest.NewRequest(http.MethodPost, "/api/preferences", strings.NewReader("location=London"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestRouter_Thresholds(t *testing.T) {
	env := newTestEnv(t, 1)

	w := env.do(t, http.MethodGet, "/api/alerts/thresholds", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"aqi":150,"pm25":35.4,"pm10":154,"no2":100,"o3":100,"so2":75,"co":10000}`, w.Body.String())
}

func TestRouter_TestAlert(t *testing.T) {
	env := newTestEnv(t, 1)

	w := env.do(t, http.MethodPost, "/api/alerts/test", `{"email":"a@example.com"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Test alert sent to a@example.com")
	assert.Len(t, env.mailer.Messages(), 1)

	w = env.do(t, http.MethodPost, "/api/alerts/test", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_CheckAlerts(t *testing.T) {
	// Index 4 maps to AQI 175, above the default threshold of 150.
	env := newTestEnv(t, 4)

	createPreference(t, env, `{"location":"London","email":"hot@example.com","email_enabled":true}`)
	createPreference(t, env, `{"location":"London","email":"calm@example.com","email_enabled":true,"alert_threshold":200,"no2_threshold":500,"pm25_threshold":50}`)
	createPreference(t, env, `{"location":"London","email":"off@example.com","email_enabled":false}`)
	createPreference(t, env, `{"location":"Paris","email":"paris@example.com","email_enabled":true}`)

	w := env.do(t, http.MethodPost, "/api/alerts/check", `{"location":"london"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body models.CheckAlertsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 175, body.Data.AQI)

	// hot@ gets the AQI alert and one pollutant alert (PM2.5 and NO2).
	assert.Equal(t, []string{"hot@example.com", "hot@example.com"}, body.Recipients)
	assert.Equal(t, 2, body.AlertsSent)

	msgs := env.mailer.Messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Subject, "Air Quality Alert for london")
	assert.Contains(t, msgs[1].Subject, "Pollutant Alert for london")
	assert.Contains(t, msgs[1].Body, "NO₂: 120.5 µg/m³ (threshold: 100.0)")
}

func TestRouter_CheckAlertsValidation(t *testing.T) {
	env := newTestEnv(t, 1)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/alerts/check", `{}`).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/alerts/check", `{"location":"Atlantis"}`).Code)
}

func TestRouter_SystemStatus(t *testing.T) {
	env := newTestEnv(t, 1)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/air-quality/London", "").Code)

	w := env.do(t, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, models.HealthStatusOK, status.Status)
	require.Len(t, status.Providers, 1)
	assert.Equal(t, openweathermap.ProviderName, status.Providers[0].Provider)
	assert.NotNil(t, status.Providers[0].LastSuccessAt)
	assert.Nil(t, status.Scheduler)
}

func TestRouter_UnreachableProviderHidesAPIKey(t *testing.T) {
	const apiKey = "owm-secret-key-123"
	server := httptest.NewServer(http.NotFoundHandler())
	providerURL := server.URL
	server.Close()

	env := newProviderEnv(t, providerURL, apiKey)

	rec := env.do(t, http.MethodGet, "/api/air-quality/London", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.NotContains(t, rec.Body.String(), apiKey)
	assert.NotContains(t, rec.Body.String(), "appid")

	rec = env.do(t, http.MethodPost, "/api/alerts/check", `{"location":"London"}`)
	assert.NotContains(t, rec.Body.String(), apiKey)

	rec = env.do(t, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "request failed")
	assert.NotContains(t, rec.Body.String(), apiKey)
	assert.NotContains(t, rec.Body.String(), "appid")
}

func TestRouter_Metrics(t *testing.T) {
	env := newTestEnv(t, 1)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/air-quality/London", "").Code)

	w := env.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "aqmonitor_readings_fetched_total")
}

func TestRouter_CORS(t *testing.T) {
	env := newTestEnv(t, 1)

	req := httptest.NewRequest(http.MethodOptions, "/api/preferences", http.NoBody)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_RequestID_Generated(t *testing.T) {
	env := newTestEnv(t, 1)

	w := env.do(t, http.MethodGet, "/api/health", "")

	requestID := w.Header().Get("X-Request-Id")
	assert.NotEmpty(t, requestID)
	assert.Contains(t, requestID, "req_")
}

func TestRouter_RequestID_Preserved(t *testing.T) {
	env := newTestEnv(t, 1)

	req := httptest.NewRequest(http.MethodGet, "/api/health", http.NoBody)
	req.Header.Set("X-Request-Id", "custom_request_id")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, "custom_request_id", w.Header().Get("X-Request-Id"))
}

func TestRouter_NotFound(t *testing.T) {
	env := newTestEnv(t, 1)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/nonexistent", "").Code)
}
