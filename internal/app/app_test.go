package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/i474232898/weather-session/internal/config"
	"github.com/i474232898/weather-session/internal/metrics"
	"github.com/i474232898/weather-session/internal/scheduler"
	"github.com/i474232898/weather-session/internal/session"
	"github.com/i474232898/weather-session/internal/store"
	"github.com/i474232898/weather-session/internal/view"
	"github.com/i474232898/weather-session/internal/weather"
)

type stubFetcher struct{}

func (stubFetcher) FetchCurrentWeather(_ context.Context, q weather.Query) (weather.WeatherSnapshot, error) {
	return weather.WeatherSnapshot{LocationName: q.City, TemperatureC: 30, Description: "haze", IconID: "50d"}, nil
}

func (stubFetcher) FetchForecast(context.Context, weather.Query) (weather.ForecastSeries, error) {
	return weather.ForecastSeries{}, nil
}

func newTestApp(t *testing.T, metricsEnabled bool) *App {
	t.Helper()
	log := zap.NewNop().Sugar()
	cfg := &config.AppConfig{Port: "0", MetricsEnabled: metricsEnabled}

	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)
	rec.IncCitySaves("ok")

	controller := session.NewController(stubFetcher{}, store.NewMemoryStore(), log, session.WithRecorder(rec))
	return New(cfg, log, controller, view.NewPresenter(controller), scheduler.New(nil, 0, log), reg)
}

func get(t *testing.T, a *App, target string) (int, []byte) {
	t.Helper()
	resp, err := a.Fiber().Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestHealth(t *testing.T) {
	a := newTestApp(t, true)

	status, body := get(t, a, "/health")
	assert.Equal(t, http.StatusOK, status)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "ok", payload["status"])
	assert.Equal(t, serviceName, payload["service"])
	assert.NotEmpty(t, payload["session"])
}

func TestMetricsRoute(t *testing.T) {
	status, body := get(t, newTestApp(t, true), "/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "weather_session_city_saves_total")

	status, _ = get(t, newTestApp(t, false), "/metrics")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRun_ServesSessionUntilCancelled(t *testing.T) {
	a := newTestApp(t, false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		return a.controller.State().Phase == session.PhaseReady
	}, 2*time.Second, 10*time.Millisecond)

	status, body := get(t, a, "/api/v1/screen")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"kind":"data"`)
	assert.Contains(t, string(body), `"location":"Karachi"`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
