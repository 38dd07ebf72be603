package di

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/i474232898/weather-session/internal/config"
	"github.com/i474232898/weather-session/internal/logging"
	"github.com/i474232898/weather-session/internal/metrics"
	"github.com/i474232898/weather-session/internal/scheduler"
	"github.com/i474232898/weather-session/internal/session"
	"github.com/i474232898/weather-session/internal/store"
	"github.com/i474232898/weather-session/internal/weather"
	"github.com/i474232898/weather-session/internal/weather/providers"
)

func ProvideConfig() (*config.AppConfig, error) {
	return config.Load()
}

func ProvideLogger(cfg *config.AppConfig) (*zap.SugaredLogger, func(), error) {
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return log, func() { _ = log.Sync() }, nil
}

// ProvideRegistry returns a registry carrying the Go runtime and process
// collectors next to the application metrics.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func ProvideRecorder(cfg *config.AppConfig, reg *prometheus.Registry) metrics.Recorder {
	if !cfg.MetricsEnabled {
		return metrics.New(nil)
	}
	return metrics.New(reg)
}

// ProvideHTTPClient builds the shared client for outbound API calls.
func ProvideHTTPClient(cfg *config.AppConfig) *http.Client {
	return &http.Client{Timeout: cfg.HTTPTimeout}
}

func ProvideFetcher(cfg *config.AppConfig, client *http.Client, rec metrics.Recorder) *providers.OpenWeatherClient {
	return providers.NewOpenWeatherClient(client,
		providers.WithAPIKey(cfg.OpenWeatherAPIKey),
		providers.WithBaseURL(cfg.OpenWeatherBaseURL),
		providers.WithUnits(cfg.Units),
		providers.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		providers.WithRecorder(rec),
	)
}

// ProvideFileStore opens the preference file and, when enabled, watches it.
// The cleanup stops the watcher.
func ProvideFileStore(cfg *config.AppConfig, log *zap.SugaredLogger) (*store.FileStore, func(), error) {
	fs, err := store.NewFileStore(cfg.PrefsPath, log)
	if err != nil {
		return nil, nil, err
	}
	if cfg.PrefsWatch {
		if err := fs.Watch(); err != nil {
			// Periodic resync still picks up external edits.
			log.Warnw("preference watch unavailable", "path", fs.Path(), "error", err)
		}
	}
	return fs, func() {
		if err := fs.Close(); err != nil {
			log.Warnw("closing preference watcher", "error", err)
		}
	}, nil
}

func ProvideController(
	cfg *config.AppConfig,
	fetcher weather.Fetcher,
	st store.Store,
	log *zap.SugaredLogger,
	rec metrics.Recorder,
) *session.Controller {
	return session.NewController(fetcher, st, log,
		session.WithAPIKey(cfg.OpenWeatherAPIKey),
		session.WithUnits(cfg.Units),
		session.WithDefaultCity(cfg.DefaultCity),
		session.WithRecorder(rec),
	)
}

func ProvideScheduler(cfg *config.AppConfig, reloader scheduler.Reloader, log *zap.SugaredLogger) *scheduler.Scheduler {
	return scheduler.New(reloader, cfg.PrefsResyncInterval, log)
}
