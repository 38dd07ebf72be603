package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for upstream requests.
const (
	OutcomeOK      = "ok"
	OutcomeNetwork = "network"
	OutcomeHTTP    = "http"
	OutcomeDecode  = "decode"
	OutcomeOther   = "other"
)

type Recorder interface {
	ObserveRequest(endpoint, outcome string, duration time.Duration)
	IncStaleResults(slot string)
	IncCitySaves(outcome string)
}

type Provider struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	staleResults    *prometheus.CounterVec
	citySaves       *prometheus.CounterVec
}

// New registers the collectors on reg. Passing a nil registerer disables metrics.
func New(reg prometheus.Registerer) Recorder {
	if reg == nil {
		return Noop{}
	}
	factory := promauto.With(reg)

	return &Provider{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "weather_upstream_requests_total",
			Help: "Total number of upstream weather API requests",
		}, []string{"endpoint", "outcome"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "weather_upstream_request_duration_seconds",
			Help:    "Upstream weather API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		staleResults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "weather_session_stale_results_total",
			Help: "Fetch results discarded because a newer request superseded them",
		}, []string{"slot"}),

		citySaves: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "weather_session_city_saves_total",
			Help: "City preference writes by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Provider) ObserveRequest(endpoint, outcome string, duration time.Duration) {
	m.requestsTotal.WithLabelValues(endpoint, outcome).Inc()
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *Provider) IncStaleResults(slot string) {
	m.staleResults.WithLabelValues(slot).Inc()
}

func (m *Provider) IncCitySaves(outcome string) {
	m.citySaves.WithLabelValues(outcome).Inc()
}

// Noop is used when metrics are disabled.
type Noop struct{}

func (Noop) ObserveRequest(_, _ string, _ time.Duration) {}
func (Noop) IncStaleResults(_ string)                    {}
func (Noop) IncCitySaves(_ string)                       {}
