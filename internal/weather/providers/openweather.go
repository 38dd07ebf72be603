package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/weather-session/internal/metrics"
	"github.com/i474232898/weather-session/internal/weather"
)

// DefaultBaseURL is the OpenWeatherMap 2.5 API root.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

const (
	endpointWeather  = "weather"
	endpointForecast = "forecast"

	breakerThreshold = 5
)

// OpenWeatherClient implements weather.Fetcher for OpenWeatherMap.
type OpenWeatherClient struct {
	name    string
	apiKey  string
	baseURL string
	units   string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	metrics metrics.Recorder
}

var _ weather.Fetcher = (*OpenWeatherClient)(nil)

type Option func(*OpenWeatherClient)

// WithAPIKey sets the credential used when a Query carries none.
func WithAPIKey(apiKey string) Option {
	return func(c *OpenWeatherClient) {
		c.apiKey = apiKey
	}
}

func WithBaseURL(baseURL string) Option {
	return func(c *OpenWeatherClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithUnits sets the unit system used when a Query carries none.
func WithUnits(units string) Option {
	return func(c *OpenWeatherClient) {
		c.units = units
	}
}

// WithRateLimit throttles outbound calls. A non-positive rps disables the limiter.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *OpenWeatherClient) {
		if rps <= 0 {
			c.httpCfg.Limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.httpCfg.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithRecorder(rec metrics.Recorder) Option {
	return func(c *OpenWeatherClient) {
		if rec != nil {
			c.metrics = rec
		}
	}
}

func NewOpenWeatherClient(client *http.Client, opts ...Option) *OpenWeatherClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerThreshold
		},
	})

	c := &OpenWeatherClient{
		name:    "openweathermap",
		baseURL: DefaultBaseURL,
		units:   weather.DefaultUnits,
		httpCfg: HTTPClientConfig{Client: client},
		circuit: cb,
		metrics: metrics.Noop{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (p *OpenWeatherClient) Name() string {
	return p.name
}

type mainBlock struct {
	Temp     float64 `json:"temp"`
	Humidity int     `json:"humidity"`
}

type conditionBlock struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type currentWeatherResponse struct {
	Main    *mainBlock       `json:"main"`
	Weather []conditionBlock `json:"weather"`
	Wind    struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Name string `json:"name"`
}

type forecastResponse struct {
	List *[]struct {
		Main    *mainBlock       `json:"main"`
		Weather []conditionBlock `json:"weather"`
		DtTxt   string           `json:"dt_txt"`
	} `json:"list"`
}

// FetchCurrentWeather issues GET {base}/weather for q.City.
func (p *OpenWeatherClient) FetchCurrentWeather(ctx context.Context, q weather.Query) (snapshot weather.WeatherSnapshot, err error) {
	start := time.Now()
	defer func() {
		p.metrics.ObserveRequest(endpointWeather, outcomeOf(err), time.Since(start))
	}()

	body, err := p.get(ctx, endpointWeather, q)
	if err != nil {
		return weather.WeatherSnapshot{}, err
	}

	var payload currentWeatherResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return weather.WeatherSnapshot{}, &weather.DecodeError{Endpoint: endpointWeather, Err: err}
	}
	if payload.Main == nil {
		return weather.WeatherSnapshot{}, &weather.DecodeError{Endpoint: endpointWeather, Err: errors.New("missing main block")}
	}
	if len(payload.Weather) == 0 {
		return weather.WeatherSnapshot{}, &weather.DecodeError{Endpoint: endpointWeather, Err: errors.New("missing weather conditions")}
	}

	return weather.WeatherSnapshot{
		LocationName: payload.Name,
		TemperatureC: payload.Main.Temp,
		HumidityPct:  payload.Main.Humidity,
		WindSpeed:    payload.Wind.Speed,
		Description:  payload.Weather[0].Description,
		IconID:       payload.Weather[0].Icon,
		FetchedAt:    time.Now().UTC(),
	}, nil
}

// FetchForecast issues GET {base}/forecast for q.City: 5 days at 3-hour steps.
func (p *OpenWeatherClient) FetchForecast(ctx context.Context, q weather.Query) (series weather.ForecastSeries, err error) {
	start := time.Now()
	defer func() {
		p.metrics.ObserveRequest(endpointForecast, outcomeOf(err), time.Since(start))
	}()

	body, err := p.get(ctx, endpointForecast, q)
	if err != nil {
		return nil, err
	}

	var payload forecastResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &weather.DecodeError{Endpoint: endpointForecast, Err: err}
	}
	if payload.List == nil {
		return nil, &weather.DecodeError{Endpoint: endpointForecast, Err: errors.New("missing list")}
	}

	items := *payload.List
	series = make(weather.ForecastSeries, 0, len(items))
	for i, item := range items {
		if item.Main == nil || len(item.Weather) == 0 {
			return nil, &weather.DecodeError{Endpoint: endpointForecast, Err: fmt.Errorf("list[%d]: incomplete entry", i)}
		}
		point := weather.ForecastPoint{
			Timestamp:    item.DtTxt,
			TemperatureC: item.Main.Temp,
			HumidityPct:  item.Main.Humidity,
			Description:  item.Weather[0].Description,
			IconID:       item.Weather[0].Icon,
		}
		if _, err := point.Time(); err != nil {
			return nil, &weather.DecodeError{Endpoint: endpointForecast, Err: fmt.Errorf("list[%d]: dt_txt: %w", i, err)}
		}
		series = append(series, point)
	}
	return series, nil
}

func (p *OpenWeatherClient) get(ctx context.Context, endpoint string, q weather.Query) ([]byte, error) {
	apiKey := q.APIKey
	if apiKey == "" {
		apiKey = p.apiKey
	}
	if apiKey == "" {
		return nil, weather.ErrMissingAPIKey
	}
	units := q.Units
	if units == "" {
		units = p.units
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("q", q.City)
		values.Set("appid", apiKey)
		values.Set("units", units)

		u := fmt.Sprintf("%s/%s?%s", p.baseURL, endpoint, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	return doRequest(ctx, endpoint, p.httpCfg, p.circuit, buildRequest)
}
