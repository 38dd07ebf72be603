package weather

import (
	"context"
)

// Fetcher abstracts the upstream weather API. Implementations are stateless
// apart from transport guards and return one terminal error per call.
type Fetcher interface {
	FetchCurrentWeather(ctx context.Context, q Query) (WeatherSnapshot, error)
	FetchForecast(ctx context.Context, q Query) (ForecastSeries, error)
}
