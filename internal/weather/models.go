package weather

import (
	"strings"
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// DefaultUnits is the unit system requested when a Query leaves Units empty.
const DefaultUnits = "metric"

// TimestampLayout is the layout of ForecastPoint.Timestamp (the API's dt_txt).
const TimestampLayout = "2006-01-02 15:04:05"

const dateLayout = "2006-01-02"

// Query identifies one upstream request.
type Query struct {
	City   string
	APIKey string
	Units  string
}

// WeatherSnapshot is a single point-in-time current-weather reading.
// Snapshots are never mutated after construction.
type WeatherSnapshot struct {
	LocationName string    `json:"locationName"`
	TemperatureC float64   `json:"temperatureC"`
	HumidityPct  int       `json:"humidityPercent"`
	WindSpeed    float64   `json:"windSpeed"`
	Description  string    `json:"description"`
	IconID       string    `json:"iconId"`
	FetchedAt    time.Time `json:"fetchedAt"` // always UTC
}

// ForecastPoint is one 3-hour-resolution prediction entry.
type ForecastPoint struct {
	Timestamp    string  `json:"timestamp"`
	TemperatureC float64 `json:"temperatureC"`
	HumidityPct  int     `json:"humidityPercent"`
	Description  string  `json:"description"`
	IconID       string  `json:"iconId"`
}

// Time parses Timestamp. The API reports dt_txt in UTC.
func (p ForecastPoint) Time() (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, p.Timestamp, time.UTC)
}

// ForecastSeries is a forecast in the order returned by the API.
// A series is replaced wholesale, never appended to or sorted.
type ForecastSeries []ForecastPoint

// ConditionFromIcon maps an OpenWeatherMap icon id ("01d", "10n", ...) to a Condition.
// Unrecognized ids fall back to cloudy.
func ConditionFromIcon(icon string) Condition {
	if icon == "" {
		return ConditionUnknown
	}
	switch strings.TrimRight(icon, "dn") {
	case "01":
		return ConditionClear
	case "02", "03", "04":
		return ConditionCloudy
	case "09", "10":
		return ConditionRain
	case "11":
		return ConditionStorm
	case "13":
		return ConditionSnow
	case "50":
		return ConditionMist
	default:
		return ConditionCloudy
	}
}
