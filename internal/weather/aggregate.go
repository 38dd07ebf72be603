package weather

import (
	"strings"
	"time"
)

// OnDate returns the points whose timestamp falls on the calendar date of day,
// keeping the series order. The date of day is taken in day's own location.
func (s ForecastSeries) OnDate(day time.Time) ForecastSeries {
	prefix := day.Format(dateLayout)

	var out ForecastSeries
	for _, p := range s {
		if strings.HasPrefix(p.Timestamp, prefix) {
			out = append(out, p)
		}
	}
	return out
}

// TemperatureRange returns the lowest and highest temperature in the series.
// ok is false for an empty series.
func (s ForecastSeries) TemperatureRange() (lo, hi float64, ok bool) {
	if len(s) == 0 {
		return 0, 0, false
	}

	lo, hi = s[0].TemperatureC, s[0].TemperatureC
	for _, p := range s[1:] {
		if p.TemperatureC < lo {
			lo = p.TemperatureC
		}
		if p.TemperatureC > hi {
			hi = p.TemperatureC
		}
	}
	return lo, hi, true
}

// Head returns at most the first n points.
func (s ForecastSeries) Head(n int) ForecastSeries {
	if n < 0 {
		n = 0
	}
	if len(s) <= n {
		return s
	}
	return s[:n]
}
