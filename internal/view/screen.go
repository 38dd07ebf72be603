package view

import (
	"math"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/i474232898/weather-session/internal/session"
	"github.com/i474232898/weather-session/internal/weather"
)

// HourlyLimit caps the hourly strip.
const HourlyLimit = 24

const (
	hourLayout    = "03:04 PM"
	weekdayLayout = "Mon"
)

type Kind string

const (
	KindSpinner Kind = "spinner"
	KindError   Kind = "error"
	KindData    Kind = "data"
)

type Action string

const (
	ActionRetry    Action = "retry"
	ActionRelocate Action = "relocate"
)

// Screen is exactly one of spinner, error or data.
type Screen struct {
	Kind  Kind       `json:"kind"`
	City  string     `json:"city,omitempty"`
	Error *ErrorView `json:"error,omitempty"`
	Data  *DataView  `json:"data,omitempty"`
}

type ErrorView struct {
	Message string   `json:"message"`
	Actions []Action `json:"actions"`
}

type DataView struct {
	Location    string            `json:"location"`
	Temperature int               `json:"temperature"`
	Description string            `json:"description"`
	Condition   weather.Condition `json:"condition"`
	Humidity    int               `json:"humidity"`
	WindSpeed   float64           `json:"windSpeed"`
	Today       TodayView         `json:"today"`
	Hourly      []HourView        `json:"hourly"`
}

// TodayView summarizes the forecast points dated today. Min and Max are nil
// when there are none.
type TodayView struct {
	Weekday string `json:"weekday"`
	Min     *int   `json:"min,omitempty"`
	Max     *int   `json:"max,omitempty"`
}

type HourView struct {
	Time        string            `json:"time"`
	Description string            `json:"description"`
	Temperature int               `json:"temperature"`
	Condition   weather.Condition `json:"condition"`
}

// Render maps a session state to a screen. Loading wins over an error, and an
// error wins over data.
func Render(s session.State, now time.Time) Screen {
	switch {
	case s.IsLoading:
		return Screen{Kind: KindSpinner, City: s.SelectedCity}
	case s.Failed():
		return Screen{
			Kind: KindError,
			City: s.SelectedCity,
			Error: &ErrorView{
				Message: s.ErrorMessage,
				Actions: []Action{ActionRetry, ActionRelocate},
			},
		}
	case s.Snapshot != nil:
		return Screen{Kind: KindData, City: s.SelectedCity, Data: renderData(s, now)}
	default:
		// Nothing fetched yet.
		return Screen{Kind: KindSpinner, City: s.SelectedCity}
	}
}

func renderData(s session.State, now time.Time) *DataView {
	snap := s.Snapshot
	data := &DataView{
		Location:    snap.LocationName,
		Temperature: round(snap.TemperatureC),
		Description: capitalize(snap.Description),
		Condition:   weather.ConditionFromIcon(snap.IconID),
		Humidity:    snap.HumidityPct,
		WindSpeed:   snap.WindSpeed,
		Today:       TodayView{Weekday: now.Format(weekdayLayout)},
		Hourly:      make([]HourView, 0, HourlyLimit),
	}

	if lo, hi, ok := s.Forecast.OnDate(now).TemperatureRange(); ok {
		low, high := round(lo), round(hi)
		data.Today.Min, data.Today.Max = &low, &high
	}

	for _, p := range s.Forecast.Head(HourlyLimit) {
		label := p.Timestamp
		if ts, err := p.Time(); err == nil {
			label = ts.Format(hourLayout)
		}
		data.Hourly = append(data.Hourly, HourView{
			Time:        label,
			Description: capitalize(p.Description),
			Temperature: round(p.TemperatureC),
			Condition:   weather.ConditionFromIcon(p.IconID),
		})
	}
	return data
}

func round(v float64) int {
	return int(math.Round(v))
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
