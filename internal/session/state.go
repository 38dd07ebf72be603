package session

import (
	"time"

	"github.com/i474232898/weather-session/internal/weather"
)

// Phase is the coarse state of a session.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseFailed  Phase = "failed"
)

// FailureMessage is the only error text surfaced to users. Error kinds are
// not distinguished.
const FailureMessage = "Failed to fetch weather data. Please try again."

// State is a read-only copy of the session published after every transition.
// Snapshot and Forecast are shared between copies and must not be modified.
type State struct {
	SessionID    string                   `json:"sessionId"`
	SelectedCity string                   `json:"selectedCity"`
	Snapshot     *weather.WeatherSnapshot `json:"snapshot,omitempty"`
	Forecast     weather.ForecastSeries   `json:"forecast,omitempty"`
	ErrorMessage string                   `json:"errorMessage,omitempty"`
	IsLoading    bool                     `json:"isLoading"`
	Phase        Phase                    `json:"phase"`
	UpdatedAt    time.Time                `json:"updatedAt"`
}

// Failed reports whether an error message is pending.
func (s State) Failed() bool {
	return s.ErrorMessage != ""
}

func phaseOf(s State) Phase {
	switch {
	case s.IsLoading:
		return PhaseLoading
	case s.Failed():
		return PhaseFailed
	case s.Snapshot != nil || s.Forecast != nil:
		return PhaseReady
	default:
		return PhaseIdle
	}
}
