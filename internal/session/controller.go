package session

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/weather-session/internal/common"
	"github.com/i474232898/weather-session/internal/metrics"
	"github.com/i474232898/weather-session/internal/store"
	"github.com/i474232898/weather-session/internal/weather"
)

// DefaultCity is fetched while the store holds no city.
const DefaultCity = "Karachi"

var ErrAlreadyRunning = errors.New("session controller is already running")

type slot int

const (
	slotWeather slot = iota
	slotForecast
	slotCount
)

func (s slot) String() string {
	if s == slotWeather {
		return "weather"
	}
	return "forecast"
}

// fetchRequest starts new requests for the given slots. An empty city means
// the selected one.
type fetchRequest struct {
	city  string
	slots []slot
}

type fetchResult struct {
	slot     slot
	gen      uint64
	city     string
	snapshot weather.WeatherSnapshot
	forecast weather.ForecastSeries
	err      error
}

type Option func(*Controller)

// WithAPIKey sets the credential passed with every query.
func WithAPIKey(apiKey string) Option {
	return func(c *Controller) {
		c.apiKey = apiKey
	}
}

func WithUnits(units string) Option {
	return func(c *Controller) {
		if units != "" {
			c.units = units
		}
	}
}

func WithDefaultCity(city string) Option {
	return func(c *Controller) {
		if city = strings.TrimSpace(city); city != "" {
			c.defaultCity = city
		}
	}
}

func WithRecorder(rec metrics.Recorder) Option {
	return func(c *Controller) {
		if rec != nil {
			c.metrics = rec
		}
	}
}

// Controller owns the session state. All transitions happen on the goroutine
// running Run; public methods only enqueue events. Each fetch slot carries a
// generation number and results from superseded requests are dropped, so the
// latest request wins regardless of arrival order. In-flight requests are
// never cancelled.
type Controller struct {
	fetcher weather.Fetcher
	store   store.Store
	log     *zap.SugaredLogger
	metrics metrics.Recorder
	now     func() time.Time

	apiKey      string
	units       string
	defaultCity string

	events  chan any
	done    chan struct{}
	running atomic.Bool
	hub     *common.Broadcaster[State]

	// Owned by the Run goroutine.
	state    State
	gens     [slotCount]uint64
	inFlight [slotCount]bool
}

func NewController(fetcher weather.Fetcher, st store.Store, log *zap.SugaredLogger, opts ...Option) *Controller {
	c := &Controller{
		fetcher:     fetcher,
		store:       st,
		log:         log,
		metrics:     metrics.Noop{},
		now:         time.Now,
		units:       weather.DefaultUnits,
		defaultCity: DefaultCity,
		events:      make(chan any, 32),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.state = State{
		SessionID: uuid.NewString(),
		Phase:     PhaseIdle,
		UpdatedAt: c.now().UTC(),
	}
	c.hub = common.NewBroadcaster(c.state)
	return c
}

// Run subscribes to the city store and processes events until ctx is done.
// It can be called once.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(c.done)

	c.log.Infow("session started", "session", c.state.SessionID, "defaultCity", c.defaultCity, "units", c.units)

	cities := c.store.ObserveCity(ctx)
	for {
		select {
		case <-ctx.Done():
			c.log.Infow("session stopped", "session", c.state.SessionID)
			return ctx.Err()

		case city, ok := <-cities:
			if !ok {
				cities = nil
				continue
			}
			c.onCity(ctx, city)

		case ev := <-c.events:
			switch ev := ev.(type) {
			case fetchRequest:
				c.startFetch(ctx, ev.city, ev.slots...)
			case fetchResult:
				c.settle(ev)
			}
		}
	}
}

// State returns the latest published state.
func (c *Controller) State() State {
	return c.hub.Current()
}

// Subscribe delivers the current state and every later transition. Slow
// readers skip intermediate states.
func (c *Controller) Subscribe(ctx context.Context) <-chan State {
	return c.hub.Subscribe(ctx)
}

// FetchWeather refreshes the current-weather slot. A blank city means the
// selected one.
func (c *Controller) FetchWeather(city string) {
	c.enqueue(fetchRequest{city: city, slots: []slot{slotWeather}})
}

// FetchForecast refreshes the forecast slot. A blank city means the selected one.
func (c *Controller) FetchForecast(city string) {
	c.enqueue(fetchRequest{city: city, slots: []slot{slotForecast}})
}

// Retry refreshes both slots for the selected city.
func (c *Controller) Retry() {
	c.enqueue(fetchRequest{slots: []slot{slotWeather, slotForecast}})
}

// SaveCity writes the city to the store. It does not fetch: the store's
// emission drives the refetch through Run.
func (c *Controller) SaveCity(ctx context.Context, city string) error {
	city = strings.TrimSpace(city)
	if city == "" {
		return store.ErrEmptyCity
	}

	if err := c.store.SaveCity(ctx, city); err != nil {
		c.metrics.IncCitySaves("error")
		c.log.Errorw("saving city failed", "city", city, "error", err)
		return err
	}
	c.metrics.IncCitySaves("ok")
	c.log.Infow("city saved", "city", city)
	return nil
}

func (c *Controller) enqueue(ev any) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

func (c *Controller) onCity(ctx context.Context, v store.City) {
	city := strings.TrimSpace(v.Name)
	if !v.Valid || city == "" {
		city = c.defaultCity
	}
	c.log.Infow("city emitted", "city", city, "saved", v.Valid)
	c.startFetch(ctx, city, slotWeather, slotForecast)
}

// startFetch is a Loading transition: it clears the error and issues one
// request per slot.
func (c *Controller) startFetch(ctx context.Context, city string, slots ...slot) {
	city = strings.TrimSpace(city)
	if city == "" {
		city = c.state.SelectedCity
	}
	if city == "" {
		city = c.defaultCity
	}

	if city != c.state.SelectedCity {
		// Results for another city must not be shown next to this one.
		c.state.Snapshot = nil
		c.state.Forecast = nil
	}
	c.state.SelectedCity = city
	c.state.ErrorMessage = ""

	for _, s := range slots {
		c.gens[s]++
		c.inFlight[s] = true
		go c.fetch(ctx, s, c.gens[s], city)
	}
	c.log.Debugw("fetch started", "city", city, "slots", len(slots))
	c.publish()
}

func (c *Controller) fetch(ctx context.Context, s slot, gen uint64, city string) {
	q := weather.Query{City: city, APIKey: c.apiKey, Units: c.units}
	res := fetchResult{slot: s, gen: gen, city: city}

	switch s {
	case slotWeather:
		res.snapshot, res.err = c.fetcher.FetchCurrentWeather(ctx, q)
	case slotForecast:
		res.forecast, res.err = c.fetcher.FetchForecast(ctx, q)
	}

	select {
	case c.events <- res:
	case <-c.done:
	}
}

func (c *Controller) settle(r fetchResult) {
	if r.gen != c.gens[r.slot] {
		// A newer request for this slot is still in flight.
		c.metrics.IncStaleResults(r.slot.String())
		c.log.Debugw("stale result dropped", "slot", r.slot.String(), "city", r.city, "gen", r.gen, "latest", c.gens[r.slot])
		return
	}
	c.inFlight[r.slot] = false

	switch {
	case r.city != c.state.SelectedCity:
		c.metrics.IncStaleResults(r.slot.String())
		c.log.Debugw("result for previous city dropped", "slot", r.slot.String(), "city", r.city, "selected", c.state.SelectedCity)
	case r.err != nil:
		c.log.Warnw("fetch failed", "slot", r.slot.String(), "city", r.city, "error", r.err)
		c.state.ErrorMessage = FailureMessage
	case r.slot == slotWeather:
		snapshot := r.snapshot
		c.state.Snapshot = &snapshot
	default:
		c.state.Forecast = r.forecast
	}
	c.publish()
}

func (c *Controller) publish() {
	c.state.IsLoading = c.inFlight[slotWeather] || c.inFlight[slotForecast]
	c.state.Phase = phaseOf(c.state)
	c.state.UpdatedAt = c.now().UTC()
	c.hub.Publish(c.state)
}
