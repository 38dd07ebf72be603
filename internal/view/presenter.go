package view

import (
	"context"
	"strings"
	"time"

	"github.com/i474232898/weather-session/internal/session"
	"github.com/i474232898/weather-session/internal/store"
)

// Session is the part of the session controller the presenter drives.
type Session interface {
	State() session.State
	Subscribe(ctx context.Context) <-chan session.State
	SaveCity(ctx context.Context, city string) error
	Retry()
}

// Presenter turns session states into screens and forwards user intents.
type Presenter struct {
	session Session
	now     func() time.Time
}

func NewPresenter(s Session) *Presenter {
	return &Presenter{session: s, now: time.Now}
}

// Screen renders the current state.
func (p *Presenter) Screen() Screen {
	return Render(p.session.State(), p.now())
}

// Watch emits a screen for the current state and for every later change until
// ctx is done.
func (p *Presenter) Watch(ctx context.Context) <-chan Screen {
	states := p.session.Subscribe(ctx)
	out := make(chan Screen)

	go func() {
		defer close(out)
		for s := range states {
			select {
			case out <- Render(s, p.now()):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// OnRequestCityChange saves a new city. The screen updates once the store
// emits it.
func (p *Presenter) OnRequestCityChange(ctx context.Context, city string) error {
	city = strings.TrimSpace(city)
	if city == "" {
		return store.ErrEmptyCity
	}
	return p.session.SaveCity(ctx, city)
}

func (p *Presenter) OnRetry() {
	p.session.Retry()
}
