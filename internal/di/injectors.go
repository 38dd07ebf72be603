//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"

	"github.com/i474232898/weather-session/internal/app"
	"github.com/i474232898/weather-session/internal/scheduler"
	"github.com/i474232898/weather-session/internal/session"
	"github.com/i474232898/weather-session/internal/store"
	"github.com/i474232898/weather-session/internal/view"
	"github.com/i474232898/weather-session/internal/weather"
	"github.com/i474232898/weather-session/internal/weather/providers"
)

func InitApp() (*app.App, func(), error) {

	wire.Build(
		ProvideConfig,
		ProvideLogger,
		ProvideRegistry,
		ProvideRecorder,
		ProvideHTTPClient,
		ProvideFetcher,
		wire.Bind(new(weather.Fetcher), new(*providers.OpenWeatherClient)),
		ProvideFileStore,
		wire.Bind(new(store.Store), new(*store.FileStore)),
		wire.Bind(new(scheduler.Reloader), new(*store.FileStore)),
		ProvideController,
		wire.Bind(new(view.Session), new(*session.Controller)),
		view.NewPresenter,
		ProvideScheduler,
		app.New,
	)

	return nil, nil, nil
}
