package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/weather-session/internal/api/http"
	"github.com/i474232898/weather-session/internal/config"
	"github.com/i474232898/weather-session/internal/scheduler"
	"github.com/i474232898/weather-session/internal/session"
	"github.com/i474232898/weather-session/internal/view"
)

const (
	serviceName     = "weather-session"
	shutdownTimeout = 10 * time.Second
)

// App runs the session controller, the preference resync job and the HTTP
// surface for one weather session.
type App struct {
	cfg        *config.AppConfig
	log        *zap.SugaredLogger
	fiber      *fiber.App
	controller *session.Controller
	scheduler  *scheduler.Scheduler

	stopStreams context.CancelFunc
}

func New(
	cfg *config.AppConfig,
	log *zap.SugaredLogger,
	controller *session.Controller,
	presenter *view.Presenter,
	sched *scheduler.Scheduler,
	registry *prometheus.Registry,
) *App {
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// No write timeout: screen streams stay open.
		ErrorHandler: httpapi.ErrorHandler,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": serviceName,
			"session": controller.State().SessionID,
		})
	})

	streams, stopStreams := context.WithCancel(context.Background())
	httpapi.RegisterRoutes(app, httpapi.NewHandler(streams, presenter, controller, log))

	if cfg.MetricsEnabled && registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	return &App{
		cfg:         cfg,
		log:         log,
		fiber:       app,
		controller:  controller,
		scheduler:   sched,
		stopStreams: stopStreams,
	}
}

// Fiber exposes the HTTP app, mainly for tests.
func (a *App) Fiber() *fiber.App {
	return a.fiber
}

// Run blocks until ctx is done or a component fails, then shuts down.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	controllerErr := make(chan error, 1)
	go func() {
		controllerErr <- a.controller.Run(ctx)
	}()

	if err := a.scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer a.scheduler.Stop()

	serverErr := make(chan error, 1)
	go func() {
		a.log.Infow("http server listening", "port", a.cfg.Port)
		serverErr <- a.fiber.Listen(":" + a.cfg.Port)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			runErr = fmt.Errorf("http server: %w", err)
		}
	case err := <-controllerErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			runErr = fmt.Errorf("session controller: %w", err)
		}
	}

	a.log.Infow("shutting down")
	a.stopStreams()
	cancel()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := a.fiber.ShutdownWithContext(shutdownCtx); err != nil {
		a.log.Errorw("error during shutdown", "error", err)
	}
	return runErr
}
