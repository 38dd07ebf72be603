package httpapi

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/i474232898/weather-session/internal/session"
	"github.com/i474232898/weather-session/internal/store"
	"github.com/i474232898/weather-session/internal/view"
)

const defaultHeartbeat = 15 * time.Second

var validate = validator.New()

// Screens is the presenter surface served over HTTP.
type Screens interface {
	Screen() view.Screen
	Watch(ctx context.Context) <-chan view.Screen
	OnRequestCityChange(ctx context.Context, city string) error
	OnRetry()
}

// Session exposes the raw state and manual refreshes.
type Session interface {
	State() session.State
	FetchWeather(city string)
	FetchForecast(city string)
}

type Handler struct {
	screens Screens
	session Session
	log     *zap.SugaredLogger

	// streams end when ctx is done so shutdown does not wait on open clients.
	ctx       context.Context
	heartbeat time.Duration
}

func NewHandler(ctx context.Context, screens Screens, sess Session, log *zap.SugaredLogger) *Handler {
	return &Handler{
		screens:   screens,
		session:   sess,
		log:       log,
		ctx:       ctx,
		heartbeat: defaultHeartbeat,
	}
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, h *Handler) {
	v1 := app.Group("/api/v1")

	v1.Get("/session", h.getSession)
	v1.Get("/screen", h.getScreen)
	v1.Get("/screen/stream", h.streamScreens)
	v1.Put("/city", h.putCity)
	v1.Post("/retry", h.postRetry)
	v1.Post("/weather/refresh", h.refreshWeather)
	v1.Post("/forecast/refresh", h.refreshForecast)
}

// cityRequest is the body of PUT /api/v1/city.
type cityRequest struct {
	City string `json:"city" validate:"required"`
}

func (h *Handler) getSession(c *fiber.Ctx) error {
	return c.JSON(h.session.State())
}

func (h *Handler) getScreen(c *fiber.Ctx) error {
	return c.JSON(h.screens.Screen())
}

func (h *Handler) putCity(c *fiber.Ctx) error {
	var req cityRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.City = strings.TrimSpace(req.City)
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "city must not be empty")
	}

	if err := h.screens.OnRequestCityChange(c.UserContext(), req.City); err != nil {
		if errors.Is(err, store.ErrEmptyCity) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to save city")
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "accepted",
		"city":   req.City,
	})
}

func (h *Handler) postRetry(c *fiber.Ctx) error {
	h.screens.OnRetry()
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "accepted"})
}

func (h *Handler) refreshWeather(c *fiber.Ctx) error {
	city := strings.TrimSpace(c.Query("city"))
	h.session.FetchWeather(city)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "accepted", "city": city})
}

func (h *Handler) refreshForecast(c *fiber.Ctx) error {
	city := strings.TrimSpace(c.Query("city"))
	h.session.FetchForecast(city)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "accepted", "city": city})
}

// streamScreens sends one Server-Sent Event per screen change, starting with
// the current screen.
func (h *Handler) streamScreens(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	remote := c.IP()
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithCancel(h.ctx)
		defer cancel()

		h.log.Debugw("screen stream opened", "remote", remote)
		defer h.log.Debugw("screen stream closed", "remote", remote)

		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()

		screens := h.screens.Watch(ctx)
		for {
			select {
			case screen, ok := <-screens:
				if !ok {
					return
				}
				if err := writeEvent(w, screen); err != nil {
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))
	return nil
}

func writeEvent(w *bufio.Writer, screen view.Screen) error {
	payload, err := json.Marshal(screen)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: screen\ndata: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}
