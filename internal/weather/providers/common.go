package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/weather-session/internal/metrics"
	"github.com/i474232898/weather-session/internal/weather"
)

// HTTPClientConfig bundles the HTTP client and the guards applied to every call.
type HTTPClientConfig struct {
	Client  *http.Client
	Limiter *rate.Limiter
}

var (
	// ErrCircuitOpen is wrapped in a NetworkError while the breaker rejects calls.
	ErrCircuitOpen = errors.New("circuit breaker open")

	errNoHTTPClient = errors.New("http client not configured")
)

// maxErrorMessage bounds how much of an error body is kept in HTTPError.Message.
const maxErrorMessage = 256

type upstreamResponse struct {
	status int
	body   []byte
}

// doRequest executes a single upstream call through the rate limiter and the
// circuit breaker and returns the body of a 2xx response. There are no retries.
// Only transport failures, 429 and 5xx count against the breaker; a 404 for an
// unknown city must not trip it.
func doRequest(
	ctx context.Context,
	endpoint string,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() (*http.Request, error),
) ([]byte, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}

	if cfg.Limiter != nil {
		if err := cfg.Limiter.Wait(ctx); err != nil {
			return nil, &weather.NetworkError{Endpoint: endpoint, Err: fmt.Errorf("rate limit wait canceled: %w", err)}
		}
	}

	req, err := buildRequest()
	if err != nil {
		return nil, err
	}
	req = req.WithContext(ctx)

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := cfg.Client.Do(req)
		if execErr != nil {
			return nil, &weather.NetworkError{Endpoint: endpoint, Err: execErr}
		}
		defer resp.Body.Close()

		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, &weather.NetworkError{Endpoint: endpoint, Err: fmt.Errorf("read body: %w", readErr)}
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, newHTTPError(endpoint, resp.StatusCode, body)
		}
		return upstreamResponse{status: resp.StatusCode, body: body}, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &weather.NetworkError{Endpoint: endpoint, Err: fmt.Errorf("%w: %v", ErrCircuitOpen, err)}
		}
		return nil, err
	}

	resp, ok := result.(upstreamResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	if resp.status < 200 || resp.status >= 300 {
		return nil, newHTTPError(endpoint, resp.status, resp.body)
	}
	return resp.body, nil
}

// newHTTPError extracts the API's {"cod":..,"message":..} payload when present.
func newHTTPError(endpoint string, status int, body []byte) *weather.HTTPError {
	var payload struct {
		Message string `json:"message"`
	}
	msg := ""
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		msg = payload.Message
	} else {
		msg = strings.TrimSpace(string(body))
	}
	if len(msg) > maxErrorMessage {
		msg = msg[:maxErrorMessage]
	}
	return &weather.HTTPError{Endpoint: endpoint, Status: status, Message: msg}
}

// outcomeOf classifies an error for the request metrics.
func outcomeOf(err error) string {
	var (
		netErr    *weather.NetworkError
		httpErr   *weather.HTTPError
		decodeErr *weather.DecodeError
	)
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.As(err, &netErr):
		return metrics.OutcomeNetwork
	case errors.As(err, &httpErr):
		return metrics.OutcomeHTTP
	case errors.As(err, &decodeErr):
		return metrics.OutcomeDecode
	default:
		return metrics.OutcomeOther
	}
}
