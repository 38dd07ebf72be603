package weather

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey is returned when neither the query nor the client carries a credential.
var ErrMissingAPIKey = errors.New("openweather api key is not configured")

// NetworkError reports a transport-level failure (connectivity, timeout, open circuit).
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError reports a non-2xx upstream response.
type HTTPError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Endpoint, e.Status, e.Message)
}

// NotFound reports whether the upstream rejected the location (unknown city).
func (e *HTTPError) NotFound() bool { return e.Status == 404 }

// DecodeError reports a response body that does not match the expected shape.
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decode response: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
