package platform

import (
	"errors"
	"fmt"
)

var (
	// ErrCircuitOpen is returned while the circuit breaker rejects requests
	ErrCircuitOpen = errors.New("platform circuit breaker open")
	// ErrMalformedEnvelope is returned when a response is not a platform envelope
	ErrMalformedEnvelope = errors.New("malformed platform response")
)

// APIError is an unsuccessful platform response
type APIError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("platform %s failed with status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("platform %s failed with status %d: %s", e.Endpoint, e.StatusCode, e.Message)
}
