package enrich

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAPIKey is returned when a client is used without an API key.
	ErrNoAPIKey = errors.New("api key is not configured")

	// ErrNotFound is returned when a lookup matched nothing.
	ErrNotFound = errors.New("no matching result")
)

// APIError is a failed call to a third-party API.
type APIError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Service, e.StatusCode, e.Message)
}
