// Package upstream talks to the data API that owns users, skills and the
// certificate and position catalogs.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	gobreaker "github.com/sony/gobreaker/v2"
)

// ErrNoUserData is returned when every section of a user bundle failed to
// load, so an empty bundle cannot be told apart from an outage.
var ErrNoUserData = errors.New("no user data section could be fetched")

// Error represents a failed data API call.
type Error struct {
	Endpoint   string
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("upstream error for %s: %s: %v", e.Endpoint, e.Message, e.Cause)
	}
	return fmt.Sprintf("upstream error for %s: %s", e.Endpoint, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsClientError reports whether the data API rejected the request itself.
// Such failures say nothing about upstream health.
func (e *Error) IsClientError() bool {
	return e.StatusCode >= http.StatusBadRequest && e.StatusCode < http.StatusInternalServerError
}

// IsNotFound reports whether err is a 404 from the data API.
func IsNotFound(err error) bool {
	var ue *Error
	return errors.As(err, &ue) && ue.StatusCode == http.StatusNotFound
}

// skippable reports whether a per-item failure can be dropped from a catalog
// load. Cancellation and an open breaker still abort the load.
func skippable(err error) bool {
	var ue *Error
	if !errors.As(err, &ue) {
		return false
	}
	return !errors.Is(err, gobreaker.ErrOpenState) &&
		!errors.Is(err, gobreaker.ErrTooManyRequests) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}
