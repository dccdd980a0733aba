// Package server provides the HTTP API for the recommender.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/skill-recommender/internal/recommender"
	"github.com/jonathan/skill-recommender/internal/selection"
	"github.com/jonathan/skill-recommender/internal/upstream"
)

// statusClientClosedRequest is logged when the caller went away mid-request.
const statusClientClosedRequest = 499

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrUserNotFound indicates the data API knows nothing about the user.
type ErrUserNotFound struct {
	UserID int64
}

func (e *ErrUserNotFound) Error() string {
	return "User not found"
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validation *ErrValidation
		notFound   *ErrUserNotFound
		selErr     *selection.Error
		upErr      *upstream.Error
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &selErr):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.Is(err, recommender.ErrNotTrained):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	case errors.Is(err, upstream.ErrNoUserData), errors.As(err, &upErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage is the error text safe to show a caller.
func publicMessage(err error, status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusNotFound:
		return err.Error()
	case http.StatusServiceUnavailable:
		return "Model not trained yet"
	case http.StatusBadGateway:
		return "Upstream data service unavailable"
	case http.StatusGatewayTimeout:
		return "Upstream data service timed out"
	default:
		return "Internal server error"
	}
}
