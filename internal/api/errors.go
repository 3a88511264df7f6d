package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/samcharles93/bazm/internal/generator"
	"github.com/samcharles93/bazm/internal/metrics"
)

var ErrInvalidRequest = errors.New("invalid_request")

type invalidRequestError struct {
	msg string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(msg string) error {
	return invalidRequestError{msg: msg}
}

// failure describes how a generation error is reported.
type failure struct {
	status  int
	errType string
	outcome string
}

func classify(err error) failure {
	switch {
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, generator.ErrInvalidInput):
		return failure{http.StatusBadRequest, "invalid_request_error", metrics.OutcomeInvalidInput}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return failure{http.StatusServiceUnavailable, "timeout_error", metrics.OutcomeCanceled}
	case errors.Is(err, generator.ErrLookup):
		return failure{http.StatusInternalServerError, "lookup_error", metrics.OutcomeLookupError}
	default:
		return failure{http.StatusInternalServerError, "model_error", metrics.OutcomeModelError}
	}
}
