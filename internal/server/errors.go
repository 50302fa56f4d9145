// Package server provides the HTTP API for running and browsing insight analyses.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/insight-scraper/internal/pipeline"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrNotConfigured indicates an optional backend the endpoint needs is absent.
type ErrNotConfigured struct {
	Feature string
}

func (e *ErrNotConfigured) Error() string {
	return fmt.Sprintf("%s is not configured on this server", e.Feature)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr    *ErrValidation
		notConfiguredErr *ErrNotConfigured
		runErr           *pipeline.RunError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &notConfiguredErr):
		return http.StatusServiceUnavailable
	case errors.As(err, &runErr):
		return RunStatusCode(runErr.Status)
	default:
		return http.StatusInternalServerError
	}
}

// RunStatusCode maps a run status to the response code of the analyze endpoints.
// Bad input and a rejected credential are the caller's fault; storage failures are ours.
func RunStatusCode(status pipeline.Status) int {
	switch status {
	case pipeline.StatusSuccess, pipeline.StatusNoResults:
		return http.StatusOK
	case pipeline.StatusInvalidGoal, pipeline.StatusInvalidDirective, pipeline.StatusConfigurationError:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// validationError converts validator output into the first offending field.
func validationError(err error) *ErrValidation {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		ve := validationErrors[0]
		return &ErrValidation{Field: ve.Field(), Message: ve.Tag()}
	}
	return &ErrValidation{Field: "body", Message: "invalid request"}
}
