package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/placement-matcher/internal/summarize"
	"github.com/jonathan/placement-matcher/internal/types"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrNotFound indicates a missing resource
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnavailable indicates that a backing service cannot serve the request
type ErrUnavailable struct {
	Service string
	Cause   error
}

func (e *ErrUnavailable) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s unavailable: %v", e.Service, e.Cause)
	}
	return fmt.Sprintf("%s unavailable", e.Service)
}

func (e *ErrUnavailable) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr   *ErrValidation
		notFoundErr     *ErrNotFound
		unavailableErr  *ErrUnavailable
		summaryInputErr *summarize.ValidationError
		summaryAPIErr   *summarize.APICallError
		summaryParseErr *summarize.ParseError
		validatorErrs   validator.ValidationErrors
	)

	switch {
	case errors.As(err, &validationErr), errors.As(err, &summaryInputErr), errors.As(err, &validatorErrs),
		errors.Is(err, types.ErrInvalidWeights):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &unavailableErr), errors.As(err, &summaryAPIErr):
		return http.StatusServiceUnavailable
	case errors.As(err, &summaryParseErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// validationMessage renders validator errors the way clients see them
func validationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		// Return first validation error for simplicity
		ve := validationErrors[0]
		return fmt.Sprintf("validation error: %s - %s", ve.Field(), ve.Tag())
	}
	return err.Error()
}
