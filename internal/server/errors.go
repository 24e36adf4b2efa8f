// Package server provides the HTTP API for the interview service.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jonathan/hired/internal/gateway"
	"github.com/jonathan/hired/internal/speech"
	"github.com/jonathan/hired/internal/store"
	"github.com/jonathan/hired/internal/types"
)

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrUserNotFound indicates user was not found
type ErrUserNotFound struct {
	UserID uuid.UUID
}

func (e *ErrUserNotFound) Error() string {
	return fmt.Sprintf("user not found: %s", e.UserID)
}

// ErrInterviewNotFound indicates there is no live interview with that id for the caller
type ErrInterviewNotFound struct {
	ID string
}

func (e *ErrInterviewNotFound) Error() string {
	return fmt.Sprintf("interview not found: %s", e.ID)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		emailTaken  *ErrEmailAlreadyExists
		badCreds    *ErrInvalidCredentials
		noUser      *ErrUserNotFound
		noInterview *ErrInterviewNotFound
		invalid     *ErrValidation
		badInput    *gateway.ValidationError
		upstream    *gateway.UpstreamError
	)

	switch {
	case errors.As(err, &emailTaken):
		return http.StatusConflict
	case errors.As(err, &badCreds):
		return http.StatusUnauthorized
	case errors.As(err, &noUser), errors.As(err, &noInterview), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &badInput) && badInput.Output:
		return http.StatusBadGateway
	case errors.As(err, &invalid), errors.As(err, &badInput):
		return http.StatusBadRequest
	case errors.Is(err, speech.ErrNotRecording):
		return http.StatusConflict
	case errors.Is(err, types.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
