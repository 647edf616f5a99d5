package team

import (
	"errors"
	"fmt"
	"net/http"
	"pokedex/internal/models"
)

// ErrInvalidTeam is wrapped by every validation failure from Create.
var ErrInvalidTeam = errors.New("invalid team")

// ServiceError represents errors from the team service with HTTP context
type ServiceError struct {
	Code       string
	Message    string
	StatusCode int
	Details    map[string]string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Error constructors for common service errors

func NewTeamNotFoundError(id string) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeTeamNotFound,
		Message:    fmt.Sprintf("team '%s' not found", id),
		StatusCode: http.StatusNotFound,
	}
}

func NewInvalidRequestError(message string, err error) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeInvalidRequest,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Err:        err,
	}
}

func NewValidationError(message string, details map[string]string) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeValidation,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Details:    details,
		Err:        ErrInvalidTeam,
	}
}

// NewRateLimitError keeps err in the chain so callers can recover the
// wait time with errors.As.
func NewRateLimitError(err error) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeRateLimitExceeded,
		Message:    "upstream request budget exhausted",
		StatusCode: http.StatusTooManyRequests,
		Err:        err,
	}
}

func NewUpstreamError(message string, err error) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeUpstream,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Err:        err,
	}
}

func NewInternalError(message string, err error) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeInternalError,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}
