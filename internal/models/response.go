// Package models - API response types and error handling.
// This file defines all outgoing API response structures with consistent formatting.
//
// Response Design Principles:
// - Consistent JSON structure across all endpoints
// - Optional fields use omitempty to reduce response size
// - Machine-readable error codes next to human-readable messages
// - RFC3339 timestamps for international compatibility
package models

import (
	"time"
)

// TableResponse is one filtered, sorted window of the pokemon table.
type TableResponse struct {
	Rows   []*Pokemon `json:"rows"`
	Total  int        `json:"total"` // rows matching the filter, before the window is applied
	Offset int        `json:"offset"`
	Limit  int        `json:"limit"`
}

type ListTeamsResponse struct {
	Teams      []*Team `json:"teams"`
	TotalCount int     `json:"total_count"`
}

// RateLimitStatusResponse reports one key's state under one policy.
type RateLimitStatusResponse struct {
	Policy         string `json:"policy"`
	Key            string `json:"key"`
	Limit          int    `json:"limit"`
	Remaining      int    `json:"remaining"`
	ResetInSeconds int    `json:"reset_in_seconds"`
}

type ListPoliciesResponse struct {
	Policies []string `json:"policies"`
}

// ErrorResponse provides structured error information.
//
// Error Categories:
// - Validation errors: Input format/constraint violations
// - Not found errors: Resource doesn't exist
// - Rate limit errors: The caller or the upstream budget is exhausted
// - Upstream errors: PokeAPI failed or returned something unexpected
// - Internal errors: Server-side issues
type ErrorResponse struct {
	Error     string            `json:"error"`                // Error type (always "error")
	Message   string            `json:"message"`              // Human-readable error description
	Code      string            `json:"code,omitempty"`       // Machine-readable error code
	Details   map[string]string `json:"details,omitempty"`    // Field-specific error details
	Timestamp time.Time         `json:"timestamp"`            // Error occurrence time
	RequestID string            `json:"request_id,omitempty"` // Unique request identifier
}

type HealthCheckResponse struct {
	Status     string                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Uptime     string                     `json:"uptime,omitempty"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
	Metrics    map[string]interface{}     `json:"metrics,omitempty"`
}

type ComponentHealth struct {
	Status    string                 `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Health Status Constants
const (
	StatusHealthy   = "healthy"   // All systems operational
	StatusUnhealthy = "unhealthy" // Major system issues
	StatusDegraded  = "degraded"  // Partial functionality
	StatusUnknown   = "unknown"   // Status indeterminate
)

// Standard HTTP Error Codes
//
// Upper-case with underscores, each mapping to one HTTP status.
const (
	ErrorCodeNotFound           = "NOT_FOUND"           // 404: Resource doesn't exist
	ErrorCodeTeamNotFound       = "TEAM_NOT_FOUND"      // 404: Team doesn't exist
	ErrorCodePokemonNotFound    = "POKEMON_NOT_FOUND"   // 404: Upstream has no such pokemon
	ErrorCodeBadRequest         = "BAD_REQUEST"         // 400: Invalid request format
	ErrorCodeInvalidRequest     = "INVALID_REQUEST"     // 400: Invalid request data
	ErrorCodeValidation         = "VALIDATION_ERROR"    // 422: Input validation failed
	ErrorCodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED" // 429: Admission denied
	ErrorCodeInternalError      = "INTERNAL_ERROR"      // 500: Server-side error
	ErrorCodeUpstream           = "UPSTREAM_ERROR"      // 502: PokeAPI failure
	ErrorCodeConflict           = "CONFLICT"            // 409: Resource conflict
	ErrorCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503: Service temporarily down
)

func NewErrorResponse(message string, code string) *ErrorResponse {
	return &ErrorResponse{
		Error:     "error",
		Message:   message,
		Code:      code,
		Timestamp: time.Now(),
	}
}

// WithDetails attaches field-level details and returns the response.
func (e *ErrorResponse) WithDetails(details map[string]string) *ErrorResponse {
	if len(details) > 0 {
		e.Details = details
	}
	return e
}

func NewHealthCheckResponse(status string) *HealthCheckResponse {
	return &HealthCheckResponse{
		Status:     status,
		Timestamp:  time.Now(),
		Components: make(map[string]ComponentHealth),
		Metrics:    make(map[string]interface{}),
	}
}

func (h *HealthCheckResponse) AddComponent(name, status, message string) {
	h.Components[name] = ComponentHealth{
		Status:    status,
		Message:   message,
		Timestamp: time.Now(),
		Details:   make(map[string]interface{}),
	}
}

func (h *HealthCheckResponse) AddMetric(name string, value interface{}) {
	h.Metrics[name] = value
}
