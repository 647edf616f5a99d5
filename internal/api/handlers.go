package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"pokedex/internal/fetch"
	"pokedex/internal/models"
	"pokedex/internal/pokeapi"
	"pokedex/internal/ratelimit"
	"pokedex/internal/storage"
	"pokedex/internal/team"
	"pokedex/internal/version"
	"strconv"
	"time"
)

// PokemonSource is the upstream catalog. *pokeapi.Client satisfies it.
type PokemonSource interface {
	ListPokemon(ctx context.Context, offset, limit int) (*models.PokemonPage, error)
	GetPokemon(ctx context.Context, idOrName string) (*models.Pokemon, error)
	ListAll(ctx context.Context, n int) ([]*models.Pokemon, error)
}

// DefaultTableSize is how many pokemon the table endpoints load when no size
// is configured. It equals the upstream.table_size default.
const DefaultTableSize = 50

// Handlers contains HTTP handlers for the pokedex API
type Handlers struct {
	teams     team.ServiceInterface
	pokemon   PokemonSource
	limiters  *ratelimit.Registry
	storage   storage.Storage
	tableSize int
	version   version.Info
	started   time.Time
}

// HandlerOption configures optional Handlers dependencies.
type HandlerOption func(*Handlers)

// WithStorage enables the storage component of the health check.
func WithStorage(s storage.Storage) HandlerOption {
	return func(h *Handlers) {
		h.storage = s
	}
}

// WithLimiters exposes the registry through the rate limit endpoints.
func WithLimiters(r *ratelimit.Registry) HandlerOption {
	return func(h *Handlers) {
		h.limiters = r
	}
}

func WithTableSize(n int) HandlerOption {
	return func(h *Handlers) {
		if n > 0 {
			h.tableSize = n
		}
	}
}

func WithVersion(v version.Info) HandlerOption {
	return func(h *Handlers) {
		h.version = v
	}
}

// NewHandlers creates a new handlers instance
func NewHandlers(teams team.ServiceInterface, pokemon PokemonSource, opts ...HandlerOption) *Handlers {
	h := &Handlers{
		teams:     teams,
		pokemon:   pokemon,
		tableSize: DefaultTableSize,
		started:   time.Now(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HealthCheck handles health check requests
// GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := models.NewHealthCheckResponse(models.StatusHealthy)
	response.Version = h.version.Version
	response.Uptime = time.Since(h.started).Round(time.Second).String()

	if h.storage != nil {
		if err := h.storage.Ping(r.Context()); err != nil {
			response.Status = models.StatusDegraded
			response.AddComponent("storage", models.StatusUnhealthy, err.Error())
		} else {
			response.AddComponent("storage", models.StatusHealthy, "Storage is operational")
		}
	}
	response.AddComponent("api", models.StatusHealthy, "API is operational")

	if h.limiters != nil {
		response.AddMetric("rate_limit_policies", len(h.limiters.Names()))
	}
	response.AddMetric("table_size", h.tableSize)

	h.writeJSONResponse(w, http.StatusOK, response)
}

// writeJSONResponse writes a JSON response
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already out; all that is left is to log.
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// writeErrorResponse writes an error response
func (h *Handlers) writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, errorCode, message string) {
	errorResp := models.NewErrorResponse(message, errorCode)
	errorResp.RequestID = RequestIDFromContext(r.Context())
	h.writeJSONResponse(w, statusCode, errorResp)
}

// writeError maps service, upstream and rate limit errors onto the JSON
// error envelope.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var limitErr *fetch.RateLimitExceededError
	if errors.As(err, &limitErr) {
		w.Header().Set("Retry-After", strconv.Itoa(max(1, limitErr.Seconds())))
	}

	var serviceErr *team.ServiceError
	if errors.As(err, &serviceErr) {
		if serviceErr.StatusCode >= http.StatusInternalServerError {
			slog.ErrorContext(r.Context(), "Team service error", "error", err, "path", r.URL.Path)
		}
		errorResp := models.NewErrorResponse(serviceErr.Message, serviceErr.Code).WithDetails(serviceErr.Details)
		errorResp.RequestID = RequestIDFromContext(r.Context())
		h.writeJSONResponse(w, serviceErr.StatusCode, errorResp)
		return
	}

	var statusErr *pokeapi.StatusError
	switch {
	case limitErr != nil:
		h.writeErrorResponse(w, r, http.StatusTooManyRequests, models.ErrorCodeRateLimitExceeded, limitErr.Error())
	case errors.Is(err, pokeapi.ErrNotFound):
		h.writeErrorResponse(w, r, http.StatusNotFound, models.ErrorCodePokemonNotFound, "Pokemon not found")
	case errors.Is(err, pokeapi.ErrInvalidIdentifier):
		h.writeErrorResponse(w, r, http.StatusBadRequest, models.ErrorCodeInvalidRequest, err.Error())
	case errors.As(err, &statusErr):
		slog.WarnContext(r.Context(), "Upstream request failed", "status", statusErr.StatusCode, "path", r.URL.Path)
		h.writeErrorResponse(w, r, http.StatusBadGateway, models.ErrorCodeUpstream, "PokeAPI request failed")
	case errors.Is(err, context.DeadlineExceeded):
		h.writeErrorResponse(w, r, http.StatusGatewayTimeout, models.ErrorCodeUpstream, "PokeAPI request timed out")
	default:
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "path", r.URL.Path)
		h.writeErrorResponse(w, r, http.StatusInternalServerError, models.ErrorCodeInternalError, "Internal server error")
	}
}

// queryInt parses an optional integer query parameter. Missing parameters
// yield def; malformed ones are reported to the caller.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return v, nil
}
