package api

import (
	"net/http"
	"pokedex/internal/models"
	"pokedex/internal/ratelimit"

	"github.com/gorilla/mux"
)

// ListPolicies returns the registered limiter names
// GET /api/v1/ratelimit
func (h *Handlers) ListPolicies(w http.ResponseWriter, r *http.Request) {
	names := []string{}
	if h.limiters != nil {
		names = h.limiters.Names()
	}
	h.writeJSONResponse(w, http.StatusOK, &models.ListPoliciesResponse{Policies: names})
}

// GetRateLimitStatus reports one key's window under a policy without
// counting a request. An omitted key means the default key.
// GET /api/v1/ratelimit/{policy}?key=
func (h *Handlers) GetRateLimitStatus(w http.ResponseWriter, r *http.Request) {
	policy, limiter, ok := h.lookupPolicy(w, r)
	if !ok {
		return
	}

	status := limiter.Status(r.URL.Query().Get("key"))
	h.writeJSONResponse(w, http.StatusOK, &models.RateLimitStatusResponse{
		Policy:         policy,
		Key:            status.Key,
		Limit:          status.Limit,
		Remaining:      status.Remaining,
		ResetInSeconds: ratelimit.RetryAfterSeconds(status.ResetIn),
	})
}

// ResetRateLimit forgets one key's window under a policy
// DELETE /api/v1/ratelimit/{policy}?key=
func (h *Handlers) ResetRateLimit(w http.ResponseWriter, r *http.Request) {
	policy, limiter, ok := h.lookupPolicy(w, r)
	if !ok {
		return
	}

	key := r.URL.Query().Get("key")
	limiter.Reset(key)
	if key == "" {
		key = ratelimit.DefaultKey
	}
	logRequest(r).Info("Rate limit reset", "policy", policy, "key", key)

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) lookupPolicy(w http.ResponseWriter, r *http.Request) (string, ratelimit.Limiter, bool) {
	policy := mux.Vars(r)["policy"]
	if h.limiters != nil {
		if limiter, found := h.limiters.Get(policy); found {
			return policy, limiter, true
		}
	}
	h.writeErrorResponse(w, r, http.StatusNotFound, models.ErrorCodeNotFound, "unknown rate limit policy: "+policy)
	return policy, nil, false
}
