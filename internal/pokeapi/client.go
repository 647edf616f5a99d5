// Package pokeapi is a read-only client for the PokeAPI catalog. Responses are
// cached, concurrent identical reads are collapsed into one upstream call, and
// transient failures are retried with exponential backoff. Rate limit denials
// from the fetch layer are returned immediately so callers can tell the user
// how long to wait.
package pokeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"pokedex/internal/cache"
	"pokedex/internal/fetch"
	"pokedex/internal/models"
	"pokedex/internal/validation"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100

	maxBodyBytes = 4 << 20
)

var (
	// ErrNotFound means upstream has no such resource. It is never retried.
	ErrNotFound = errors.New("pokemon not found")

	// ErrInvalidIdentifier means the id or name failed validation and no
	// request was made.
	ErrInvalidIdentifier = errors.New("invalid pokemon identifier")
)

// StatusError is an unexpected upstream HTTP status.
type StatusError struct {
	StatusCode int
	RetryAfter time.Duration // from the Retry-After header on 429/503
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("pokeapi returned status %d", e.StatusCode)
}

func (e *StatusError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Doer sends HTTP requests. *fetch.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config tunes the client. Zero values fall back to the public PokeAPI, a
// five minute cache TTL and retries doubling from one second up to thirty.
type Config struct {
	BaseURL         string
	UserAgent       string
	CacheTTL        time.Duration
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Workers         int

	// FlightTimeout bounds one collapsed upstream read, retries included.
	// The read runs detached from the callers waiting on it, so one caller
	// giving up does not fail the others. Defaults to one minute.
	FlightTimeout time.Duration
}

func (c *Config) setDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://pokeapi.co/api/v2"
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.CacheTTL == 0 {
		c.CacheTTL = 5 * time.Minute
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = time.Second
	}
	if c.MaxInterval < c.InitialInterval {
		c.MaxInterval = max(30*time.Second, c.InitialInterval)
	}
	if c.Workers <= 0 {
		c.Workers = 8
	}
	if c.FlightTimeout <= 0 {
		c.FlightTimeout = time.Minute
	}
}

// Client reads pokemon from PokeAPI.
type Client struct {
	cfg     Config
	doer    Doer
	cache   cache.Cache
	flights singleflight.Group
}

// NewClient wires a client over doer, normally a rate-limited *fetch.Client.
// A nil cache disables caching.
func NewClient(doer Doer, c cache.Cache, cfg Config) *Client {
	cfg.setDefaults()
	if c == nil {
		c = cache.NopCache{}
	}
	return &Client{cfg: cfg, doer: doer, cache: c}
}

// ListPokemon returns one page of the catalog. Limit is clamped to
// [1, MaxPageLimit], defaulting to DefaultPageLimit when zero.
func (c *Client) ListPokemon(ctx context.Context, offset, limit int) (*models.PokemonPage, error) {
	if offset < 0 {
		offset = 0
	}
	switch {
	case limit == 0:
		limit = DefaultPageLimit
	case limit < 1:
		limit = 1
	case limit > MaxPageLimit:
		limit = MaxPageLimit
	}

	var list apiList
	endpoint := fmt.Sprintf("%s/pokemon?offset=%d&limit=%d", c.cfg.BaseURL, offset, limit)
	if err := c.getJSON(ctx, endpoint, &list); err != nil {
		return nil, err
	}

	page := &models.PokemonPage{
		Count:    list.Count,
		Offset:   offset,
		Limit:    limit,
		Next:     offsetFromPageURL(list.Next),
		Previous: offsetFromPageURL(list.Previous),
		Results:  make([]models.PokemonSummary, 0, len(list.Results)),
	}
	for _, r := range list.Results {
		page.Results = append(page.Results, models.PokemonSummary{
			ID:   idFromResourceURL(r.URL),
			Name: r.Name,
			URL:  r.URL,
		})
	}
	return page, nil
}

// GetPokemon fetches one pokemon by national dex id or lower-case name.
func (c *Client) GetPokemon(ctx context.Context, idOrName string) (*models.Pokemon, error) {
	ident, err := normalizeIdentifier(idOrName)
	if err != nil {
		return nil, err
	}

	var p apiPokemon
	if err := c.getJSON(ctx, c.cfg.BaseURL+"/pokemon/"+ident, &p); err != nil {
		return nil, err
	}
	return p.toModel(), nil
}

// ListAll fetches the first n pokemon with details, in dex order. Detail
// requests run on at most Config.Workers goroutines and the first failure
// cancels the rest.
func (c *Client) ListAll(ctx context.Context, n int) ([]*models.Pokemon, error) {
	n = min(max(n, 1), validation.MaxPokemonID)

	var summaries []models.PokemonSummary
	for offset := 0; offset < n; offset += MaxPageLimit {
		page, err := c.ListPokemon(ctx, offset, min(MaxPageLimit, n-offset))
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, page.Results...)
		if page.Next == nil {
			break
		}
	}

	rows := make([]*models.Pokemon, len(summaries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Workers)
	for i, s := range summaries {
		ident := s.Name
		if s.ID > 0 {
			ident = strconv.Itoa(s.ID)
		}
		g.Go(func() error {
			p, err := c.GetPokemon(gctx, ident)
			if err != nil {
				return err
			}
			rows[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func normalizeIdentifier(idOrName string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(idOrName))
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidIdentifier)
	}
	if id, err := strconv.Atoi(s); err == nil {
		if !validation.IsValidPokemonID(id) {
			return "", fmt.Errorf("%w: id %d out of range", ErrInvalidIdentifier, id)
		}
		return strconv.Itoa(id), nil
	}
	if !validation.IsValidPokemonName(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, idOrName)
	}
	return s, nil
}

// getJSON decodes the body at endpoint into v, consulting the cache first.
func (c *Client) getJSON(ctx context.Context, endpoint string, v any) error {
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	if body, ok, err := c.cache.Get(ctx, endpoint); err != nil {
		slog.Warn("Cache read failed", "key", endpoint, "error", err)
	} else if ok {
		return body, nil
	}

	flight := c.flights.DoChan(endpoint, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.FlightTimeout)
		defer cancel()

		body, err := c.fetchWithRetry(fctx, endpoint)
		if err != nil {
			return nil, err
		}
		if err := c.cache.Set(fctx, endpoint, body, c.cfg.CacheTTL); err != nil {
			slog.Warn("Cache write failed", "key", endpoint, "error", err)
		}
		return body, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			slog.Debug("Collapsed concurrent upstream read", "url", endpoint)
		}
		return res.Val.([]byte), nil
	}
}

func (c *Client) fetchWithRetry(ctx context.Context, endpoint string) ([]byte, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.InitialInterval
	b.MaxInterval = c.cfg.MaxInterval
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.Reset()

	for attempt := 0; ; attempt++ {
		body, err := c.fetchOnce(ctx, endpoint)
		if err == nil {
			return body, nil
		}
		if !retryable(err) || attempt >= c.cfg.MaxRetries {
			return nil, err
		}

		delay := b.NextBackOff()
		if delay == backoff.Stop {
			return nil, err
		}
		var se *StatusError
		if errors.As(err, &se) && se.RetryAfter > delay {
			delay = min(se.RetryAfter, c.cfg.MaxInterval)
		}

		slog.Warn("Retrying PokeAPI request",
			"url", endpoint,
			"attempt", attempt+1,
			"delay", delay,
			"error", err,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Client) fetchOnce(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", endpoint, err)
		}
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
}

// retryable treats transport failures and 429/5xx as transient. Local rate
// limit denials, 404s and cancellation are final.
func retryable(err error) bool {
	if errors.Is(err, fetch.ErrRateLimitExceeded) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.retryable()
	}
	return true
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		return max(0, time.Until(at))
	}
	return 0
}
