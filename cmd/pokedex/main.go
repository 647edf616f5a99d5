package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"pokedex/internal/api"
	"pokedex/internal/cache"
	"pokedex/internal/config"
	"pokedex/internal/fetch"
	"pokedex/internal/logger"
	"pokedex/internal/models"
	"pokedex/internal/observability"
	"pokedex/internal/pokeapi"
	"pokedex/internal/ratelimit"
	"pokedex/internal/storage"
	"pokedex/internal/team"
	"pokedex/internal/version"
	"syscall"
	"time"
)

var (
	configFile   = flag.String("config", "", "Path to configuration file")
	writeExample = flag.String("write-example-config", "", "Write an example configuration file to this path and exit")
	printVersion = flag.Bool("version", false, "Print version information and exit")
)

func main() {
	flag.Parse()

	ver := version.GetInfo()
	if *printVersion {
		fmt.Println(ver.String())
		return
	}
	if *writeExample != "" {
		if err := config.SaveExample(*writeExample); err != nil {
			slog.Error("Failed to write example configuration", "error", err)
			os.Exit(1)
		}
		return
	}

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize structured logging
	log, closer, err := logger.Setup(cfg.Logging, ver)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(log)

	// Initialize observability (OpenTelemetry)
	otelProvider, err := observability.Setup(cfg.Metrics, cfg.Observability, ver)
	if err != nil {
		slog.Error("Failed to initialize observability", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown observability", "error", err)
		}
	}()

	// Initialize team storage
	storageInstance, err := storage.NewFactory().Create(cfg.Storage)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err, "type", cfg.Storage.Type)
		os.Exit(1)
	}
	defer storageInstance.Close()

	var activeStorage storage.Storage = storageInstance
	if cfg.Metrics.Enabled {
		instrumented, err := observability.NewInstrumentedStorage(storageInstance)
		if err != nil {
			slog.Error("Failed to create instrumented storage", "error", err)
			os.Exit(1)
		}
		activeStorage = instrumented
	}

	// One limiter per configured policy, shared by every caller of that policy
	limiters, err := buildLimiters(cfg)
	if err != nil {
		slog.Error("Failed to initialize rate limiters", "error", err)
		os.Exit(1)
	}
	defer limiters.Close()

	upstreamLimiter, _ := limiters.Get(cfg.Upstream.Policy)
	fetchOpts := []fetch.Option{fetch.WithHTTPClient(&http.Client{Timeout: cfg.Upstream.Timeout})}
	if cfg.Observability.Tracing.Enabled {
		fetchOpts = append(fetchOpts, fetch.WithTracing())
	}
	fetchClient, err := fetch.NewClient(upstreamLimiter, fetchOpts...)
	if err != nil {
		slog.Error("Failed to initialize fetch client", "error", err)
		os.Exit(1)
	}

	// Upstream response cache
	responseCache, err := buildCache(cfg)
	if err != nil {
		slog.Error("Failed to initialize cache", "error", err, "type", cfg.Cache.Type)
		os.Exit(1)
	}
	defer responseCache.Close()

	pokemon := pokeapi.NewClient(fetchClient, responseCache, pokeapi.Config{
		BaseURL:         cfg.Upstream.BaseURL,
		UserAgent:       userAgent(cfg.Upstream, ver),
		CacheTTL:        cfg.Cache.TTL,
		MaxRetries:      cfg.Upstream.MaxRetries,
		InitialInterval: cfg.Upstream.InitialInterval,
		MaxInterval:     cfg.Upstream.MaxInterval,
		Workers:         cfg.Upstream.Workers,
		FlightTimeout:   flightTimeout(cfg.Upstream),
	})

	teamService := team.NewService(activeStorage, pokemon)

	handlers := api.NewHandlers(teamService, pokemon,
		api.WithStorage(activeStorage),
		api.WithLimiters(limiters),
		api.WithTableSize(cfg.Upstream.TableSize),
		api.WithVersion(ver),
	)

	// Setup routes with middleware
	routeOpts := []api.RouteOption{}
	if cfg.Observability.Tracing.Enabled {
		routeOpts = append(routeOpts, api.WithOTelMiddleware(cfg.Observability.ServiceName))
	}
	if cfg.RateLimit.Inbound.Enabled {
		inbound, _ := limiters.Get(cfg.RateLimit.Inbound.Policy)
		proxies, err := ratelimit.ParseTrustedProxies(cfg.RateLimit.Inbound.TrustedProxies)
		if err != nil {
			slog.Error("Failed to parse trusted proxies", "error", err)
			os.Exit(1)
		}
		routeOpts = append(routeOpts, api.WithRateLimiter(ratelimit.Middleware(inbound, proxies.ClientIP)))
	}

	router := api.SetupRoutes(handlers, cfg, routeOpts...)

	// Start metrics server if enabled
	var metricsServer *observability.MetricsServer
	if cfg.Metrics.Enabled {
		metricsServer = observability.NewMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path, otelProvider)
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting server",
			"addr", server.Addr,
			"storage", cfg.Storage.Type,
			"upstream", cfg.Upstream.BaseURL,
			"upstream_policy", cfg.Upstream.Policy,
			"tls", cfg.Server.TLSEnabled)

		var err error
		if cfg.Server.TLSEnabled {
			err = server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			err = server.ListenAndServe()
		}
		serverErr <- err
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("Shutting down server", "signal", sig.String())
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			slog.Error("Metrics server forced to shutdown", "error", err)
		}
	}

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server shutdown complete")
}

// buildLimiters creates one fixed-window limiter per configured policy. Every
// denial is logged, and decisions are counted when metrics are enabled.
// flightTimeout gives one upstream read room for every attempt and the
// longest wait between them.
func flightTimeout(u models.UpstreamConfig) time.Duration {
	attempts := time.Duration(u.MaxRetries + 1)
	return attempts*u.Timeout + (attempts-1)*u.MaxInterval
}

func buildLimiters(cfg *models.Config) (*ratelimit.Registry, error) {
	// Configured policies override the built-in ones of the same name
	policies := ratelimit.DefaultPolicies()
	for name, policy := range cfg.RateLimit.Policies {
		policies[name] = ratelimit.Config{MaxRequests: policy.MaxRequests, Window: policy.Window}
	}
	for name, policy := range policies {
		policy.OnLimitReached = func() {
			slog.Warn("Rate limit reached", "policy", name, "max_requests", policy.MaxRequests, "window", policy.Window)
		}
		policies[name] = policy
	}

	var wrap ratelimit.WrapFunc
	if cfg.Metrics.Enabled {
		wrap = func(name string, l *ratelimit.MemoryLimiter) (ratelimit.Limiter, error) {
			instrumented, err := observability.NewInstrumentedLimiter(name, l)
			if err != nil {
				return nil, err
			}
			return instrumented, nil
		}
	}

	return ratelimit.NewRegistryFromPolicies(policies, wrap, ratelimit.WithCleanupInterval(cfg.RateLimit.CleanupInterval))
}

func buildCache(cfg *models.Config) (cache.Cache, error) {
	c, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, err
	}
	if !cfg.Metrics.Enabled || !cfg.Cache.Enabled {
		return c, nil
	}
	instrumented, err := observability.NewInstrumentedCache(cfg.Cache.Type, c)
	if err != nil {
		c.Close()
		return nil, err
	}
	return instrumented, nil
}

// userAgent keeps an operator-supplied User-Agent and otherwise identifies
// this build and instance to PokeAPI.
func userAgent(cfg models.UpstreamConfig, ver version.Info) string {
	if cfg.UserAgent == "" || cfg.UserAgent == models.NewDefaultConfig().Upstream.UserAgent {
		return ver.UserAgent()
	}
	return cfg.UserAgent
}
