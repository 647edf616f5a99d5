// Package models - Service configuration and operational settings.
// This file defines the configuration structures for every service component.
//
// Configuration Philosophy:
// - Hierarchical configuration with logical grouping (server, upstream, rate_limit, etc.)
// - Defaults that work out of the box against the public PokeAPI
// - Validation that catches misconfigurations before anything starts
package models

import (
	"errors"
	"fmt"
	"net/netip"
	"slices"
	"time"
)

// Storage type constants
const (
	StorageTypeJSON     = "json"
	StorageTypeMemory   = "memory"
	StorageTypePostgres = "postgres"
	StorageTypeSQLite   = "sqlite"
)

// Cache type constants
const (
	CacheTypeMemory = "memory"
	CacheTypeRedis  = "redis"
)

// Trace exporter constants
const (
	TraceExporterStdout = "stdout"
	TraceExporterOTLP   = "otlp"
)

// Rate limit policy names that are always present.
const (
	PolicyDefault = "default"
	PolicyStrict  = "strict"
)

// Config is the root configuration structure containing all service settings.
type Config struct {
	Server        ServerConfig        `yaml:"server" json:"server"`               // HTTP server configuration
	Upstream      UpstreamConfig      `yaml:"upstream" json:"upstream"`           // PokeAPI client settings
	RateLimit     RateLimitConfig     `yaml:"rate_limit" json:"rate_limit"`       // Admission control policies
	Storage       StorageConfig       `yaml:"storage" json:"storage"`             // Team persistence
	Cache         CacheConfig         `yaml:"cache" json:"cache"`                 // Upstream response cache
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`             // Logging and output configuration
	Metrics       MetricsConfig       `yaml:"metrics" json:"metrics"`             // Monitoring and metrics
	Observability ObservabilityConfig `yaml:"observability" json:"observability"` // Tracing
}

type ServerConfig struct {
	Port         int           `yaml:"port" json:"port"`
	Host         string        `yaml:"host" json:"host"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	TLSEnabled   bool          `yaml:"tls_enabled" json:"tls_enabled"`
	TLSCertFile  string        `yaml:"tls_cert_file" json:"tls_cert_file"`
	TLSKeyFile   string        `yaml:"tls_key_file" json:"tls_key_file"`
	CORS         CORSConfig    `yaml:"cors" json:"cors"`
}

type CORSConfig struct {
	Enabled        bool     `yaml:"enabled" json:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" json:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" json:"allowed_headers"`
	MaxAge         int      `yaml:"max_age" json:"max_age"`
}

// UpstreamConfig controls how the service talks to PokeAPI.
//
// Default retries: three, doubling from one second, never waiting more than
// thirty seconds.
type UpstreamConfig struct {
	BaseURL         string        `yaml:"base_url" json:"base_url"`
	Timeout         time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent       string        `yaml:"user_agent" json:"user_agent"`
	Policy          string        `yaml:"policy" json:"policy"` // rate limit policy for outbound calls
	MaxRetries      int           `yaml:"max_retries" json:"max_retries"`
	InitialInterval time.Duration `yaml:"initial_interval" json:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval" json:"max_interval"`
	Workers         int           `yaml:"workers" json:"workers"`       // concurrent detail fetches for the table
	TableSize       int           `yaml:"table_size" json:"table_size"` // how many pokemon the table loads
}

// PolicyConfig is one named fixed-window policy.
type PolicyConfig struct {
	MaxRequests int           `yaml:"max_requests" json:"max_requests"`
	Window      time.Duration `yaml:"window" json:"window"`
}

type InboundRateLimitConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Policy  string `yaml:"policy" json:"policy"`

	// TrustedProxies are CIDRs or addresses whose X-Forwarded-For header
	// names the client. Empty means clients are keyed by peer address.
	TrustedProxies []string `yaml:"trusted_proxies" json:"trusted_proxies"`
}

type RateLimitConfig struct {
	Policies map[string]PolicyConfig `yaml:"policies" json:"policies"`
	Inbound  InboundRateLimitConfig  `yaml:"inbound" json:"inbound"`

	// CleanupInterval is how often expired windows are evicted. Zero uses
	// each policy's window length.
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
}

type StorageConfig struct {
	Type     string            `yaml:"type" json:"type"`
	Path     string            `yaml:"path" json:"path"`
	Database DatabaseConfig    `yaml:"database" json:"database"`
	Options  map[string]string `yaml:"options" json:"options"`
}

type DatabaseConfig struct {
	DSN             string        `yaml:"dsn" json:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
}

type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"`
	Output     string `yaml:"output" json:"output"`
	FilePath   string `yaml:"file_path" json:"file_path"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`       // megabytes before rotation
	MaxBackups int    `yaml:"max_backups" json:"max_backups"` // rotated files kept
	MaxAge     int    `yaml:"max_age" json:"max_age"`         // days
	Compress   bool   `yaml:"compress" json:"compress"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled" json:"enabled"`
	Type    string        `yaml:"type" json:"type"`
	TTL     time.Duration `yaml:"ttl" json:"ttl"`
	Redis   RedisConfig   `yaml:"redis" json:"redis"`
	Memory  MemoryConfig  `yaml:"memory" json:"memory"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr" json:"addr"`
	Password  string `yaml:"password" json:"password"`
	DB        int    `yaml:"db" json:"db"`
	PoolSize  int    `yaml:"pool_size" json:"pool_size"`
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix"`
}

type MemoryConfig struct {
	MaxSize         int           `yaml:"max_size" json:"max_size"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
	Port    int    `yaml:"port" json:"port"`
}

type ObservabilityConfig struct {
	ServiceName string        `yaml:"service_name" json:"service_name"`
	Tracing     TracingConfig `yaml:"tracing" json:"tracing"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter" json:"exporter"` // stdout or otlp
	OTLPEndpoint string  `yaml:"otlp_endpoint" json:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate" json:"sample_rate"`
}

// NewDefaultConfig creates a configuration with production-ready defaults.
//
// Built-in policies: "default" admits 100 requests a minute, "strict" 10 a
// second. "inbound" guards this service's own HTTP clients.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
			CORS: CORSConfig{
				Enabled:        true,
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type"},
				MaxAge:         86400,
			},
		},
		Upstream: UpstreamConfig{
			BaseURL:         "https://pokeapi.co/api/v2",
			Timeout:         10 * time.Second,
			UserAgent:       "pokedex",
			Policy:          PolicyDefault,
			MaxRetries:      3,
			InitialInterval: time.Second,
			MaxInterval:     30 * time.Second,
			Workers:         8,
			TableSize:       50,
		},
		RateLimit: RateLimitConfig{
			Policies: map[string]PolicyConfig{
				PolicyDefault: {MaxRequests: 100, Window: time.Minute},
				PolicyStrict:  {MaxRequests: 10, Window: time.Second},
				"inbound":     {MaxRequests: 120, Window: time.Minute},
			},
			Inbound: InboundRateLimitConfig{
				Enabled: true,
				Policy:  "inbound",
			},
		},
		Storage: StorageConfig{
			Type: StorageTypeJSON,
			Path: "./data/teams.json",
			Database: DatabaseConfig{
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: 5 * time.Minute,
			},
			Options: make(map[string]string),
		},
		Cache: CacheConfig{
			Enabled: true,
			Type:    CacheTypeMemory,
			TTL:     5 * time.Minute,
			Redis: RedisConfig{
				PoolSize:  10,
				KeyPrefix: "pokedex:",
			},
			Memory: MemoryConfig{
				MaxSize:         1000,
				CleanupInterval: 10 * time.Minute,
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			Output:     "stdout",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    9090,
		},
		Observability: ObservabilityConfig{
			ServiceName: "pokedex",
			Tracing: TracingConfig{
				Enabled:    false,
				Exporter:   TraceExporterStdout,
				SampleRate: 1.0,
			},
		},
	}
}

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("invalid rate limit config: %w", err)
	}

	if err := c.Upstream.Validate(c.RateLimit.Policies); err != nil {
		return fmt.Errorf("invalid upstream config: %w", err)
	}

	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("invalid storage config: %w", err)
	}

	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("invalid cache config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}

	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("invalid observability config: %w", err)
	}

	return nil
}

func (sc *ServerConfig) Validate() error {
	if sc.Port <= 0 || sc.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}

	if sc.Host == "" {
		return errors.New("host cannot be empty")
	}

	if sc.ReadTimeout < 0 || sc.WriteTimeout < 0 || sc.IdleTimeout < 0 {
		return errors.New("timeouts cannot be negative")
	}

	if sc.TLSEnabled {
		if sc.TLSCertFile == "" {
			return errors.New("TLS cert file is required when TLS is enabled")
		}
		if sc.TLSKeyFile == "" {
			return errors.New("TLS key file is required when TLS is enabled")
		}
	}

	return nil
}

func (uc *UpstreamConfig) Validate(policies map[string]PolicyConfig) error {
	if uc.BaseURL == "" {
		return errors.New("base URL cannot be empty")
	}

	if uc.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}

	if _, ok := policies[uc.Policy]; !ok {
		return fmt.Errorf("unknown rate limit policy: %s", uc.Policy)
	}

	if uc.MaxRetries < 0 {
		return errors.New("max retries cannot be negative")
	}

	if uc.InitialInterval <= 0 || uc.MaxInterval < uc.InitialInterval {
		return errors.New("retry intervals must be positive and max must not be below initial")
	}

	if uc.Workers <= 0 {
		return errors.New("workers must be positive")
	}

	if uc.TableSize <= 0 || uc.TableSize > 1025 {
		return errors.New("table size must be between 1 and 1025")
	}

	return nil
}

func (rc *RateLimitConfig) Validate() error {
	for _, name := range []string{PolicyDefault, PolicyStrict} {
		if _, ok := rc.Policies[name]; !ok {
			return fmt.Errorf("policy %q must be configured", name)
		}
	}

	if rc.CleanupInterval < 0 {
		return errors.New("rate limit cleanup interval cannot be negative")
	}

	for name, p := range rc.Policies {
		if name == "" {
			return errors.New("policy name cannot be empty")
		}
		if p.MaxRequests <= 0 {
			return fmt.Errorf("policy %q: max requests must be positive", name)
		}
		if p.Window <= 0 {
			return fmt.Errorf("policy %q: window must be positive", name)
		}
	}

	if rc.Inbound.Enabled {
		if _, ok := rc.Policies[rc.Inbound.Policy]; !ok {
			return fmt.Errorf("inbound policy %q is not configured", rc.Inbound.Policy)
		}
	}

	for _, proxy := range rc.Inbound.TrustedProxies {
		if _, err := netip.ParsePrefix(proxy); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(proxy); err != nil {
			return fmt.Errorf("invalid trusted proxy %q", proxy)
		}
	}

	return nil
}

func (stc *StorageConfig) Validate() error {
	validTypes := []string{StorageTypeJSON, StorageTypeMemory, StorageTypePostgres, StorageTypeSQLite}
	if !slices.Contains(validTypes, stc.Type) {
		return fmt.Errorf("invalid storage type: %s", stc.Type)
	}

	if stc.Type == StorageTypeJSON && stc.Path == "" {
		return errors.New("path is required for JSON storage")
	}

	if (stc.Type == StorageTypePostgres || stc.Type == StorageTypeSQLite) && stc.Database.DSN == "" {
		return errors.New("database DSN is required for database storage")
	}

	return nil
}

func (cc *CacheConfig) Validate() error {
	if !cc.Enabled {
		return nil
	}

	if !slices.Contains([]string{CacheTypeMemory, CacheTypeRedis}, cc.Type) {
		return fmt.Errorf("invalid cache type: %s", cc.Type)
	}

	if cc.TTL <= 0 {
		return errors.New("cache TTL must be positive")
	}

	if cc.Type == CacheTypeRedis && cc.Redis.Addr == "" {
		return errors.New("redis address is required when cache type is redis")
	}

	if cc.Type == CacheTypeMemory && cc.Memory.MaxSize < 0 {
		return errors.New("memory cache max size cannot be negative")
	}

	return nil
}

func (lc *LoggingConfig) Validate() error {
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, lc.Level) {
		return fmt.Errorf("invalid log level: %s", lc.Level)
	}

	if !slices.Contains([]string{"json", "text"}, lc.Format) {
		return fmt.Errorf("invalid log format: %s", lc.Format)
	}

	if !slices.Contains([]string{"stdout", "stderr", "file"}, lc.Output) {
		return fmt.Errorf("invalid log output: %s", lc.Output)
	}

	if lc.Output == "file" && lc.FilePath == "" {
		return errors.New("file path is required when output is file")
	}

	return nil
}

func (mc *MetricsConfig) Validate() error {
	if !mc.Enabled {
		return nil
	}

	if mc.Path == "" {
		return errors.New("metrics path cannot be empty")
	}

	if mc.Port <= 0 || mc.Port > 65535 {
		return errors.New("metrics port must be between 1 and 65535")
	}

	return nil
}

func (oc *ObservabilityConfig) Validate() error {
	if oc.ServiceName == "" {
		return errors.New("service name cannot be empty")
	}

	if !oc.Tracing.Enabled {
		return nil
	}

	switch oc.Tracing.Exporter {
	case TraceExporterStdout:
	case TraceExporterOTLP:
		if oc.Tracing.OTLPEndpoint == "" {
			return errors.New("OTLP endpoint is required for the otlp exporter")
		}
	default:
		return fmt.Errorf("unsupported trace exporter: %s", oc.Tracing.Exporter)
	}

	if oc.Tracing.SampleRate < 0 || oc.Tracing.SampleRate > 1 {
		return errors.New("sample rate must be between 0 and 1")
	}

	return nil
}
