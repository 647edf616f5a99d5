package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	// Test server defaults
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.Equal(t, 30*time.Second, config.Server.ReadTimeout)
	assert.False(t, config.Server.TLSEnabled)

	// Test upstream defaults
	assert.Equal(t, "https://pokeapi.co/api/v2", config.Upstream.BaseURL)
	assert.Equal(t, PolicyDefault, config.Upstream.Policy)
	assert.Equal(t, 3, config.Upstream.MaxRetries)
	assert.Equal(t, time.Second, config.Upstream.InitialInterval)
	assert.Equal(t, 30*time.Second, config.Upstream.MaxInterval)

	// Test rate limit defaults
	assert.Equal(t, PolicyConfig{MaxRequests: 100, Window: time.Minute}, config.RateLimit.Policies[PolicyDefault])
	assert.Equal(t, PolicyConfig{MaxRequests: 10, Window: time.Second}, config.RateLimit.Policies[PolicyStrict])
	assert.True(t, config.RateLimit.Inbound.Enabled)
	assert.Contains(t, config.RateLimit.Policies, config.RateLimit.Inbound.Policy)

	// Test storage defaults
	assert.Equal(t, StorageTypeJSON, config.Storage.Type)
	assert.Equal(t, "./data/teams.json", config.Storage.Path)
	assert.Equal(t, 25, config.Storage.Database.MaxOpenConns)
	assert.NotNil(t, config.Storage.Options)

	// Test cache defaults
	assert.True(t, config.Cache.Enabled)
	assert.Equal(t, CacheTypeMemory, config.Cache.Type)
	assert.Equal(t, 5*time.Minute, config.Cache.TTL)
	assert.Equal(t, 1000, config.Cache.Memory.MaxSize)

	// Test logging defaults
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "json", config.Logging.Format)
	assert.Equal(t, "stdout", config.Logging.Output)
	assert.Equal(t, 100, config.Logging.MaxSize)

	// Test metrics and observability defaults
	assert.True(t, config.Metrics.Enabled)
	assert.Equal(t, 9090, config.Metrics.Port)
	assert.Equal(t, "pokedex", config.Observability.ServiceName)
	assert.False(t, config.Observability.Tracing.Enabled)

	require.NoError(t, config.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *Config)
		errorMsg string
	}{
		{
			name:     "invalid server port",
			mutate:   func(c *Config) { c.Server.Port = -1 },
			errorMsg: "invalid server config",
		},
		{
			name: "tls without cert",
			mutate: func(c *Config) {
				c.Server.TLSEnabled = true
				c.Server.TLSKeyFile = "key.pem"
			},
			errorMsg: "TLS cert file is required",
		},
		{
			name:     "missing strict policy",
			mutate:   func(c *Config) { delete(c.RateLimit.Policies, PolicyStrict) },
			errorMsg: `policy "strict" must be configured`,
		},
		{
			name: "non-positive policy window",
			mutate: func(c *Config) {
				c.RateLimit.Policies["burst"] = PolicyConfig{MaxRequests: 5, Window: 0}
			},
			errorMsg: `policy "burst": window must be positive`,
		},
		{
			name: "non-positive policy max requests",
			mutate: func(c *Config) {
				c.RateLimit.Policies[PolicyDefault] = PolicyConfig{MaxRequests: 0, Window: time.Second}
			},
			errorMsg: "max requests must be positive",
		},
		{
			name:     "unknown inbound policy",
			mutate:   func(c *Config) { c.RateLimit.Inbound.Policy = "missing" },
			errorMsg: `inbound policy "missing" is not configured`,
		},
		{
			name:     "negative limiter cleanup interval",
			mutate:   func(c *Config) { c.RateLimit.CleanupInterval = -time.Second },
			errorMsg: "cleanup interval cannot be negative",
		},
		{
			name:     "malformed trusted proxy",
			mutate:   func(c *Config) { c.RateLimit.Inbound.TrustedProxies = []string{"10.0.0.0/8", "proxy.local"} },
			errorMsg: `invalid trusted proxy "proxy.local"`,
		},
		{
			name:     "unknown upstream policy",
			mutate:   func(c *Config) { c.Upstream.Policy = "missing" },
			errorMsg: "unknown rate limit policy: missing",
		},
		{
			name:     "max interval below initial",
			mutate:   func(c *Config) { c.Upstream.MaxInterval = time.Millisecond },
			errorMsg: "retry intervals",
		},
		{
			name:     "table too large",
			mutate:   func(c *Config) { c.Upstream.TableSize = 5000 },
			errorMsg: "table size",
		},
		{
			name:     "unknown storage type",
			mutate:   func(c *Config) { c.Storage.Type = "mongo" },
			errorMsg: "invalid storage type: mongo",
		},
		{
			name:     "sqlite without dsn",
			mutate:   func(c *Config) { c.Storage.Type = StorageTypeSQLite },
			errorMsg: "database DSN is required",
		},
		{
			name:     "redis without address",
			mutate:   func(c *Config) { c.Cache.Type = CacheTypeRedis },
			errorMsg: "redis address is required",
		},
		{
			name:     "file logging without path",
			mutate:   func(c *Config) { c.Logging.Output = "file" },
			errorMsg: "file path is required",
		},
		{
			name:     "bad log level",
			mutate:   func(c *Config) { c.Logging.Level = "verbose" },
			errorMsg: "invalid log level",
		},
		{
			name: "otlp without endpoint",
			mutate: func(c *Config) {
				c.Observability.Tracing.Enabled = true
				c.Observability.Tracing.Exporter = "otlp"
			},
			errorMsg: "OTLP endpoint is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewDefaultConfig()
			tt.mutate(config)

			err := config.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestCacheConfig_ValidateDisabled(t *testing.T) {
	cc := CacheConfig{Enabled: false, Type: "bogus"}
	assert.NoError(t, cc.Validate())
}

func TestMetricsConfig_ValidateDisabled(t *testing.T) {
	mc := MetricsConfig{Enabled: false}
	assert.NoError(t, mc.Validate())
}
