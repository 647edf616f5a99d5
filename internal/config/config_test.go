package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"pokedex/internal/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  host: "127.0.0.1"
  read_timeout: 15s
  cors:
    enabled: true
    allowed_origins: ["https://pokedex.example.com"]

upstream:
  base_url: "https://pokeapi.example.com/api/v2"
  timeout: 5s
  policy: strict
  max_retries: 2
  initial_interval: 500ms
  max_interval: 10s
  workers: 4
  table_size: 151

rate_limit:
  policies:
    inbound:
      max_requests: 30
      window: 10s
  inbound:
    enabled: true
    policy: inbound

storage:
  type: "sqlite"
  database:
    dsn: "/var/lib/pokedex/teams.db"

logging:
  level: "debug"
  format: "text"
  output: "stdout"

cache:
  enabled: true
  type: "memory"
  ttl: 2m
  memory:
    max_size: 250
    cleanup_interval: 1m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"https://pokedex.example.com"}, cfg.Server.CORS.AllowedOrigins)

	assert.Equal(t, "https://pokeapi.example.com/api/v2", cfg.Upstream.BaseURL)
	assert.Equal(t, models.PolicyStrict, cfg.Upstream.Policy)
	assert.Equal(t, 2, cfg.Upstream.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Upstream.InitialInterval)
	assert.Equal(t, 151, cfg.Upstream.TableSize)

	// File policies merge with the built-in ones.
	assert.Equal(t, models.PolicyConfig{MaxRequests: 30, Window: 10 * time.Second}, cfg.RateLimit.Policies["inbound"])
	assert.Equal(t, models.PolicyConfig{MaxRequests: 100, Window: time.Minute}, cfg.RateLimit.Policies[models.PolicyDefault])
	assert.Equal(t, models.PolicyConfig{MaxRequests: 10, Window: time.Second}, cfg.RateLimit.Policies[models.PolicyStrict])

	assert.Equal(t, models.StorageTypeSQLite, cfg.Storage.Type)
	assert.Equal(t, "/var/lib/pokedex/teams.db", cfg.Storage.Database.DSN)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)

	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 250, cfg.Cache.Memory.MaxSize)
}

func TestLoad_WithDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://pokeapi.co/api/v2", cfg.Upstream.BaseURL)
	assert.Equal(t, 3, cfg.Upstream.MaxRetries)
	assert.Equal(t, time.Second, cfg.Upstream.InitialInterval)
	assert.Equal(t, 30*time.Second, cfg.Upstream.MaxInterval)
	assert.Equal(t, models.StorageTypeJSON, cfg.Storage.Type)
	assert.Equal(t, models.CacheTypeMemory, cfg.Cache.Type)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.True(t, cfg.RateLimit.Inbound.Enabled)
}

func TestLoad_WithEnvironmentVariables(t *testing.T) {
	t.Setenv("POKEDEX_PORT", "9999")
	t.Setenv("POKEDEX_HOST", "localhost")
	t.Setenv("POKEDEX_READ_TIMEOUT", "45s")
	t.Setenv("POKEDEX_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("POKEDEX_UPSTREAM_POLICY", "strict")
	t.Setenv("POKEDEX_UPSTREAM_WORKERS", "2")
	t.Setenv("POKEDEX_RATE_LIMIT_DEFAULT_MAX_REQUESTS", "50")
	t.Setenv("POKEDEX_RATE_LIMIT_STRICT_WINDOW", "2s")
	t.Setenv("POKEDEX_RATE_LIMIT_INBOUND_ENABLED", "false")
	t.Setenv("POKEDEX_RATE_LIMIT_TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.7")
	t.Setenv("POKEDEX_RATE_LIMIT_CLEANUP_INTERVAL", "30s")
	t.Setenv("POKEDEX_STORAGE_TYPE", "memory")
	t.Setenv("POKEDEX_LOG_LEVEL", "warn")
	t.Setenv("POKEDEX_LOG_FORMAT", "text")
	t.Setenv("POKEDEX_CACHE_TYPE", "redis")
	t.Setenv("POKEDEX_REDIS_ADDR", "redis:6379")
	t.Setenv("POKEDEX_REDIS_DB", "3")
	t.Setenv("POKEDEX_METRICS_PORT", "9191")
	t.Setenv("POKEDEX_TRACING_ENABLED", "true")
	t.Setenv("POKEDEX_TRACING_SAMPLE_RATE", "0.25")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 45*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORS.AllowedOrigins)
	assert.Equal(t, models.PolicyStrict, cfg.Upstream.Policy)
	assert.Equal(t, 2, cfg.Upstream.Workers)
	assert.Equal(t, 50, cfg.RateLimit.Policies[models.PolicyDefault].MaxRequests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Policies[models.PolicyDefault].Window)
	assert.Equal(t, 2*time.Second, cfg.RateLimit.Policies[models.PolicyStrict].Window)
	assert.False(t, cfg.RateLimit.Inbound.Enabled)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.7"}, cfg.RateLimit.Inbound.TrustedProxies)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.CleanupInterval)
	assert.Equal(t, models.StorageTypeMemory, cfg.Storage.Type)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, models.CacheTypeRedis, cfg.Cache.Type)
	assert.Equal(t, "redis:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, 3, cfg.Cache.Redis.DB)
	assert.Equal(t, 9191, cfg.Metrics.Port)
	assert.True(t, cfg.Observability.Tracing.Enabled)
	assert.Equal(t, 0.25, cfg.Observability.Tracing.SampleRate)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 7000\n")
	t.Setenv("POKEDEX_PORT", "7001")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Server.Port)
}

func TestLoad_InvalidEnvironmentValuesAreIgnored(t *testing.T) {
	t.Setenv("POKEDEX_PORT", "eighty")
	t.Setenv("POKEDEX_CACHE_TTL", "forever")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
}

func TestLoad_NonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.ErrorContains(t, err, "config file not found")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server:\n  port: [not, a, number\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse YAML config")
}

func TestLoad_EmptyConfigFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, models.NewDefaultConfig().Server.Port, cfg.Server.Port)
}

func TestLoad_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name:    "unknown upstream policy",
			content: "upstream:\n  policy: turbo\n",
			errMsg:  "unknown rate limit policy",
		},
		{
			name:    "zero window",
			content: "rate_limit:\n  policies:\n    default:\n      max_requests: 5\n",
			errMsg:  "window must be positive",
		},
		{
			name:    "postgres without dsn",
			content: "storage:\n  type: postgres\n",
			errMsg:  "database DSN is required",
		},
		{
			name:    "redis without address",
			content: "cache:\n  type: redis\n",
			errMsg:  "redis address is required",
		},
		{
			name:    "table too large",
			content: "upstream:\n  table_size: 2000\n",
			errMsg:  "table size must be between 1 and 1025",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoad_UnknownSectionStillLoads(t *testing.T) {
	cfg, err := Load(writeConfig(t, "security:\n  enable_auth: true\nserver:\n  port: 8181\n"))
	require.NoError(t, err)
	assert.Equal(t, 8181, cfg.Server.Port)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a ,, b "))
	assert.Empty(t, splitList(" , "))
}

func TestSaveExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "example.yaml")
	require.NoError(t, SaveExample(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var cfg models.Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, "localhost:6379", cfg.Cache.Redis.Addr)
	assert.Contains(t, cfg.Storage.Database.DSN, "postgres://")

	// The example must load as-is.
	_, err = Load(path)
	assert.NoError(t, err)
}
