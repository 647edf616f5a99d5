package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo()

	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.GitCommit)
	assert.NotEmpty(t, info.BuildDate)
	assert.NotEmpty(t, info.InstanceID)
	assert.NotEmpty(t, info.Hostname)

	// Instance ID and hostname are computed once per process.
	again := GetInfo()
	assert.Equal(t, info.InstanceID, again.InstanceID)
	assert.Equal(t, info.Hostname, again.Hostname)
}

func TestInfoString(t *testing.T) {
	tests := []struct {
		name     string
		info     Info
		expected string
	}{
		{
			name:     "full version info",
			info:     Info{Version: "1.2.3", GitCommit: "abc1234", BuildDate: "2026-02-21T10:00:00Z"},
			expected: "pokedex version 1.2.3 (commit: abc1234, built: 2026-02-21T10:00:00Z)",
		},
		{
			name:     "unknown values",
			info:     Info{Version: "unknown", GitCommit: "unknown", BuildDate: "unknown"},
			expected: "pokedex version unknown (commit: unknown, built: unknown)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.info.String())
		})
	}
}

func TestInfoUserAgent(t *testing.T) {
	info := Info{Version: "1.0.0", InstanceID: "1234"}
	assert.Equal(t, "pokedex/1.0.0 (+instance 1234)", info.UserAgent())
}

func TestFillFromBuildInfo(t *testing.T) {
	bi := &debug.BuildInfo{
		Main: debug.Module{Version: "v0.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}

	t.Run("fills unknown fields", func(t *testing.T) {
		got := fillFromBuildInfo(Info{Version: unknown, GitCommit: unknown, BuildDate: unknown}, bi)
		assert.Equal(t, "v0.4.0", got.Version)
		assert.Equal(t, "0123456789ab-dirty", got.GitCommit)
		assert.Equal(t, "2026-01-02T03:04:05Z", got.BuildDate)
	})

	t.Run("keeps ldflags values", func(t *testing.T) {
		got := fillFromBuildInfo(Info{Version: "1.0.0", GitCommit: "abc", BuildDate: "yesterday"}, bi)
		assert.Equal(t, "1.0.0", got.Version)
		assert.Equal(t, "abc", got.GitCommit)
		assert.Equal(t, "yesterday", got.BuildDate)
	})

	t.Run("devel build", func(t *testing.T) {
		got := fillFromBuildInfo(Info{Version: unknown, GitCommit: unknown}, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
		assert.Equal(t, unknown, got.Version)
		assert.Equal(t, unknown, got.GitCommit)
	})
}

func TestHostname(t *testing.T) {
	assert.NotEmpty(t, hostname())
}
