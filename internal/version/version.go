// Package version carries build metadata for the pokedex binary. The
// variables are stamped with -ldflags at build time; when they are not, the
// VCS stamp the Go toolchain embeds is used instead.
package version

import (
	"fmt"
	"os"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
)

const unknown = "unknown"

var (
	// Set via: -ldflags "-X pokedex/internal/version.Version=..."
	Version = unknown

	// Set via: -ldflags "-X pokedex/internal/version.BuildDate=..."
	BuildDate = unknown

	// Set via: -ldflags "-X pokedex/internal/version.GitCommit=..."
	GitCommit = unknown
)

// Info holds all build metadata and runtime information.
type Info struct {
	Version    string `json:"version"`
	GitCommit  string `json:"git_commit"`
	BuildDate  string `json:"build_date"`
	InstanceID string `json:"instance_id"`
	Hostname   string `json:"hostname"`
}

var (
	once sync.Once
	info Info
)

// GetInfo returns build metadata and runtime information. The instance ID
// identifies this process in logs, traces and the upstream User-Agent; it is
// generated once per process.
func GetInfo() Info {
	once.Do(func() {
		info = Info{
			Version:    Version,
			GitCommit:  GitCommit,
			BuildDate:  BuildDate,
			InstanceID: uuid.NewString(),
			Hostname:   hostname(),
		}
		if bi, ok := debug.ReadBuildInfo(); ok {
			info = fillFromBuildInfo(info, bi)
		}
	})
	return info
}

// fillFromBuildInfo replaces unknown fields with the module version and VCS
// settings recorded by the toolchain.
func fillFromBuildInfo(i Info, bi *debug.BuildInfo) Info {
	if i.Version == unknown && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		i.Version = bi.Main.Version
	}

	var fromVCS, modified bool
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if i.GitCommit == unknown && s.Value != "" {
				i.GitCommit = s.Value[:min(len(s.Value), 12)]
				fromVCS = true
			}
		case "vcs.time":
			if i.BuildDate == unknown && s.Value != "" {
				i.BuildDate = s.Value
			}
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
	if fromVCS && modified {
		i.GitCommit += "-dirty"
	}
	return i
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return unknown
	}
	return h
}

// String formats version info for CLI display.
func (i Info) String() string {
	return fmt.Sprintf("pokedex version %s (commit: %s, built: %s)", i.Version, i.GitCommit, i.BuildDate)
}

// UserAgent is the User-Agent sent to PokeAPI.
func (i Info) UserAgent() string {
	return fmt.Sprintf("pokedex/%s (+instance %s)", i.Version, i.InstanceID)
}
