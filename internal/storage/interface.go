package storage

import (
	"context"
	"pokedex/internal/models"
	"time"
)

// Storage defines the interface for team persistence and retrieval.
// It provides a clean abstraction that can be implemented by different backends
// such as JSON files or databases.
type Storage interface {
	// Teams returns all stored teams ordered by creation time
	Teams(ctx context.Context) ([]*models.Team, error)

	// GetTeam retrieves a team by its ID. It returns ErrTeamNotFound when
	// no such team exists.
	GetTeam(ctx context.Context, id string) (*models.Team, error)

	// SaveTeam stores or replaces a team
	SaveTeam(ctx context.Context, team *models.Team) error

	// DeleteTeam removes a team. It returns ErrTeamNotFound when no such
	// team exists.
	DeleteTeam(ctx context.Context, id string) error

	// Ping reports whether the backend is reachable
	Ping(ctx context.Context) error

	// Close closes the storage connection and cleans up resources
	Close() error
}

// Config holds configuration for storage backends
type Config struct {
	// Type specifies the storage backend type (json, memory, sqlite, postgres)
	Type string `json:"type" yaml:"type"`

	// Path is used for file-based storage backends
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// ConnectionString is used for database backends
	ConnectionString string `json:"connection_string,omitempty" yaml:"connection_string,omitempty"`

	// Pool settings for database backends
	MaxOpenConns    int           `json:"max_open_conns,omitempty" yaml:"max_open_conns,omitempty"`
	MaxIdleConns    int           `json:"max_idle_conns,omitempty" yaml:"max_idle_conns,omitempty"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime,omitempty" yaml:"conn_max_lifetime,omitempty"`

	// CacheTTL specifies how long the JSON backend trusts its in-memory copy
	CacheTTL string `json:"cache_ttl,omitempty" yaml:"cache_ttl,omitempty"`
}
