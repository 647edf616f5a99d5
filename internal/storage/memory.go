package storage

import (
	"context"
	"fmt"
	"pokedex/internal/models"
	"sync"
)

// MemoryStorage implements the Storage interface using in-memory data structures.
// This provider is ideal for development and testing; data is lost on restart.
type MemoryStorage struct {
	mu    sync.RWMutex
	teams map[string]*models.Team
}

// NewMemoryStorage creates a new memory-based storage instance
func NewMemoryStorage(config Config) (*MemoryStorage, error) {
	return &MemoryStorage{
		teams: make(map[string]*models.Team),
	}, nil
}

func (m *MemoryStorage) Teams(ctx context.Context) ([]*models.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	teams := make([]*models.Team, 0, len(m.teams))
	for _, team := range m.teams {
		teams = append(teams, team.Clone())
	}
	sortTeams(teams)
	return teams, nil
}

func (m *MemoryStorage) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	team, exists := m.teams[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrTeamNotFound, id)
	}
	return team.Clone(), nil
}

func (m *MemoryStorage) SaveTeam(ctx context.Context, team *models.Team) error {
	if team == nil || team.ID == "" {
		return fmt.Errorf("team ID is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Store a copy to prevent external modification
	m.teams[team.ID] = team.Clone()
	return nil
}

func (m *MemoryStorage) DeleteTeam(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.teams[id]; !exists {
		return fmt.Errorf("%w: %s", ErrTeamNotFound, id)
	}
	delete(m.teams, id)
	return nil
}

func (m *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}
