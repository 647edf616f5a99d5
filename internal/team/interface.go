package team

import (
	"context"
	"pokedex/internal/models"
)

// ServiceInterface defines the interface for team service operations
type ServiceInterface interface {
	// Create validates the request, resolves every member against PokeAPI
	// and stores the team
	Create(ctx context.Context, req *models.CreateTeamRequest) (*models.Team, error)

	// Get returns a stored team
	Get(ctx context.Context, id string) (*models.Team, error)

	// List returns all stored teams, oldest first
	List(ctx context.Context) ([]*models.Team, error)

	// Delete removes a stored team
	Delete(ctx context.Context, id string) error
}

// Resolver looks up a pokemon by national dex id or name.
// *pokeapi.Client satisfies it.
type Resolver interface {
	GetPokemon(ctx context.Context, idOrName string) (*models.Pokemon, error)
}

// Ensure Service implements ServiceInterface
var _ ServiceInterface = (*Service)(nil)
