// Package team builds, validates and stores pokemon teams.
package team

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"pokedex/internal/fetch"
	"pokedex/internal/models"
	"pokedex/internal/pokeapi"
	"pokedex/internal/storage"
	"pokedex/internal/validation"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service handles team creation and lookup business logic
type Service struct {
	storage  storage.Storage
	resolver Resolver
	now      func() time.Time
}

// NewService creates a new team service with the given storage backend and
// pokemon resolver
func NewService(storage storage.Storage, resolver Resolver) *Service {
	return &Service{
		storage:  storage,
		resolver: resolver,
		now:      time.Now,
	}
}

// Create validates req, resolves its members and persists the new team.
func (s *Service) Create(ctx context.Context, req *models.CreateTeamRequest) (*models.Team, error) {
	if req == nil {
		return nil, NewInvalidRequestError("request body is required", nil)
	}

	req.Name = strings.TrimSpace(validation.SanitizeString(req.Name))
	req.Trainer = strings.TrimSpace(validation.SanitizeString(req.Trainer))
	req.Email = strings.TrimSpace(req.Email)
	for i := range req.Members {
		req.Members[i].Pokemon = strings.TrimSpace(req.Members[i].Pokemon)
		req.Members[i].Nickname = strings.TrimSpace(validation.SanitizeString(req.Members[i].Nickname))
	}
	req.Normalize()

	if err := validation.ValidateStruct(req); err != nil {
		var fe validation.FieldErrors
		if errors.As(err, &fe) {
			return nil, NewValidationError("team validation failed", fe)
		}
		return nil, NewInternalError("failed to validate team", err)
	}

	members, err := s.resolveMembers(ctx, req.Members)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	team := &models.Team{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Trainer:   req.Trainer,
		Email:     req.Email,
		Members:   members,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.storage.SaveTeam(ctx, team); err != nil {
		return nil, NewInternalError("failed to save team", err)
	}

	slog.InfoContext(ctx, "Team created", "team_id", team.ID, "members", len(team.Members))
	return team, nil
}

// resolveMembers looks every member up upstream, fills in the canonical
// name and rejects the same pokemon appearing twice.
func (s *Service) resolveMembers(ctx context.Context, reqs []models.TeamMemberRequest) ([]models.TeamMember, error) {
	members := make([]models.TeamMember, 0, len(reqs))
	seen := make(map[int]int, len(reqs))
	details := make(map[string]string)

	for i, m := range reqs {
		field := fmt.Sprintf("members[%d].pokemon", i)

		p, err := s.resolver.GetPokemon(ctx, m.Pokemon)
		switch {
		case err == nil:
		case errors.Is(err, pokeapi.ErrInvalidIdentifier):
			details[field] = fmt.Sprintf("%s is not a valid pokemon id or name", field)
			continue
		case errors.Is(err, pokeapi.ErrNotFound):
			details[field] = fmt.Sprintf("pokemon '%s' does not exist", m.Pokemon)
			continue
		case errors.Is(err, fetch.ErrRateLimitExceeded):
			return nil, NewRateLimitError(err)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		default:
			return nil, NewUpstreamError("failed to resolve pokemon", err)
		}

		if first, dup := seen[p.ID]; dup {
			details[field] = fmt.Sprintf("%s duplicates members[%d]", p.Name, first)
			continue
		}
		seen[p.ID] = i

		members = append(members, models.TeamMember{
			PokemonID: p.ID,
			Name:      p.Name,
			Nickname:  m.Nickname,
			Level:     m.Level,
		})
	}

	if len(details) > 0 {
		return nil, NewValidationError("team validation failed", details)
	}
	return members, nil
}

// Get returns the team with the given ID.
func (s *Service) Get(ctx context.Context, id string) (*models.Team, error) {
	if strings.TrimSpace(id) == "" {
		return nil, NewInvalidRequestError("team id is required", nil)
	}

	team, err := s.storage.GetTeam(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrTeamNotFound) {
			return nil, NewTeamNotFoundError(id)
		}
		return nil, NewInternalError("failed to get team", err)
	}
	return team, nil
}

// List returns every stored team.
func (s *Service) List(ctx context.Context) ([]*models.Team, error) {
	teams, err := s.storage.Teams(ctx)
	if err != nil {
		return nil, NewInternalError("failed to list teams", err)
	}
	return teams, nil
}

// Delete removes the team with the given ID.
func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return NewInvalidRequestError("team id is required", nil)
	}

	if err := s.storage.DeleteTeam(ctx, id); err != nil {
		if errors.Is(err, storage.ErrTeamNotFound) {
			return NewTeamNotFoundError(id)
		}
		return NewInternalError("failed to delete team", err)
	}

	slog.InfoContext(ctx, "Team deleted", "team_id", id)
	return nil
}
