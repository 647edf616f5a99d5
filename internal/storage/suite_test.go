package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokedex/internal/models"
)

func newTestTeam(id string, created time.Time) *models.Team {
	return &models.Team{
		ID:      id,
		Name:    "Team " + id,
		Trainer: "Ash",
		Email:   "ash@example.com",
		Members: []models.TeamMember{
			{PokemonID: 25, Name: "pikachu", Nickname: "Sparky", Level: 50},
			{PokemonID: 6, Name: "charizard", Level: 62},
		},
		CreatedAt: created.UTC(),
		UpdatedAt: created.UTC(),
	}
}

// runStorageSuite exercises the behaviour every backend must share.
func runStorageSuite(t *testing.T, newStorage func(t *testing.T) Storage) {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("EmptyList", func(t *testing.T) {
		s := newStorage(t)
		teams, err := s.Teams(ctx)
		require.NoError(t, err)
		assert.NotNil(t, teams)
		assert.Empty(t, teams)
	})

	t.Run("SaveAndGet", func(t *testing.T) {
		s := newStorage(t)
		team := newTestTeam("team-1", base)
		require.NoError(t, s.SaveTeam(ctx, team))

		got, err := s.GetTeam(ctx, "team-1")
		require.NoError(t, err)
		assert.Equal(t, team.Name, got.Name)
		assert.Equal(t, team.Trainer, got.Trainer)
		assert.Equal(t, team.Email, got.Email)
		assert.Equal(t, team.Members, got.Members)
		assert.True(t, team.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := newStorage(t)
		_, err := s.GetTeam(ctx, "missing")
		assert.ErrorIs(t, err, ErrTeamNotFound)
	})

	t.Run("SaveRequiresID", func(t *testing.T) {
		s := newStorage(t)
		assert.Error(t, s.SaveTeam(ctx, &models.Team{Name: "no id"}))
		assert.Error(t, s.SaveTeam(ctx, nil))
	})

	t.Run("SaveReplacesExisting", func(t *testing.T) {
		s := newStorage(t)
		team := newTestTeam("team-1", base)
		require.NoError(t, s.SaveTeam(ctx, team))

		team.Name = "Renamed"
		team.Members = team.Members[:1]
		team.UpdatedAt = base.Add(time.Hour)
		require.NoError(t, s.SaveTeam(ctx, team))

		teams, err := s.Teams(ctx)
		require.NoError(t, err)
		require.Len(t, teams, 1)
		assert.Equal(t, "Renamed", teams[0].Name)
		assert.Len(t, teams[0].Members, 1)
		assert.True(t, base.Add(time.Hour).Equal(teams[0].UpdatedAt))
	})

	t.Run("ListOrderedByCreation", func(t *testing.T) {
		s := newStorage(t)
		require.NoError(t, s.SaveTeam(ctx, newTestTeam("c", base.Add(2*time.Minute))))
		require.NoError(t, s.SaveTeam(ctx, newTestTeam("b", base)))
		require.NoError(t, s.SaveTeam(ctx, newTestTeam("a", base)))

		teams, err := s.Teams(ctx)
		require.NoError(t, err)
		require.Len(t, teams, 3)
		assert.Equal(t, "a", teams[0].ID)
		assert.Equal(t, "b", teams[1].ID)
		assert.Equal(t, "c", teams[2].ID)
	})

	t.Run("Delete", func(t *testing.T) {
		s := newStorage(t)
		require.NoError(t, s.SaveTeam(ctx, newTestTeam("team-1", base)))
		require.NoError(t, s.DeleteTeam(ctx, "team-1"))

		_, err := s.GetTeam(ctx, "team-1")
		assert.ErrorIs(t, err, ErrTeamNotFound)
		assert.ErrorIs(t, s.DeleteTeam(ctx, "team-1"), ErrTeamNotFound)
	})

	t.Run("ReturnedTeamsAreCopies", func(t *testing.T) {
		s := newStorage(t)
		require.NoError(t, s.SaveTeam(ctx, newTestTeam("team-1", base)))

		got, err := s.GetTeam(ctx, "team-1")
		require.NoError(t, err)
		got.Name = "mutated"
		got.Members[0].Nickname = "mutated"

		again, err := s.GetTeam(ctx, "team-1")
		require.NoError(t, err)
		assert.Equal(t, "Team team-1", again.Name)
		assert.Equal(t, "Sparky", again.Members[0].Nickname)
	})

	t.Run("Ping", func(t *testing.T) {
		s := newStorage(t)
		assert.NoError(t, s.Ping(ctx))
	})

	t.Run("ConcurrentSaves", func(t *testing.T) {
		s := newStorage(t)
		var wg sync.WaitGroup
		for i := range 20 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, s.SaveTeam(ctx, newTestTeam(fmt.Sprintf("team-%02d", i), base)))
			}(i)
		}
		wg.Wait()

		teams, err := s.Teams(ctx)
		require.NoError(t, err)
		assert.Len(t, teams, 20)
	})
}
