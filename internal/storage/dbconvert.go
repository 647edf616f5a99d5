package storage

import (
	"encoding/json"
	"fmt"
	"pokedex/internal/models"
	"slices"
	"strings"
)

// marshalMembers converts team members to JSON bytes for a single column.
func marshalMembers(members []models.TeamMember) ([]byte, error) {
	if members == nil {
		members = []models.TeamMember{}
	}
	return json.Marshal(members)
}

// unmarshalMembers converts a JSON column back into team members.
func unmarshalMembers(data []byte) ([]models.TeamMember, error) {
	if len(data) == 0 {
		return []models.TeamMember{}, nil
	}
	var members []models.TeamMember
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, fmt.Errorf("failed to unmarshal members: %w", err)
	}
	if members == nil {
		members = []models.TeamMember{}
	}
	return members, nil
}

// sortTeams orders teams oldest first, breaking ties by ID.
func sortTeams(teams []*models.Team) {
	slices.SortFunc(teams, func(a, b *models.Team) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
