// Package models - Team building records.
// This file defines stored teams and the request used to create one.
//
// Validation Strategy:
// - Struct tags drive go-playground/validator in the team service
// - Member identifiers are resolved against PokeAPI before a team is stored
package models

import (
	"slices"
	"time"
)

const (
	MaxTeamSize  = 6
	DefaultLevel = 50
)

// Team is a stored team of up to six pokemon.
type Team struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Trainer   string       `json:"trainer"`
	Email     string       `json:"email,omitempty"`
	Members   []TeamMember `json:"members"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// TeamMember is a resolved pokemon on a team.
type TeamMember struct {
	PokemonID int    `json:"pokemon_id"`
	Name      string `json:"name"`
	Nickname  string `json:"nickname,omitempty"`
	Level     int    `json:"level"`
}

// Clone returns a deep copy so storage backends never share member slices
// with callers.
func (t *Team) Clone() *Team {
	if t == nil {
		return nil
	}
	c := *t
	c.Members = slices.Clone(t.Members)
	return &c
}

// CreateTeamRequest is the body of POST /api/v1/teams.
type CreateTeamRequest struct {
	Name    string              `json:"name" validate:"required,min=2,max=50"`
	Trainer string              `json:"trainer" validate:"required,min=2,max=50"`
	Email   string              `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Members []TeamMemberRequest `json:"members" validate:"required,min=1,max=6,dive"`
}

// TeamMemberRequest names a pokemon by id or name.
type TeamMemberRequest struct {
	Pokemon  string `json:"pokemon" validate:"required,max=50"`
	Nickname string `json:"nickname,omitempty" validate:"omitempty,max=30"`
	Level    int    `json:"level,omitempty" validate:"omitempty,min=1,max=100"`
}

// Normalize fills defaults the validator cannot express.
func (r *CreateTeamRequest) Normalize() {
	for i := range r.Members {
		if r.Members[i].Level == 0 {
			r.Members[i].Level = DefaultLevel
		}
	}
}
