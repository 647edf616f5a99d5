// Package models - Pokemon catalog records.
// This file defines the flattened pokemon shapes the service returns, independent
// of PokeAPI's nested wire format.
package models

import (
	"strings"
)

// Pokemon is one catalog row with the fields the table and team views need.
type Pokemon struct {
	ID             int      `json:"id"`
	Name           string   `json:"name"`
	Height         int      `json:"height"`          // decimetres
	Weight         int      `json:"weight"`          // hectograms
	BaseExperience int      `json:"base_experience"` // zero when upstream reports null
	Types          []string `json:"types"`           // slot order
	Sprite         string   `json:"sprite,omitempty"`
	Stats          []Stat   `json:"stats,omitempty"`
}

type Stat struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// TypeLabel joins the pokemon's types with a slash, e.g. "grass/poison".
func (p *Pokemon) TypeLabel() string {
	return strings.Join(p.Types, "/")
}

// HasType reports whether the pokemon has the named type, ignoring case.
func (p *Pokemon) HasType(name string) bool {
	for _, t := range p.Types {
		if strings.EqualFold(t, name) {
			return true
		}
	}
	return false
}

// PokemonSummary is one entry of a paged listing.
type PokemonSummary struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// PokemonPage is a paged listing. Next and Previous are offsets, nil at the
// ends of the list.
type PokemonPage struct {
	Count    int              `json:"count"`
	Offset   int              `json:"offset"`
	Limit    int              `json:"limit"`
	Next     *int             `json:"next"`
	Previous *int             `json:"previous"`
	Results  []PokemonSummary `json:"results"`
}
