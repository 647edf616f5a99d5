package pokeapi

import (
	"net/url"
	"path"
	"pokedex/internal/models"
	"strconv"
	"strings"
)

// apiNamedResource is PokeAPI's {name, url} reference.
type apiNamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type apiList struct {
	Count    int                `json:"count"`
	Next     *string            `json:"next"`
	Previous *string            `json:"previous"`
	Results  []apiNamedResource `json:"results"`
}

type apiPokemon struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	Height         int    `json:"height"`
	Weight         int    `json:"weight"`
	BaseExperience *int   `json:"base_experience"`
	Types          []struct {
		Slot int              `json:"slot"`
		Type apiNamedResource `json:"type"`
	} `json:"types"`
	Sprites struct {
		FrontDefault *string `json:"front_default"`
	} `json:"sprites"`
	Stats []struct {
		BaseStat int              `json:"base_stat"`
		Stat     apiNamedResource `json:"stat"`
	} `json:"stats"`
}

func (p *apiPokemon) toModel() *models.Pokemon {
	m := &models.Pokemon{
		ID:     p.ID,
		Name:   p.Name,
		Height: p.Height,
		Weight: p.Weight,
		Types:  make([]string, 0, len(p.Types)),
		Stats:  make([]models.Stat, 0, len(p.Stats)),
	}
	if p.BaseExperience != nil {
		m.BaseExperience = *p.BaseExperience
	}
	if p.Sprites.FrontDefault != nil {
		m.Sprite = *p.Sprites.FrontDefault
	}

	// Upstream lists types by slot, but do not rely on it.
	types := make([]string, len(p.Types)+1)
	for _, t := range p.Types {
		if t.Slot > 0 && t.Slot < len(types) && types[t.Slot] == "" {
			types[t.Slot] = t.Type.Name
		} else {
			types = append(types, t.Type.Name)
		}
	}
	for _, name := range types {
		if name != "" {
			m.Types = append(m.Types, name)
		}
	}

	for _, s := range p.Stats {
		m.Stats = append(m.Stats, models.Stat{Name: s.Stat.Name, Value: s.BaseStat})
	}
	return m
}

// idFromResourceURL extracts the trailing numeric id from a resource URL such
// as https://pokeapi.co/api/v2/pokemon/25/.
func idFromResourceURL(raw string) int {
	u, err := url.Parse(raw)
	if err != nil {
		return 0
	}
	id, err := strconv.Atoi(path.Base(strings.TrimSuffix(u.Path, "/")))
	if err != nil {
		return 0
	}
	return id
}

// offsetFromPageURL reads the offset query parameter of a next/previous link.
func offsetFromPageURL(raw *string) *int {
	if raw == nil {
		return nil
	}
	u, err := url.Parse(*raw)
	if err != nil {
		return nil
	}
	offset, err := strconv.Atoi(u.Query().Get("offset"))
	if err != nil {
		offset = 0
	}
	return &offset
}
