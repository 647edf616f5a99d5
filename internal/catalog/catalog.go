// Package catalog filters, sorts and pages the pokemon table, and exports it
// as CSV.
package catalog

import (
	"cmp"
	"encoding/csv"
	"fmt"
	"io"
	"pokedex/internal/models"
	"pokedex/internal/validation"
	"slices"
	"strconv"
	"strings"
)

// Sortable columns.
const (
	SortByID             = "id"
	SortByName           = "name"
	SortByHeight         = "height"
	SortByWeight         = "weight"
	SortByBaseExperience = "base_experience"
)

const (
	OrderAsc  = "asc"
	OrderDesc = "desc"

	DefaultLimit = 50
	MaxLimit     = 500
)

var sortKeys = map[string]func(a, b *models.Pokemon) int{
	SortByID:             func(a, b *models.Pokemon) int { return cmp.Compare(a.ID, b.ID) },
	SortByName:           func(a, b *models.Pokemon) int { return strings.Compare(a.Name, b.Name) },
	SortByHeight:         func(a, b *models.Pokemon) int { return cmp.Compare(a.Height, b.Height) },
	SortByWeight:         func(a, b *models.Pokemon) int { return cmp.Compare(a.Weight, b.Weight) },
	SortByBaseExperience: func(a, b *models.Pokemon) int { return cmp.Compare(a.BaseExperience, b.BaseExperience) },
}

// Query selects a window of the table.
type Query struct {
	Search string // case-insensitive substring of the name
	Type   string // exact type name, case-insensitive
	SortBy string
	Order  string
	Offset int
	Limit  int
}

// Normalize sanitizes the search text and fills defaults.
func (q *Query) Normalize() {
	q.Search = strings.ToLower(validation.SanitizeSearchQuery(q.Search))
	q.Type = strings.ToLower(strings.TrimSpace(q.Type))
	q.SortBy = strings.ToLower(strings.TrimSpace(q.SortBy))
	q.Order = strings.ToLower(strings.TrimSpace(q.Order))
	if q.SortBy == "" {
		q.SortBy = SortByID
	}
	if q.Order == "" {
		q.Order = OrderAsc
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
}

func (q *Query) Validate() error {
	if _, ok := sortKeys[q.SortBy]; !ok {
		return fmt.Errorf("unsupported sort column: %s", q.SortBy)
	}
	if q.Order != OrderAsc && q.Order != OrderDesc {
		return fmt.Errorf("unsupported sort order: %s", q.Order)
	}
	return nil
}

// Result is one window of matching rows.
type Result struct {
	Rows  []*models.Pokemon
	Total int // matches before windowing
}

// Apply filters and sorts rows and cuts the requested window. The input slice
// is not modified. Ties are broken by id so paging is stable.
func Apply(rows []*models.Pokemon, q Query) (Result, error) {
	q.Normalize()
	matched, err := Sorted(rows, q)
	if err != nil {
		return Result{}, err
	}

	total := len(matched)
	start := min(q.Offset, total)
	end := min(start+q.Limit, total)
	return Result{Rows: matched[start:end], Total: total}, nil
}

// Sorted returns every row matching q in q's order, ignoring the window.
// CSV export uses it so a download is not capped at MaxLimit rows.
func Sorted(rows []*models.Pokemon, q Query) ([]*models.Pokemon, error) {
	q.Normalize()
	if err := q.Validate(); err != nil {
		return nil, err
	}

	matched := Filter(rows, q)
	compare := sortKeys[q.SortBy]
	slices.SortStableFunc(matched, func(a, b *models.Pokemon) int {
		c := compare(a, b)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if q.Order == OrderDesc {
			return -c
		}
		return c
	})
	return matched, nil
}

// Filter returns the rows matching q's search text and type, in input order.
func Filter(rows []*models.Pokemon, q Query) []*models.Pokemon {
	matched := make([]*models.Pokemon, 0, len(rows))
	for _, p := range rows {
		if p == nil {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(p.Name), q.Search) {
			continue
		}
		if q.Type != "" && !p.HasType(q.Type) {
			continue
		}
		matched = append(matched, p)
	}
	return matched
}

var csvHeader = []string{"id", "name", "types", "height", "weight", "base_experience"}

// WriteCSV writes rows with a header line.
func WriteCSV(w io.Writer, rows []*models.Pokemon) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, p := range rows {
		record := []string{
			strconv.Itoa(p.ID),
			p.Name,
			p.TypeLabel(),
			strconv.Itoa(p.Height),
			strconv.Itoa(p.Weight),
			strconv.Itoa(p.BaseExperience),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
