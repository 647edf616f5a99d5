package api

import (
	"bytes"
	"fmt"
	"net/http"
	"pokedex/internal/catalog"
	"pokedex/internal/models"
	"pokedex/internal/pokeapi"
	"pokedex/internal/validation"
	"strings"

	"github.com/gorilla/mux"
)

// ListPokemon handles infinite grid pages
// GET /api/v1/pokemon?offset=&limit=
func (h *Handlers) ListPokemon(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, models.ErrorCodeInvalidRequest, err.Error())
		return
	}
	limit, err := queryInt(r, "limit", pokeapi.DefaultPageLimit)
	if err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, models.ErrorCodeInvalidRequest, err.Error())
		return
	}

	page, err := h.pokemon.ListPokemon(r.Context(), offset, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, page)
}

// GetPokemon handles detail requests by national dex id or name
// GET /api/v1/pokemon/{id}
func (h *Handlers) GetPokemon(w http.ResponseWriter, r *http.Request) {
	pokemon, err := h.pokemon.GetPokemon(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, pokemon)
}

// GetTable handles one window of the sortable, filterable table
// GET /api/v1/table?q=&type=&sort_by=&order=&offset=&limit=
func (h *Handlers) GetTable(w http.ResponseWriter, r *http.Request) {
	q, err := tableQuery(r)
	if err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, models.ErrorCodeInvalidRequest, err.Error())
		return
	}

	rows, err := h.pokemon.ListAll(r.Context(), h.tableSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	q.Normalize()
	result, err := catalog.Apply(rows, q)
	if err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, models.ErrorCodeInvalidRequest, err.Error())
		return
	}

	h.writeJSONResponse(w, http.StatusOK, &models.TableResponse{
		Rows:   result.Rows,
		Total:  result.Total,
		Offset: q.Offset,
		Limit:  q.Limit,
	})
}

// ExportTable downloads the filtered, sorted table as CSV. The ids parameter
// restricts the export to selected rows.
// GET /api/v1/table/export.csv?q=&type=&sort_by=&order=&ids=1,4,7
func (h *Handlers) ExportTable(w http.ResponseWriter, r *http.Request) {
	q, err := tableQuery(r)
	if err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, models.ErrorCodeInvalidRequest, err.Error())
		return
	}

	selected, err := selectedIDs(r.URL.Query().Get("ids"))
	if err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, models.ErrorCodeInvalidRequest, err.Error())
		return
	}

	rows, err := h.pokemon.ListAll(r.Context(), h.tableSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	rows, err = catalog.Sorted(rows, q)
	if err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, models.ErrorCodeInvalidRequest, err.Error())
		return
	}
	if selected != nil {
		kept := make([]*models.Pokemon, 0, len(selected))
		for _, p := range rows {
			if _, ok := selected[p.ID]; ok {
				kept = append(kept, p)
			}
		}
		rows = kept
	}

	// Render first so a write error can still become a JSON 500.
	var buf bytes.Buffer
	if err := catalog.WriteCSV(&buf, rows); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="pokemon.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func tableQuery(r *http.Request) (catalog.Query, error) {
	params := r.URL.Query()
	q := catalog.Query{
		Search: params.Get("q"),
		Type:   params.Get("type"),
		SortBy: params.Get("sort_by"),
		Order:  params.Get("order"),
	}

	var err error
	if q.Offset, err = queryInt(r, "offset", 0); err != nil {
		return q, err
	}
	if q.Limit, err = queryInt(r, "limit", catalog.DefaultLimit); err != nil {
		return q, err
	}
	return q, nil
}

// selectedIDs parses a comma-separated id list. An empty list selects
// everything and returns nil.
func selectedIDs(raw string) (map[int]struct{}, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	ids := make(map[int]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, ok := validation.ParsePokemonID(part)
		if !ok {
			return nil, fmt.Errorf("invalid pokemon id in ids: %q", part)
		}
		ids[id] = struct{}{}
	}
	return ids, nil
}
