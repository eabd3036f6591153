package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/resqbites/matcher/internal/match"
	"github.com/resqbites/matcher/internal/store"
)

// APIHandler serves the match list, stats and lookups
type APIHandler struct {
	Store *store.Store
}

// MatchListResponse is the filtered, sorted view of the store
type MatchListResponse struct {
	Category string       `json:"category"`
	Sort     string       `json:"sort"`
	Count    int          `json:"count"`
	Total    int          `json:"total"`
	Matches  []match.View `json:"matches"`
}

// CategoriesResponse lists the filter choices
type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

// Health reports that the server is up and how many records it holds
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"records": h.Store.Len(),
		"source":  h.Store.Source(),
	})
}

// ListMatches returns the records for ?category= ordered by ?sort=
func (h *APIHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	fs, err := parseFilterSort(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_filter", err.Error())
		return
	}

	records := h.Store.View(fs)
	writeJSON(w, http.StatusOK, MatchListResponse{
		Category: fs.Category,
		Sort:     string(fs.Sort),
		Count:    len(records),
		Total:    h.Store.Len(),
		Matches:  match.Views(records),
	})
}

// GetMatch returns one record by donor and recipient id
func (h *APIHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	record, ok := h.Store.Lookup(vars["donor"], vars["recipient"])
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "no match for "+vars["donor"]+"/"+vars["recipient"])
		return
	}
	writeJSON(w, http.StatusOK, record.View())
}

// GetStats returns the aggregates over the whole store. They ignore any
// filter on purpose.
func (h *APIHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Store.Stats())
}

// ListCategories returns the filter choices, "All Categories" first
func (h *APIHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CategoriesResponse{Categories: match.FilterOptions()})
}
