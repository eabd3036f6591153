package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/resqbites/matcher/internal/match"
)

// Config is the part of the server configuration handlers need
// (kept here to avoid an import cycle with package web)
type Config struct {
	Features struct {
		ExportEnabled bool `json:"export_enabled"`
	} `json:"features"`
	Map struct {
		Style string  `json:"style"`
		Zoom  float64 `json:"zoom"`
	} `json:"map"`
}

// ErrorResponse is the JSON body of every failed API call
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// parseFilterSort reads ?category= and ?sort=, defaulting to every category
// ordered by match percentage
func parseFilterSort(r *http.Request) (match.FilterSort, error) {
	query := r.URL.Query()
	fs := match.DefaultFilterSort()

	if category := strings.TrimSpace(query.Get("category")); category != "" {
		if category != match.AllCategories && !match.IsCategory(category) {
			return fs, fmt.Errorf("unknown category %q", category)
		}
		fs.Category = category
	}

	sortKey, err := match.ParseSortKey(query.Get("sort"))
	if err != nil {
		return fs, err
	}
	fs.Sort = sortKey

	return fs, nil
}
