package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"

	"github.com/resqbites/matcher/internal/match"
	"github.com/resqbites/matcher/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// NavItem is one entry of the header navigation
type NavItem struct {
	Path   string
	Label  string
	Active bool
}

var navItems = []NavItem{
	{Path: "/", Label: "Home"},
	{Path: "/dashboard", Label: "Dashboard"},
	{Path: "/map", Label: "Map View"},
}

// Nav returns the navigation with the item for path marked active
func Nav(path string) []NavItem {
	items := make([]NavItem, len(navItems))
	for i, item := range navItems {
		item.Active = item.Path == path
		items[i] = item
	}
	return items
}

// PagesHandler renders the Home, Dashboard and Map pages
type PagesHandler struct {
	Store  *store.Store
	Config *Config

	pages map[string]*template.Template
}

type pageData struct {
	Title string
	Nav   []NavItem
	Stats match.Stats
	Total int
}

type dashboardData struct {
	pageData
	Options       []string
	Selected      match.FilterSort
	Matches       []match.View
	ExportEnabled bool
}

type mapData struct {
	pageData
	Style string
	Zoom  float64
}

// NewPagesHandler parses the embedded templates
func NewPagesHandler(st *store.Store, config *Config) (*PagesHandler, error) {
	funcs := template.FuncMap{
		"num": formatFloat,
		"kg": func(f float64) string {
			return strconv.FormatFloat(f, 'f', 2, 64)
		},
	}

	h := &PagesHandler{Store: st, Config: config, pages: make(map[string]*template.Template)}
	for _, name := range []string{"home.html", "dashboard.html", "map.html"} {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		h.pages[name] = t
	}
	return h, nil
}

func (h *PagesHandler) base(r *http.Request, title string) pageData {
	return pageData{
		Title: title,
		Nav:   Nav(r.URL.Path),
		Stats: h.Store.Stats(),
		Total: h.Store.Len(),
	}
}

// Home renders the landing page
func (h *PagesHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, "home.html", h.base(r, "Resqbites"))
}

// Dashboard renders the filterable match list. An unusable ?category= or
// ?sort= falls back to the default selection.
func (h *PagesHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	fs, err := parseFilterSort(r)
	if err != nil {
		fs = match.DefaultFilterSort()
	}

	h.render(w, "dashboard.html", dashboardData{
		pageData:      h.base(r, "Match Dashboard"),
		Options:       match.FilterOptions(),
		Selected:      fs,
		Matches:       match.Views(h.Store.View(fs)),
		ExportEnabled: h.Config.Features.ExportEnabled,
	})
}

// Map renders the map page; the map itself is mounted through the API
func (h *PagesHandler) Map(w http.ResponseWriter, r *http.Request) {
	h.render(w, "map.html", mapData{
		pageData: h.base(r, "Map Visualization"),
		Style:    h.Config.Map.Style,
		Zoom:     h.Config.Map.Zoom,
	})
}

func (h *PagesHandler) render(w http.ResponseWriter, name string, data interface{}) {
	var buf bytes.Buffer
	if err := h.pages[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Printf("template %s: %v", name, err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}
