package handlers

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resqbites/matcher/internal/maplayer"
	"github.com/resqbites/matcher/internal/match"
	"github.com/resqbites/matcher/internal/store"
)

const testToken = "pk.eyJ1IjoicmVzcWJpdGVzIn0.c2lnbmF0dXJl"

type testEnv struct {
	router   *mux.Router
	store    *store.Store
	registry *maplayer.Registry
	scenes   *maplayer.SceneRenderer
}

func newTestEnv(t *testing.T, exportEnabled bool) *testEnv {
	t.Helper()

	st, err := store.LoadBundled()
	require.NoError(t, err)

	cfg := &Config{}
	cfg.Features.ExportEnabled = exportEnabled
	cfg.Map.Style = maplayer.DefaultStyle
	cfg.Map.Zoom = maplayer.DefaultZoom

	scenes := maplayer.NewSceneRenderer()
	registry := maplayer.NewRegistry(scenes, maplayer.Options{})

	api := &APIHandler{Store: st}
	maps := &MapsHandler{Store: st, Registry: registry, Scenes: scenes}
	export := &ExportHandler{Store: st, Config: cfg}
	pages, err := NewPagesHandler(st, cfg)
	require.NoError(t, err)

	r := mux.NewRouter()
	r.HandleFunc("/health", api.Health).Methods("GET")
	r.HandleFunc("/api/matches", api.ListMatches).Methods("GET")
	r.HandleFunc("/api/matches/geojson", maps.GetGeoJSON).Methods("GET")
	r.HandleFunc("/api/matches/{donor}/{recipient}", api.GetMatch).Methods("GET")
	r.HandleFunc("/api/stats", api.GetStats).Methods("GET")
	r.HandleFunc("/api/categories", api.ListCategories).Methods("GET")
	r.HandleFunc("/api/export", export.ExportCSV).Methods("GET")
	r.HandleFunc("/api/map/sessions", maps.CreateSession).Methods("POST")
	r.HandleFunc("/api/map/sessions/{container}", maps.GetSession).Methods("GET")
	r.HandleFunc("/api/map/sessions/{container}", maps.DeleteSession).Methods("DELETE")
	r.HandleFunc("/api/map/sessions/{container}/load", maps.LoadSession).Methods("POST")
	r.HandleFunc("/", pages.Home).Methods("GET")
	r.HandleFunc("/dashboard", pages.Dashboard).Methods("GET")
	r.HandleFunc("/map", pages.Map).Methods("GET")

	return &testEnv{router: r, store: st, registry: registry, scenes: scenes}
}

func (e *testEnv) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 20, body["records"])
	assert.Equal(t, store.SourceEmbedded, body["source"])
}

func TestListMatches(t *testing.T) {
	env := newTestEnv(t, true)

	t.Run("default is every category by match", func(t *testing.T) {
		rec := env.do(t, "GET", "/api/matches", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var body MatchListResponse
		decode(t, rec, &body)
		assert.Equal(t, match.AllCategories, body.Category)
		assert.Equal(t, "match", body.Sort)
		assert.Equal(t, 20, body.Count)
		assert.Equal(t, 20, body.Total)
		for i := 1; i < len(body.Matches); i++ {
			assert.GreaterOrEqual(t, body.Matches[i-1].MatchPercentage, body.Matches[i].MatchPercentage)
		}
		for _, m := range body.Matches {
			assert.NotEmpty(t, m.Key)
			assert.NotEmpty(t, m.ExpiryLabel)
			assert.Contains(t, []string{"urgent", "warning", "normal"}, string(m.Urgency))
			assert.Contains(t, []string{"excellent", "good", "fair"}, string(m.Tier))
		}
		assert.Equal(t, match.Views(env.store.View(match.DefaultFilterSort())), body.Matches)
	})

	t.Run("category filter and expiry sort", func(t *testing.T) {
		rec := env.do(t, "GET", "/api/matches?category=Packaged+Food&sort=expiry", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var body MatchListResponse
		decode(t, rec, &body)
		assert.Equal(t, 3, body.Count)
		assert.Equal(t, 20, body.Total)
		for i, m := range body.Matches {
			assert.Equal(t, "Packaged Food", m.FoodCategory)
			if i > 0 {
				assert.LessOrEqual(t, body.Matches[i-1].HoursToExpiry, m.HoursToExpiry)
			}
		}
	})

	t.Run("bad parameters", func(t *testing.T) {
		for _, target := range []string{"/api/matches?sort=distance", "/api/matches?category=Drinks"} {
			rec := env.do(t, "GET", target, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code, target)

			var body ErrorResponse
			decode(t, rec, &body)
			assert.Equal(t, "invalid_filter", body.Error)
		}
	})
}

func TestStatsIgnoreFilter(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, "GET", "/api/stats?category=Packaged+Food", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got match.Stats
	decode(t, rec, &got)
	assert.Equal(t, match.ComputeStats(env.store.Records()), got)
}

func TestGetMatch(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, "GET", "/api/matches/D1/R21", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body match.View
	decode(t, rec, &body)
	assert.Equal(t, "D1/R21", body.Key)
	assert.Equal(t, 59, body.MatchPercentage)
	assert.Equal(t, match.UrgencyUrgent, body.Urgency)
	assert.Equal(t, "6h", body.ExpiryLabel)

	rec = env.do(t, "GET", "/api/matches/D1/R99", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListCategories(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, "GET", "/api/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body CategoriesResponse
	decode(t, rec, &body)
	assert.Equal(t, match.FilterOptions(), body.Categories)
	assert.Equal(t, match.AllCategories, body.Categories[0])
}

func TestGeoJSON(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, "GET", "/api/matches/geojson?category=Prepared+Meals", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))

	var fc maplayer.FeatureCollection
	decode(t, rec, &fc)
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Len(t, fc.Features, 7)
}

func TestExportCSV(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		env := newTestEnv(t, true)

		rec := env.do(t, "GET", "/api/export?category=Fresh+Produce&sort=expiry", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "matches-fresh-produce-expiry.csv")

		rows, err := csv.NewReader(rec.Body).ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, 11)
		assert.Equal(t, exportHeader, rows[0])
		for _, row := range rows[1:] {
			assert.Equal(t, "Fresh Produce", row[4])
		}
	})

	t.Run("disabled", func(t *testing.T) {
		env := newTestEnv(t, false)

		rec := env.do(t, "GET", "/api/export", nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestMapSessionLifecycle(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, "POST", "/api/map/sessions", SessionRequest{Container: "map-1", Token: testToken})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created SessionResponse
	decode(t, rec, &created)
	assert.Equal(t, "map-1", created.Container)
	assert.Equal(t, "active", created.State)
	assert.NotEmpty(t, created.Handle)
	assert.Equal(t, maplayer.DefaultStyle, created.Init.Style)
	assert.Nil(t, created.Scene)

	rec = env.do(t, "POST", "/api/map/sessions/map-1/load", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var loaded SessionResponse
	decode(t, rec, &loaded)
	require.NotNil(t, loaded.Scene)
	assert.True(t, loaded.Scene.Loaded)
	require.Len(t, loaded.Scene.Sources, 1)
	assert.Len(t, loaded.Scene.Sources[maplayer.LineSourceID].Features, 20)
	assert.Len(t, loaded.Scene.Layers, 1)
	assert.Len(t, loaded.Scene.Markers, 40)

	rec = env.do(t, "GET", "/api/map/sessions/map-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, "DELETE", "/api/map/sessions/map-1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, env.registry.Active())
	assert.Equal(t, 0, env.scenes.Mounted())

	rec = env.do(t, "POST", "/api/map/sessions/map-1/load", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, "GET", "/api/map/sessions/map-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// deleting again is harmless
	rec = env.do(t, "DELETE", "/api/map/sessions/map-1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMapSessionReplacesWidget(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, "POST", "/api/map/sessions", SessionRequest{Container: "map-1", Token: testToken})
	require.Equal(t, http.StatusCreated, rec.Code)
	var first SessionResponse
	decode(t, rec, &first)

	rec = env.do(t, "POST", "/api/map/sessions", SessionRequest{Container: "map-1", Token: testToken})
	require.Equal(t, http.StatusCreated, rec.Code)
	var second SessionResponse
	decode(t, rec, &second)

	assert.NotEqual(t, first.Handle, second.Handle)
	assert.Equal(t, 1, env.scenes.Mounted())
	assert.Equal(t, []string{"map-1"}, env.registry.Active())
}

func TestMapSessionErrors(t *testing.T) {
	env := newTestEnv(t, true)

	tests := []struct {
		name   string
		body   interface{}
		status int
		code   string
	}{
		{"missing container", SessionRequest{Token: testToken}, http.StatusBadRequest, "missing_container"},
		{"missing token", SessionRequest{Container: "map-1"}, http.StatusUnprocessableEntity, "invalid_credential"},
		{"secret token", SessionRequest{Container: "map-1", Token: "sk.abc.def"}, http.StatusUnprocessableEntity, "invalid_credential"},
		{"malformed token", SessionRequest{Container: "map-1", Token: "hello"}, http.StatusUnprocessableEntity, "invalid_credential"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, "POST", "/api/map/sessions", tt.body)
			assert.Equal(t, tt.status, rec.Code)

			var body ErrorResponse
			decode(t, rec, &body)
			assert.Equal(t, tt.code, body.Error)
			assert.NotEmpty(t, body.Message)
		})
	}

	req := httptest.NewRequest("POST", "/api/map/sessions", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, env.registry.Active())
	assert.Equal(t, 0, env.scenes.Mounted())
}

func TestMapSessionEmptyDataset(t *testing.T) {
	st, err := store.New("empty", nil)
	require.NoError(t, err)

	scenes := maplayer.NewSceneRenderer()
	h := &MapsHandler{Store: st, Registry: maplayer.NewRegistry(scenes, maplayer.Options{}), Scenes: scenes}

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(SessionRequest{Container: "map-1", Token: testToken}))
	rec := httptest.NewRecorder()
	h.CreateSession(rec, httptest.NewRequest("POST", "/api/map/sessions", &buf))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body ErrorResponse
	decode(t, rec, &body)
	assert.Equal(t, "empty_dataset", body.Error)
	assert.Equal(t, 0, scenes.Mounted())
}
