package web

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resqbites/matcher/internal/maplayer"
	"github.com/resqbites/matcher/internal/store"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, store.SourceEmbedded, cfg.Source.Kind)
	assert.Equal(t, maplayer.DefaultStyle, cfg.Map.Style)
	assert.EqualValues(t, maplayer.DefaultZoom, cfg.Map.Zoom)
	assert.True(t, cfg.Features.ExportEnabled)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("WEB_HOST", "127.0.0.1")
	t.Setenv("WEB_PORT", "9090")
	t.Setenv("MATCH_SOURCE", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/matches.db")
	t.Setenv("MAP_ZOOM", "12.5")
	t.Setenv("ENABLE_EXPORT", "false")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, http://localhost:5173")
	t.Setenv("DEBUG", "true")

	cfg := FromEnv()

	assert.Equal(t, "127.0.0.1:9090", cfg.Addr())
	opts := cfg.StoreOptions()
	assert.Equal(t, store.SourceSQLite, opts.Source)
	assert.Equal(t, "/tmp/matches.db", opts.SQLitePath)
	assert.Equal(t, store.DefaultTable, opts.Table)
	assert.Equal(t, 12.5, cfg.Map.Zoom)
	assert.Equal(t, maplayer.DefaultStyle, cfg.Map.Style)
	assert.False(t, cfg.Features.ExportEnabled)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.CORS.Origins)
	assert.True(t, cfg.Debug)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "web.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server":{"port":3000},"features":{"export_enabled":false}}`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.False(t, cfg.Features.ExportEnabled)
	assert.Equal(t, maplayer.DefaultStyle, cfg.Map.Style)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
