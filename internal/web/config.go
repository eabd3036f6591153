package web

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/resqbites/matcher/internal/config"
	"github.com/resqbites/matcher/internal/maplayer"
	"github.com/resqbites/matcher/internal/store"
)

// Config represents the web server configuration
type Config struct {
	Server   ServerConfig  `json:"server"`
	Source   SourceConfig  `json:"source"`
	Map      MapConfig     `json:"map"`
	Features FeatureConfig `json:"features"`
	CORS     CORSConfig    `json:"cors"`
	Debug    bool          `json:"debug"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port int    `json:"port"`
	Host string `json:"host"`
}

// SourceConfig selects where match records are loaded from
type SourceConfig struct {
	Kind        string `json:"kind"`
	File        string `json:"file"`
	DatabaseURL string `json:"database_url"`
	SQLitePath  string `json:"sqlite_path"`
	Table       string `json:"table"`
}

// MapConfig contains map widget defaults
type MapConfig struct {
	Style string  `json:"style"`
	Zoom  float64 `json:"zoom"`
}

// FeatureConfig contains feature toggles
type FeatureConfig struct {
	ExportEnabled bool `json:"export_enabled"`
}

// CORSConfig lists the origins allowed to call the API
type CORSConfig struct {
	Origins []string `json:"origins"`
}

// StoreOptions converts the source settings for store.Open
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Source:      c.Source.Kind,
		File:        c.Source.File,
		DatabaseURL: c.Source.DatabaseURL,
		SQLitePath:  c.Source.SQLitePath,
		Table:       c.Source.Table,
	}
}

// Addr is the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// LoadConfig loads configuration from a JSON file on top of the defaults
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	return cfg, nil
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "0.0.0.0",
		},
		Source: SourceConfig{
			Kind:  store.SourceEmbedded,
			Table: store.DefaultTable,
		},
		Map: MapConfig{
			Style: maplayer.DefaultStyle,
			Zoom:  maplayer.DefaultZoom,
		},
		Features: FeatureConfig{
			ExportEnabled: true,
		},
	}
}

// FromEnv builds the configuration from environment variables, falling
// back to the defaults for anything unset
func FromEnv() *Config {
	def := DefaultConfig()

	return &Config{
		Server: ServerConfig{
			Port: config.GetEnvInt("WEB_PORT", def.Server.Port),
			Host: config.GetEnv("WEB_HOST", def.Server.Host),
		},
		Source: SourceConfig{
			Kind:        config.GetEnv("MATCH_SOURCE", def.Source.Kind),
			File:        config.GetEnv("MATCH_FILE", ""),
			DatabaseURL: config.GetEnv("DATABASE_URL", ""),
			SQLitePath:  config.GetEnv("SQLITE_PATH", ""),
			Table:       config.GetEnv("MATCH_TABLE", def.Source.Table),
		},
		Map: MapConfig{
			Style: config.GetEnv("MAP_STYLE", def.Map.Style),
			Zoom:  config.GetEnvFloat("MAP_ZOOM", def.Map.Zoom),
		},
		Features: FeatureConfig{
			ExportEnabled: config.GetEnvBool("ENABLE_EXPORT", def.Features.ExportEnabled),
		},
		CORS: CORSConfig{
			Origins: config.GetEnvList("CORS_ORIGINS", nil),
		},
		Debug: config.GetEnvBool("DEBUG", false),
	}
}
