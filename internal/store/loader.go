package store

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/resqbites/matcher/internal/db"
	"github.com/resqbites/matcher/internal/debug"
	"github.com/resqbites/matcher/internal/match"
)

//go:embed data/matches.json
var bundledMatches []byte

// Source kinds accepted by Open
const (
	SourceEmbedded = "embedded"
	SourceFile     = "file"
	SourcePostgres = "postgres"
	SourceSQLite   = "sqlite"
)

// Options selects where Open reads match records from
type Options struct {
	Source      string // embedded (default), file, postgres, sqlite
	File        string // JSON file for SourceFile
	DatabaseURL string // postgres connection URL
	SQLitePath  string // sqlite database file
	Table       string // defaults to DefaultTable
}

// Open loads the store once from the configured source
func Open(ctx context.Context, opts Options, localDebug bool) (*Store, error) {
	defer debug.Section(localDebug, "store.Open")()
	defer debug.Timing(localDebug, "load "+opts.Source)()

	switch opts.Source {
	case "", SourceEmbedded:
		return LoadBundled()
	case SourceFile:
		return LoadFile(opts.File)
	case SourcePostgres, SourceSQLite:
		driver, dsn := db.DriverPostgres, opts.DatabaseURL
		if opts.Source == SourceSQLite {
			driver, dsn = db.DriverSQLite, opts.SQLitePath
		}
		if dsn == "" {
			return nil, fmt.Errorf("%s source needs a connection string", opts.Source)
		}
		conn, err := db.NewConnection(ctx, driver, dsn)
		if err != nil {
			return nil, err
		}
		defer conn.Close()
		return LoadSQL(ctx, conn, opts.Table, localDebug)
	}
	return nil, fmt.Errorf("unknown match source %q", opts.Source)
}

// LoadBundled loads the dataset compiled into the binary
func LoadBundled() (*Store, error) {
	return LoadJSON(SourceEmbedded, bytes.NewReader(bundledMatches))
}

// LoadFile loads records from a JSON array file
func LoadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open match file %s: %w", path, err)
	}
	defer f.Close()

	return LoadJSON(path, f)
}

// LoadJSON decodes a JSON array of records in the engine's export format
func LoadJSON(source string, r io.Reader) (*Store, error) {
	var records []match.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", source, err)
	}
	return New(source, records)
}
