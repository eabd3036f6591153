package store

import (
	"context"
	"fmt"
	"math"
	"regexp"

	"github.com/resqbites/matcher/internal/db"
	"github.com/resqbites/matcher/internal/debug"
	"github.com/resqbites/matcher/internal/match"
)

// DefaultTable is where the matching engine writes its results
const DefaultTable = "match_results"

// Schema is the table the SQL sources read. seq preserves the engine's
// output order. The app only ever reads it.
const Schema = `CREATE TABLE IF NOT EXISTS match_results (
	seq              INTEGER PRIMARY KEY,
	donor_id         TEXT NOT NULL,
	recipient_id     TEXT NOT NULL,
	match_percentage REAL NOT NULL,
	distance_km      REAL NOT NULL,
	food_category    TEXT NOT NULL,
	quantity_kg      REAL NOT NULL,
	hours_to_expiry  REAL NOT NULL,
	priority         TEXT NOT NULL,
	donor_lat        REAL NOT NULL,
	donor_lon        REAL NOT NULL,
	recipient_lat    REAL NOT NULL,
	recipient_lon    REAL NOT NULL,
	UNIQUE (donor_id, recipient_id)
);`

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// LoadSQL reads every row of table (DefaultTable when empty) in seq order
func LoadSQL(ctx context.Context, conn *db.Connection, table string, localDebug bool) (*Store, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	query := `
		SELECT
			donor_id, recipient_id, match_percentage, distance_km,
			food_category, quantity_kg, hours_to_expiry, priority,
			donor_lat, donor_lon, recipient_lat, recipient_lon
		FROM ` + table + `
		ORDER BY seq`

	debug.Output(localDebug, "querying %s via %s", table, conn.Driver)

	rows, err := conn.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var records []match.Record
	for rows.Next() {
		var r match.Record
		var pct float64
		var priority string
		if err := rows.Scan(
			&r.DonorID, &r.RecipientID, &pct, &r.DistanceKm,
			&r.FoodCategory, &r.QuantityKg, &r.HoursToExpiry, &priority,
			&r.DonorLat, &r.DonorLon, &r.RecipientLat, &r.RecipientLon,
		); err != nil {
			return nil, fmt.Errorf("failed to scan %s row %d: %w", table, len(records), err)
		}
		r.MatchPercentage = int(math.Round(pct))
		r.Priority = match.Priority(priority)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}

	debug.Output(localDebug, "read %d rows from %s", len(records), table)

	return New(conn.Driver+":"+table, records)
}
