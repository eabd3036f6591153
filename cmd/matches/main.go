package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/resqbites/matcher/internal/config"
	"github.com/resqbites/matcher/internal/maplayer"
	"github.com/resqbites/matcher/internal/match"
	"github.com/resqbites/matcher/internal/store"
)

var (
	sourceOpts store.Options
	localDebug bool
)

func main() {
	config.LoadEnv()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "matches",
		Short:         "Inspect food donation match results",
		Long:          `Reads the matching engine's donor/recipient results and prints lists, aggregates and GeoJSON`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&sourceOpts.Source, "source", config.GetEnv("MATCH_SOURCE", store.SourceEmbedded), "record source: embedded, file, postgres or sqlite")
	flags.StringVar(&sourceOpts.File, "file", config.GetEnv("MATCH_FILE", ""), "JSON file for --source=file")
	flags.StringVar(&sourceOpts.DatabaseURL, "database-url", config.GetEnv("DATABASE_URL", ""), "postgres connection URL")
	flags.StringVar(&sourceOpts.SQLitePath, "sqlite", config.GetEnv("SQLITE_PATH", ""), "sqlite database file")
	flags.StringVar(&sourceOpts.Table, "table", config.GetEnv("MATCH_TABLE", store.DefaultTable), "table holding the results")
	flags.BoolVar(&localDebug, "debug", config.GetEnvBool("DEBUG", false), "print debug output")

	rootCmd.AddCommand(createListCmd())
	rootCmd.AddCommand(createStatsCmd())
	rootCmd.AddCommand(createGeoJSONCmd())
	rootCmd.AddCommand(createValidateCmd())
	rootCmd.AddCommand(createSchemaCmd())

	return rootCmd
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	return store.Open(ctx, sourceOpts, localDebug)
}

func parseFilterSort(category, sortKey string) (match.FilterSort, error) {
	fs := match.DefaultFilterSort()
	if category != "" {
		if category != match.AllCategories && !match.IsCategory(category) {
			return fs, fmt.Errorf("unknown category %q (choose from %v)", category, match.FilterOptions())
		}
		fs.Category = category
	}

	key, err := match.ParseSortKey(sortKey)
	if err != nil {
		return fs, err
	}
	fs.Sort = key
	return fs, nil
}

// createListCmd prints the filtered, sorted records as a table
func createListCmd() *cobra.Command {
	var category, sortKey string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List matches for a category, ordered by match or expiry",
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := parseFilterSort(category, sortKey)
			if err != nil {
				return err
			}
			st, err := openStore(cmd)
			if err != nil {
				return err
			}

			views := match.Views(st.View(fs))
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(views)
			}

			fmt.Fprintf(out, "%-12s %-12s %6s %-15s %9s %8s %7s %-6s\n",
				"DONOR", "RECIPIENT", "MATCH", "CATEGORY", "QTY(kg)", "DIST", "EXPIRY", "PRIO")
			for _, v := range views {
				fmt.Fprintf(out, "%-12s %-12s %5d%% %-15s %9.1f %6.1fkm %7s %-6s\n",
					v.DonorID, v.RecipientID, v.MatchPercentage, v.FoodCategory,
					v.QuantityKg, v.DistanceKm, v.ExpiryLabel, v.Priority)
			}
			fmt.Fprintf(out, "\nShowing %d of %d matches (%s, by %s)\n", len(views), st.Len(), fs.Category, fs.Sort)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", match.AllCategories, "food category to show")
	cmd.Flags().StringVar(&sortKey, "sort", string(match.SortByMatch), "sort key: match or expiry")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

// createStatsCmd prints the dashboard aggregates
func createStatsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show average match, total quantity, urgent and high priority counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}

			stats := st.Stats()
			out := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(out).Encode(stats)
			}

			fmt.Fprintf(out, "Source:               %s\n", st.Source())
			fmt.Fprintf(out, "Matches:              %d\n", st.Len())
			fmt.Fprintf(out, "Average match:        %d%%\n", stats.AvgMatchPercentage)
			fmt.Fprintf(out, "Total quantity:       %.2f kg\n", stats.TotalQuantityKg)
			fmt.Fprintf(out, "Urgent (<= %dh):       %d\n", match.UrgentHours, stats.UrgentCount)
			fmt.Fprintf(out, "High priority:        %d\n", stats.HighPriorityCount)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// createGeoJSONCmd writes the match lines as a FeatureCollection
func createGeoJSONCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "geojson",
		Short: "Print donor to recipient lines as GeoJSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := parseFilterSort(category, "")
			if err != nil {
				return err
			}
			st, err := openStore(cmd)
			if err != nil {
				return err
			}

			records := st.View(fs)
			if len(records) == 0 {
				return maplayer.ErrEmptyDataset
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(maplayer.LineFeatures(records))
		},
	}

	cmd.Flags().StringVar(&category, "category", match.AllCategories, "food category to include")
	return cmd
}

// createValidateCmd loads the source and reports the first broken record
func createValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that every record in the source is well formed",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				var verr *store.ValidationError
				if errors.As(err, &verr) {
					return fmt.Errorf("record %d of %s is invalid: %w", verr.Index, verr.Source, verr.Err)
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d records OK\n", st.Source(), st.Len())
			return nil
		},
	}
}

// createSchemaCmd prints the DDL the matching engine should write to
func createSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the SQL table definition read by the sql sources",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), store.Schema)
		},
	}
}
