package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"goattend/adapters/sqlstore"
	"goattend/domain/ingestion"
	"goattend/internal/config"
	"goattend/internal/container"
	"goattend/internal/migration"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "goattend",
		Short:        "Attendance roster ingestion and maintenance",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newIngestCmd(),
		newCleanupCmd(),
		newMigrateCmd(),
		newClearCmd(),
		newStatsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openContainer loads configuration, opens and migrates the store, and wires services
func openContainer(ctx context.Context) (*container.Container, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	db, err := sqlstore.Open(cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	if err := migration.NewRunner().Run(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	c, err := container.New(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := c.InitWithDatabase(db); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func newIngestCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ingest [files...]",
		Short: "Ingest roster spreadsheets (.xlsx, .xls, .csv)",
		Long: `Read each roster, parse its course columns and merge the attendance into the store.
Files are processed one at a time; a failure in one file does not stop the rest.

Example: goattend ingest rosters/IT-A.xlsx rosters/IT-B.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := openContainer(ctx)
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			var total ingestion.MergeSummary
			failed := 0
			for _, path := range args {
				result, err := c.Uploads.IngestPath(ctx, path)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
				} else {
					total.Add(result.Summary)
				}
				if asJSON {
					out, _ := json.Marshal(result)
					fmt.Fprintln(cmd.OutOrStdout(), string(out))
					continue
				}
				if err == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s, unresolved=%d, batches=%d\n",
						result.Name, result.Summary, result.Summary.Unresolved, result.Summary.Batches)
				}
			}

			if !asJSON && len(args) > 1 {
				fmt.Fprintf(cmd.OutOrStdout(), "total: %s, unresolved=%d, batches=%d\n", total, total.Unresolved, total.Batches)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d file(s) failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print one JSON result per file")

	return cmd
}

func newCleanupCmd() *cobra.Command {
	var minConducted int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove attendance records with too few conducted periods",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			removed, err := c.Reports.CleanupInsufficient(cmd.Context(), minConducted)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d record(s) with fewer than %d conducted periods\n", removed, minConducted)
			return nil
		},
	}

	cmd.Flags().IntVar(&minConducted, "min-conducted", config.DefaultIngestConfig().MinConducted, "Minimum conducted periods to keep a record")

	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			fmt.Fprintf(cmd.OutOrStdout(), "Schema is at version %s\n", migration.NewRunner().Version())
			return nil
		},
	}
}

func newClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every attendance record, student and course",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear data without --yes")
			}
			c, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			if err := c.Reports.ClearAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All data cleared successfully")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion of all data")

	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print dashboard statistics as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			stats, err := c.Reports.DashboardStats(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		},
	}
}
