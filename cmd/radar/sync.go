package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/internship-radar/internal/ingestion"
	"github.com/jonathan/internship-radar/internal/observability"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Scrape, enrich and store jobs once",
	Long:  "Run the scrapers due at an hour, enrich new postings, upsert everything into PostgreSQL and alert subscribers. With --clear-only nothing is scraped.",
	RunE:  runSync,
}

var (
	syncHour      int
	syncClear     bool
	syncClearOnly bool
	syncJSON      bool
)

func init() {
	syncCmd.Flags().IntVar(&syncHour, "hour", -1, "UTC hour deciding which scrapers run (defaults to now)")
	syncCmd.Flags().BoolVar(&syncClear, "clear", false, "Delete GitHub postings before syncing")
	syncCmd.Flags().BoolVar(&syncClearOnly, "clear-only", false, "Delete GitHub postings and stop")
	syncCmd.Flags().BoolVar(&syncJSON, "json", false, "Print the result as JSON")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	hour, err := resolveHour(syncHour, time.Now())
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	svc, err := buildServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	out := cmd.OutOrStdout()
	if syncClearOnly {
		deleted, err := svc.sync.Clear(ctx)
		if err != nil {
			return fmt.Errorf("failed to clear jobs: %w", err)
		}
		_, _ = fmt.Fprintf(out, "Deleted %d jobs\n", deleted)
		return nil
	}

	res, err := svc.sync.Sync(ctx, hour, ingestion.SyncOptions{ClearFirst: syncClear})
	if err != nil {
		return err
	}
	if syncJSON {
		return writeJSON(out, res)
	}
	observability.NewPrinter(out).PrintSyncResult(res)
	return nil
}

// resolveHour returns flag when set, else the current UTC hour
func resolveHour(flag int, now time.Time) (int, error) {
	if flag < 0 {
		return now.UTC().Hour(), nil
	}
	if flag > 23 {
		return 0, fmt.Errorf("--hour must be between 0 and 23, got %d", flag)
	}
	return flag, nil
}
