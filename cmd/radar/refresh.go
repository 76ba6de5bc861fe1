package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jonathan/internship-radar/internal/observability"
)

var refreshJSON bool

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Recompute stored match scores for every user",
	RunE:  runRefresh,
}

func init() {
	refreshCmd.Flags().BoolVar(&refreshJSON, "json", false, "Print the result as JSON")
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, _ []string) error {
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

	res, err := svc.refresher.Refresh(ctx)
	if err != nil {
		return err
	}
	if refreshJSON {
		return writeJSON(cmd.OutOrStdout(), res)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintRefreshResult(res)
	return nil
}
