package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jonathan/internship-radar/internal/observability"
)

var digestJSON bool

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Send the weekly digest to subscribed users",
	RunE:  runDigest,
}

func init() {
	digestCmd.Flags().BoolVar(&digestJSON, "json", false, "Print the result as JSON")
	rootCmd.AddCommand(digestCmd)
}

func runDigest(cmd *cobra.Command, _ []string) error {
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

	res, err := svc.digest.Send(ctx)
	if err != nil {
		return err
	}
	if digestJSON {
		return writeJSON(cmd.OutOrStdout(), res)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintDigestResult(res)
	return nil
}
