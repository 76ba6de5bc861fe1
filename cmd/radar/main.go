// Package main provides the entry point for the internship radar CLI and
// HTTP server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "radar",
	Short: "Internship radar job ingestion and matching",
	Long:  "Radar scrapes community-maintained internship tables, enriches and deduplicates the postings, stores them in PostgreSQL and scores them against user résumés and preferences.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "JSON config file; unset fields fall back to the environment")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
