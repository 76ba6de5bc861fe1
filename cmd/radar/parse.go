package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/internship-radar/internal/dedup"
	"github.com/jonathan/internship-radar/internal/observability"
	"github.com/jonathan/internship-radar/internal/parsing"
	"github.com/jonathan/internship-radar/internal/types"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file.md>",
	Short: "Parse a markdown job table into jobs",
	Long:  "Parse a local copy of an aggregator README into normalized jobs, optionally deduplicated, and print them as a summary or JSON.",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

var (
	parseSource  string
	parseJobType string
	parseRegion  string
	parseDedupe  bool
	parseJSON    bool
)

func init() {
	parseCmd.Flags().StringVar(&parseSource, "source", parsing.DefaultSource, "Source label stamped on each job")
	parseCmd.Flags().StringVar(&parseJobType, "job-type", types.JobTypeInternship, "Job type tag (internship or new-grad)")
	parseCmd.Flags().StringVar(&parseRegion, "region", types.RegionUSA, "Region tag (usa or international)")
	parseCmd.Flags().BoolVar(&parseDedupe, "dedupe", true, "Collapse rows describing the same job")
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "Print jobs as JSON")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	meta := parsing.SourceMetadata{
		Source:  parseSource,
		File:    args[0],
		JobType: parseJobType,
		Region:  parseRegion,
	}
	jobs, err := parseFile(args[0], meta, parseDedupe)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if parseJSON {
		return writeJSON(out, jobs)
	}
	observability.NewPrinter(out).PrintParsedJobs(jobs)
	return nil
}

func parseFile(path string, meta parsing.SourceMetadata, dedupe bool) ([]types.ScrapedJob, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	jobs := parsing.ParseJobsFromMarkdown(string(content), meta)
	if dedupe {
		jobs = dedup.Deduplicate(jobs)
	}
	return jobs, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return nil
}
