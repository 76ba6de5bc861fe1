package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/internship-radar/internal/db"
	"github.com/jonathan/internship-radar/internal/observability"
	"github.com/jonathan/internship-radar/internal/parsing"
	"github.com/jonathan/internship-radar/internal/ranking"
	"github.com/jonathan/internship-radar/internal/types"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Rank jobs against a résumé and preferences",
	Long:  "Score jobs from a JSON file of postings or a markdown job table against a plain-text résumé and optional role, location and keyword preferences.",
	RunE:  runScore,
}

var (
	scoreResume    string
	scoreJobs      string
	scoreRoles     []string
	scoreLocations []string
	scoreKeywords  []string
	scoreLimit     int
	scoreJSON      bool
)

func init() {
	scoreCmd.Flags().StringVar(&scoreResume, "resume", "", "Path to plain-text résumé")
	scoreCmd.Flags().StringVar(&scoreJobs, "jobs", "", "Path to jobs (.json array of postings or .md table)")
	scoreCmd.Flags().StringSliceVar(&scoreRoles, "roles", nil, "Preferred roles")
	scoreCmd.Flags().StringSliceVar(&scoreLocations, "locations", nil, "Preferred locations")
	scoreCmd.Flags().StringSliceVar(&scoreKeywords, "keywords", nil, "Preferred keywords")
	scoreCmd.Flags().IntVar(&scoreLimit, "limit", ranking.DefaultRankLimit, "Maximum matches to print")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "Print matches as JSON")
	_ = scoreCmd.MarkFlagRequired("jobs")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	jobs, err := loadMatchJobs(scoreJobs)
	if err != nil {
		return err
	}

	var resumeText string
	if scoreResume != "" {
		content, err := os.ReadFile(scoreResume)
		if err != nil {
			return fmt.Errorf("failed to read resume: %w", err)
		}
		resumeText = string(content)
	}

	prefs := types.MatchPreferences{Roles: scoreRoles, Locations: scoreLocations, Keywords: scoreKeywords}
	resumeKeywords := ranking.ResumeKeywords(resumeText, nil)
	if len(resumeKeywords) == 0 && prefs.IsEmpty() {
		return fmt.Errorf("provide --resume or at least one of --roles, --locations, --keywords")
	}

	matches := ranking.RankJobMatches(jobs, resumeKeywords, prefs, scoreLimit)

	out := cmd.OutOrStdout()
	if scoreJSON {
		return writeJSON(out, matches)
	}
	observability.NewPrinter(out).WithMaxItems(scoreLimit).PrintMatches(matches, jobs)
	return nil
}

// loadMatchJobs reads a JSON array of postings, or parses a markdown table
// and keys each job by its source id
func loadMatchJobs(path string) ([]types.MatchJob, error) {
	if strings.EqualFold(filepath.Ext(path), ".md") {
		scraped, err := parseFile(path, parsing.SourceMetadata{File: path}, true)
		if err != nil {
			return nil, err
		}
		jobs := make([]types.MatchJob, len(scraped))
		for i, job := range scraped {
			row := db.ToDBJob(job)
			jobs[i] = row.MatchJob()
			jobs[i].ID = job.SourceID
		}
		return jobs, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read jobs file: %w", err)
	}
	var jobs []types.MatchJob
	if err := json.Unmarshal(content, &jobs); err != nil {
		return nil, fmt.Errorf("failed to parse jobs file: %w", err)
	}
	return jobs, nil
}
