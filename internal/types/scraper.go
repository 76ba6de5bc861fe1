package types

import "time"

// ScraperResult is the outcome of one scraper invocation. Source-level
// failures are reported in Errors rather than returned as an error so that
// one bad document does not hide the jobs parsed from the others.
type ScraperResult struct {
	Jobs       []ScrapedJob `json:"jobs"`
	Source     string       `json:"source"`
	ScrapedAt  time.Time    `json:"scraped_at"`
	TotalFound int          `json:"total_found"`
	Errors     []string     `json:"errors,omitempty"`
}

// ScraperStats summarizes an orchestrator run
type ScraperStats struct {
	ScrapersRun []string      `json:"scrapers_run"`
	TotalFound  int           `json:"total_found"`
	NewJobs     int           `json:"new_jobs"`
	Duplicates  int           `json:"duplicates"`
	Errors      []string      `json:"errors,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// OrchestratorResult holds deduplicated jobs and run statistics
type OrchestratorResult struct {
	Jobs  []ScrapedJob `json:"jobs"`
	Stats ScraperStats `json:"stats"`
}

// ScraperInfo describes a registered scraper
type ScraperInfo struct {
	Name    string `json:"name"`
	Tier    int    `json:"tier"`
	Enabled bool   `json:"enabled"`
}
