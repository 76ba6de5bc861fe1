package scrapers

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jonathan/internship-radar/internal/fetch"
	"github.com/jonathan/internship-radar/internal/parsing"
	"github.com/jonathan/internship-radar/internal/types"
)

// GitHubSourceName is the source label stamped on GitHub-scraped jobs.
const GitHubSourceName = "github"

// DefaultRawBaseURL serves raw repository files.
const DefaultRawBaseURL = "https://raw.githubusercontent.com"

const githubFetchTimeout = 30 * time.Second

// RepoFile is one markdown job list in a GitHub repository.
type RepoFile struct {
	Owner   string
	Repo    string
	Branch  string
	File    string
	JobType string
	Region  string
}

// Path returns the owner/repo/file label used in logs and errors.
func (f RepoFile) Path() string {
	return fmt.Sprintf("%s/%s/%s", f.Owner, f.Repo, f.File)
}

// DefaultRepoFiles lists the 2026 SWE college job tables.
func DefaultRepoFiles() []RepoFile {
	const owner, repo = "speedyapply", "2026-SWE-College-Jobs"
	return []RepoFile{
		{Owner: owner, Repo: repo, Branch: "main", File: "README.md", JobType: types.JobTypeInternship, Region: types.RegionUSA},
		{Owner: owner, Repo: repo, Branch: "main", File: "NEW_GRAD_USA.md", JobType: types.JobTypeNewGrad, Region: types.RegionUSA},
		{Owner: owner, Repo: repo, Branch: "main", File: "INTERN_INTL.md", JobType: types.JobTypeInternship, Region: types.RegionIntl},
		{Owner: owner, Repo: repo, Branch: "main", File: "NEW_GRAD_INTL.md", JobType: types.JobTypeNewGrad, Region: types.RegionIntl},
	}
}

// GitHubScraper parses job tables from markdown files hosted on GitHub.
type GitHubScraper struct {
	Files   []RepoFile
	BaseURL string
	Fetcher fetch.Fetcher
	Parser  *parsing.Parser
}

// NewGitHubScraper returns a scraper over DefaultRepoFiles.
func NewGitHubScraper() *GitHubScraper {
	return &GitHubScraper{
		Files:   DefaultRepoFiles(),
		BaseURL: DefaultRawBaseURL,
		Fetcher: &fetch.HTTPFetcher{},
		Parser:  parsing.NewParser(),
	}
}

// Name implements Scraper.
func (s *GitHubScraper) Name() string { return "GitHub Jobs" }

// Tier implements Scraper.
func (s *GitHubScraper) Tier() Tier { return TierHourly }

// Enabled implements Scraper.
func (s *GitHubScraper) Enabled() bool { return len(s.Files) > 0 }

// Scrape fetches and parses every file. A file that cannot be fetched or is
// empty adds an error string and the remaining files are still processed.
func (s *GitHubScraper) Scrape(ctx context.Context) (*types.ScraperResult, error) {
	result := &types.ScraperResult{
		Source:    GitHubSourceName,
		ScrapedAt: time.Now(),
		Jobs:      []types.ScrapedJob{},
		Errors:    []string{},
	}

	for _, file := range s.Files {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("scrape cancelled: %w", err)
		}

		jobs, err := s.scrapeFile(ctx, file)
		if err != nil {
			log.Printf("[GitHub] %v", err)
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		log.Printf("[GitHub] %s: Found %d jobs", file.Path(), len(jobs))
		result.Jobs = append(result.Jobs, jobs...)
	}

	result.TotalFound = len(result.Jobs)
	log.Printf("[GitHub] Total jobs scraped: %d from %d files", result.TotalFound, len(s.Files))
	return result, nil
}

func (s *GitHubScraper) scrapeFile(ctx context.Context, file RepoFile) ([]types.ScrapedJob, error) {
	branch := file.Branch
	if branch == "" {
		branch = "main"
	}
	url := fmt.Sprintf("%s/%s/%s/%s/%s", strings.TrimRight(s.BaseURL, "/"), file.Owner, file.Repo, branch, file.File)

	res, err := s.Fetcher.Fetch(ctx, url, &fetch.Options{
		Timeout:   githubFetchTimeout,
		UserAgent: fetch.DefaultUserAgent,
		Headers:   map[string]string{"Accept": "text/plain"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", file.Path(), err)
	}
	if strings.TrimSpace(res.Body) == "" {
		return nil, fmt.Errorf("empty response from %s", file.Path())
	}

	parser := s.Parser
	if parser == nil {
		parser = parsing.NewParser()
	}
	return parser.Parse(res.Body, parsing.SourceMetadata{
		Source:  GitHubSourceName,
		File:    file.File,
		JobType: file.JobType,
		Region:  file.Region,
	}), nil
}
