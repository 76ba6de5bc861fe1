// Package ingestion runs a scrape for one hour and persists the result:
// scrape, classify new postings, enrich them, upsert, log the run and alert
// subscribers about genuinely new jobs.
package ingestion

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jonathan/internship-radar/internal/db"
	"github.com/jonathan/internship-radar/internal/enrich"
	"github.com/jonathan/internship-radar/internal/notify"
	"github.com/jonathan/internship-radar/internal/scrapers"
	"github.com/jonathan/internship-radar/internal/types"
)

// Store is the persistence the sync service needs
type Store interface {
	ExistingSourceIDs(ctx context.Context, sourceIDs []string) (map[string]bool, error)
	UpsertJobPostings(ctx context.Context, postings []db.JobPosting) db.UpsertResult
	DeleteJobsBySource(ctx context.Context, source string) (int64, error)
	InsertScraperLog(ctx context.Context, entry db.ScraperLog) error
	ListActiveSubscribers(ctx context.Context) ([]db.Subscriber, error)
}

// Runner produces the deduplicated jobs for an hour
type Runner interface {
	RunScrapersForHour(ctx context.Context, hour int) types.OrchestratorResult
}

// Enricher improves a batch of jobs and reports what it did
type Enricher interface {
	Enrich(ctx context.Context, jobs []types.ScrapedJob) ([]types.ScrapedJob, enrich.Stats)
}

// SyncOptions modifies a sync run
type SyncOptions struct {
	// ClearFirst deletes all GitHub postings before scraping. Alerts are
	// not sent for a cleared run since every job would look new.
	ClearFirst bool
}

// SyncResult reports a sync run
type SyncResult struct {
	Hour       int                `json:"hour"`
	Stats      types.ScraperStats `json:"stats"`
	Deleted    int64              `json:"deleted,omitempty"`
	Scraped    int                `json:"scraped"`
	Saved      int                `json:"saved"`
	Existing   int                `json:"existing"`
	Upserted   int                `json:"upserted"`
	Failed     int                `json:"failed"`
	Notified   int                `json:"notified"`
	DateEnrich *enrich.Stats      `json:"date_enrich,omitempty"`
	DescEnrich *enrich.Stats      `json:"desc_enrich,omitempty"`
	Errors     []string           `json:"errors,omitempty"`
	Duration   time.Duration      `json:"duration"`
}

// Service wires the scrape pipeline to storage and notifications. Nil
// enrichers disable that enrichment; a nil Notifier or Signer disables alerts.
type Service struct {
	Scrapers     Runner
	Store        Store
	DateEnricher Enricher
	DescEnricher Enricher
	Notifier     notify.Notifier
	Signer       *notify.TokenSigner
	Alerts       AlertOptions
}

// Clear deletes every GitHub-sourced posting
func (s *Service) Clear(ctx context.Context) (int64, error) {
	deleted, err := s.Store.DeleteJobsBySource(ctx, scrapers.GitHubSourceName)
	if err != nil {
		return 0, err
	}
	log.Printf("[jobs:sync] Deleted %d jobs", deleted)
	return deleted, nil
}

// Sync runs the scrapers due at hour and stores what they found. Failures of
// individual scrapers, upsert batches, the run log and alerts are collected
// in Errors; an error is returned only when nothing could be stored.
func (s *Service) Sync(ctx context.Context, hour int, opts SyncOptions) (*SyncResult, error) {
	start := time.Now()
	result := &SyncResult{Hour: hour, Errors: []string{}}

	if opts.ClearFirst {
		deleted, err := s.Clear(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to clear jobs: %w", err)
		}
		result.Deleted = deleted
	}

	log.Printf("[jobs:sync] Starting scrape at UTC hour %d", hour)
	run := s.Scrapers.RunScrapersForHour(ctx, hour)
	result.Stats = run.Stats
	result.Scraped = len(run.Jobs)
	result.Errors = append(result.Errors, run.Stats.Errors...)

	if len(run.Jobs) == 0 {
		log.Printf("[jobs:sync] No jobs found")
		s.logRun(ctx, result, start, nil)
		result.Duration = time.Since(start)
		return result, nil
	}

	ids := make([]string, len(run.Jobs))
	for i, job := range run.Jobs {
		ids[i] = job.SourceID
	}
	existing, err := s.Store.ExistingSourceIDs(ctx, ids)
	if err != nil {
		s.logRun(ctx, result, start, err)
		return nil, fmt.Errorf("failed to check existing jobs: %w", err)
	}

	var fresh, known []types.ScrapedJob
	for _, job := range run.Jobs {
		if existing[job.SourceID] {
			known = append(known, job)
		} else {
			fresh = append(fresh, job)
		}
	}
	result.Existing = len(known)
	log.Printf("[jobs:sync] Found %d new jobs (%d existing)", len(fresh), len(known))

	if s.DateEnricher != nil && len(fresh) > 0 {
		var stats enrich.Stats
		fresh, stats = s.DateEnricher.Enrich(ctx, fresh)
		result.DateEnrich = &stats
	}
	if s.DescEnricher != nil && len(fresh) > 0 {
		var stats enrich.Stats
		fresh, stats = s.DescEnricher.Enrich(ctx, fresh)
		result.DescEnrich = &stats
	}

	rows := make([]db.JobPosting, 0, len(run.Jobs))
	for _, job := range fresh {
		rows = append(rows, db.ToDBJob(job))
	}
	for _, job := range known {
		rows = append(rows, db.ToDBJob(job))
	}

	upsert := s.Store.UpsertJobPostings(ctx, rows)
	result.Upserted = upsert.Upserted
	result.Failed = upsert.Failed
	result.Errors = append(result.Errors, upsert.Errors...)

	written := make(map[string]bool, len(upsert.Written))
	for _, id := range upsert.Written {
		written[id] = true
	}
	var saved []types.ScrapedJob
	for _, job := range fresh {
		if written[job.SourceID] {
			saved = append(saved, job)
		}
	}
	result.Saved = len(saved)
	result.Stats.NewJobs = len(saved)
	log.Printf("[jobs:sync] Upserted %d jobs (%d new, %d failed)", result.Upserted, result.Saved, result.Failed)

	if result.Upserted == 0 && result.Failed > 0 {
		err := fmt.Errorf("all %d job upserts failed", result.Failed)
		s.logRun(ctx, result, start, err)
		return nil, err
	}

	s.logRun(ctx, result, start, nil)

	if !opts.ClearFirst {
		notified, errs := s.sendAlerts(ctx, saved)
		result.Notified = notified
		result.Errors = append(result.Errors, errs...)
	}

	result.Duration = time.Since(start)
	log.Printf("[jobs:sync] Done in %.2fs: scraped %d, saved %d, notified %d",
		result.Duration.Seconds(), result.Scraped, result.Saved, result.Notified)
	return result, nil
}

func (s *Service) logRun(ctx context.Context, result *SyncResult, start time.Time, runErr error) {
	entry := db.ScraperLog{
		Status:          db.ScraperLogSuccess,
		Scraped:         result.Scraped,
		Saved:           result.Saved,
		Duplicates:      result.Existing,
		DurationSeconds: time.Since(start).Seconds(),
		Sources:         result.Stats.ScrapersRun,
	}
	if runErr != nil {
		msg := runErr.Error()
		entry.Status = db.ScraperLogError
		entry.ErrorMessage = &msg
	}
	if err := s.Store.InsertScraperLog(ctx, entry); err != nil {
		log.Printf("[jobs:sync] Failed to log to scraper_logs: %v", err)
		result.Errors = append(result.Errors, err.Error())
	}
}
