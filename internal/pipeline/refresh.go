package pipeline

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/internship-radar/internal/db"
	"github.com/jonathan/internship-radar/internal/ranking"
	"github.com/jonathan/internship-radar/internal/types"
)

// Refresh defaults
const (
	DefaultMatchLimit         = 30
	DefaultRefreshConcurrency = 4
)

// RefreshResult reports a match refresh
type RefreshResult struct {
	UsersProcessed int           `json:"users_processed"`
	MatchesStored  int           `json:"matches_stored"`
	JobsScanned    int           `json:"jobs_scanned"`
	Backfilled     int           `json:"backfilled"`
	Errors         []string      `json:"errors,omitempty"`
	Duration       time.Duration `json:"duration"`
}

// Refresher recomputes every user's stored match scores
type Refresher struct {
	Store       MatchStore
	Scorer      *ranking.Scorer
	JobLimit    int
	MatchLimit  int
	Concurrency int
	OnProgress  ProgressCallback
	Now         func() time.Time
}

// NewRefresher returns a refresher with default limits
func NewRefresher(store MatchStore) *Refresher {
	return &Refresher{
		Store:       store,
		Scorer:      ranking.NewScorer(),
		JobLimit:    db.DefaultMatchingJobLimit,
		MatchLimit:  DefaultMatchLimit,
		Concurrency: DefaultRefreshConcurrency,
		Now:         time.Now,
	}
}

// Refresh backfills legacy internships, then for each user with résumé
// keywords or preferences resets their scores and stores the top matches
// against the most recent postings. Per-user failures are collected in
// Errors; an error is returned only when the inputs cannot be loaded.
func (r *Refresher) Refresh(ctx context.Context) (*RefreshResult, error) {
	start := time.Now()
	result := &RefreshResult{Errors: []string{}}

	backfill, err := EnsureInternships(ctx, r.Store)
	if err != nil {
		log.Printf("[refresh] Internship backfill failed: %v", err)
		result.Errors = append(result.Errors, err.Error())
	}
	result.Backfilled = backfill.Inserted

	postings, err := r.Store.ListJobsForMatching(ctx, r.JobLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load jobs: %w", err)
	}
	profiles, err := r.Store.ListMatchProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}
	jobs := matchJobs(postings)
	result.JobsScanned = len(jobs)
	log.Printf("[refresh] Scoring %d users against %d jobs", len(profiles), len(jobs))

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, r.Concurrency))
	for _, profile := range profiles {
		g.Go(func() error {
			stored, processed, err := r.refreshUser(gCtx, profile, jobs)

			mu.Lock()
			defer mu.Unlock()
			if processed {
				result.UsersProcessed++
				result.MatchesStored += stored
			}
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("user %s: %v", profile.UserID, err))
			}
			if processed && r.OnProgress != nil {
				r.OnProgress(ProgressEvent{Step: "refresh", UserID: profile.UserID, Message: fmt.Sprintf("stored %d matches", stored)})
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(result.Errors)
	result.Duration = time.Since(start)
	log.Printf("[refresh] Processed %d users, stored %d matches", result.UsersProcessed, result.MatchesStored)
	return result, nil
}

// refreshUser reports how many matches were stored and whether the user was
// eligible for scoring.
func (r *Refresher) refreshUser(ctx context.Context, profile db.MatchProfile, jobs []types.MatchJob) (int, bool, error) {
	resumeText := ""
	if profile.ResumeText != nil {
		resumeText = *profile.ResumeText
	}
	kw := ranking.ResumeKeywords(resumeText, profile.ResumeKeywords)
	if len(kw) == 0 && profile.Preferences.IsEmpty() {
		return 0, false, nil
	}

	matches := r.Scorer.Rank(jobs, kw, profile.Preferences, r.MatchLimit)
	now := r.now()

	if err := r.Store.ResetUserMatches(ctx, profile.UserID, now); err != nil {
		return 0, false, err
	}
	if err := r.Store.UpsertJobMatches(ctx, profile.UserID, matches, now); err != nil {
		return 0, true, err
	}
	return len(matches), true, nil
}

func (r *Refresher) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
