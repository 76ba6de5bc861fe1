// Package pipeline keeps stored match scores current and delivers the weekly
// digest built from them.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/internship-radar/internal/db"
	"github.com/jonathan/internship-radar/internal/types"
)

// ProgressEvent reports per-user progress during a refresh or digest run
type ProgressEvent struct {
	Step    string    `json:"step"`
	UserID  uuid.UUID `json:"user_id"`
	Message string    `json:"message"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// MatchStore is the persistence a match refresh needs
type MatchStore interface {
	ListMissingInternships(ctx context.Context) ([]db.Internship, error)
	UpsertJobPostings(ctx context.Context, postings []db.JobPosting) db.UpsertResult
	ListJobsForMatching(ctx context.Context, limit int) ([]db.JobPosting, error)
	ListMatchProfiles(ctx context.Context) ([]db.MatchProfile, error)
	ResetUserMatches(ctx context.Context, userID uuid.UUID, at time.Time) error
	UpsertJobMatches(ctx context.Context, userID uuid.UUID, matches []types.JobMatchScore, at time.Time) error
}

// DigestStore is the persistence the weekly digest needs
type DigestStore interface {
	ListDigestProfiles(ctx context.Context, frequency string) ([]db.DigestProfile, error)
	ListRecentJobs(ctx context.Context, since time.Time, limit int) ([]db.JobPosting, error)
	MarkDigestSent(ctx context.Context, userID uuid.UUID, at time.Time) error
}

func matchJobs(postings []db.JobPosting) []types.MatchJob {
	jobs := make([]types.MatchJob, len(postings))
	for i := range postings {
		jobs[i] = postings[i].MatchJob()
	}
	return jobs
}
