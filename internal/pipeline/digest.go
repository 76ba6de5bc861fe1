package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jonathan/internship-radar/internal/db"
	"github.com/jonathan/internship-radar/internal/notify"
	"github.com/jonathan/internship-radar/internal/ranking"
	"github.com/jonathan/internship-radar/internal/types"
)

// Digest defaults
const (
	DefaultDigestWindow   = 7 * 24 * time.Hour
	DefaultDigestJobs     = 10
	DefaultDigestScanSize = 500
)

// DigestResult reports a digest run
type DigestResult struct {
	Users  int      `json:"total_users"`
	Sent   int      `json:"emails_sent"`
	Errors []string `json:"errors,omitempty"`
}

// Digest sends each weekly subscriber the best matches among recent postings
type Digest struct {
	Store    DigestStore
	Notifier notify.Notifier
	Scorer   *ranking.Scorer
	Window   time.Duration
	MaxJobs  int
	ScanSize int
	Now      func() time.Time
}

// NewDigest returns a weekly digest with default limits
func NewDigest(store DigestStore, notifier notify.Notifier) *Digest {
	return &Digest{
		Store:    store,
		Notifier: notifier,
		Scorer:   ranking.NewScorer(),
		Window:   DefaultDigestWindow,
		MaxJobs:  DefaultDigestJobs,
		ScanSize: DefaultDigestScanSize,
		Now:      time.Now,
	}
}

// Send ranks postings created within the window for every weekly user and
// notifies those with at least one match. Users without a contact or without
// matches are skipped; delivery failures are collected per user.
func (d *Digest) Send(ctx context.Context) (*DigestResult, error) {
	now := time.Now()
	if d.Now != nil {
		now = d.Now()
	}

	profiles, err := d.Store.ListDigestProfiles(ctx, db.EmailFrequencyWeekly)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch preferences: %w", err)
	}
	result := &DigestResult{Users: len(profiles), Errors: []string{}}
	if len(profiles) == 0 {
		return result, nil
	}

	postings, err := d.Store.ListRecentJobs(ctx, now.Add(-d.Window), d.ScanSize)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch jobs: %w", err)
	}
	jobs := matchJobs(postings)
	byID := make(map[string]*db.JobPosting, len(postings))
	for i := range postings {
		byID[postings[i].ID] = &postings[i]
	}

	for _, profile := range profiles {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		to := recipient(profile)
		if to.Email == "" && to.ChatID == 0 {
			continue
		}

		resumeText := ""
		if profile.ResumeText != nil {
			resumeText = *profile.ResumeText
		}
		kw := ranking.ResumeKeywords(resumeText, profile.ResumeKeywords)
		ranked := d.Scorer.Rank(jobs, kw, profile.Preferences, d.MaxJobs)
		if len(ranked) == 0 {
			continue
		}

		summaries := make([]types.JobSummary, 0, len(ranked))
		for _, m := range ranked {
			if p, ok := byID[m.JobID]; ok {
				summaries = append(summaries, p.Summary())
			}
		}

		err := d.Notifier.Notify(ctx, to, notify.Message{
			Kind:    notify.KindDigest,
			Subject: notify.DigestSubject(len(summaries)),
			Jobs:    summaries,
		})
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("User %s: %v", profile.UserID, err))
			continue
		}
		if err := d.Store.MarkDigestSent(ctx, profile.UserID, now); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("User %s: %v", profile.UserID, err))
		}
		result.Sent++
	}

	log.Printf("[digest] Sent %d of %d digests", result.Sent, result.Users)
	return result, nil
}

func recipient(p db.DigestProfile) notify.Recipient {
	var to notify.Recipient
	if p.Email != nil {
		to.Email = *p.Email
	}
	if p.ChatID != nil {
		to.ChatID = *p.ChatID
	}
	return to
}
