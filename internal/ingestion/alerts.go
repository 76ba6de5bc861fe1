package ingestion

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jonathan/internship-radar/internal/db"
	"github.com/jonathan/internship-radar/internal/notify"
	"github.com/jonathan/internship-radar/internal/types"
)

// AlertOptions bounds the new-job alerts sent after a sync
type AlertOptions struct {
	MaxRecipients int
	MaxJobs       int
	BaseURL       string
}

// DefaultAlertOptions returns the alert limits used by the service
func DefaultAlertOptions() AlertOptions {
	return AlertOptions{MaxRecipients: 50, MaxJobs: 8, BaseURL: "http://localhost:8080"}
}

// MatchesInterests reports whether a job's role, company or location contains
// any of the interests, case-insensitively. No interests matches everything.
func MatchesInterests(job *types.ScrapedJob, interests []string) bool {
	if len(interests) == 0 {
		return true
	}
	haystack := strings.ToLower(job.Role + " " + job.Company + " " + job.LocationText())
	for _, interest := range interests {
		interest = strings.ToLower(strings.TrimSpace(interest))
		if interest != "" && strings.Contains(haystack, interest) {
			return true
		}
	}
	return false
}

func (s *Service) sendAlerts(ctx context.Context, jobs []types.ScrapedJob) (int, []string) {
	if s.Notifier == nil || s.Signer == nil || len(jobs) == 0 {
		return 0, nil
	}

	opts := s.Alerts
	defaults := DefaultAlertOptions()
	if opts.MaxRecipients <= 0 {
		opts.MaxRecipients = defaults.MaxRecipients
	}
	if opts.MaxJobs <= 0 {
		opts.MaxJobs = defaults.MaxJobs
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaults.BaseURL
	}

	subscribers, err := s.Store.ListActiveSubscribers(ctx)
	if err != nil {
		return 0, []string{fmt.Sprintf("failed to list subscribers: %v", err)}
	}

	var (
		sent int
		errs []string
	)
	for _, sub := range subscribers {
		if sent >= opts.MaxRecipients {
			break
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Sprintf("alerts stopped: %v", err))
			break
		}

		var matched []types.JobSummary
		for i := range jobs {
			if MatchesInterests(&jobs[i], sub.Interests) {
				matched = append(matched, summarize(&jobs[i]))
			}
		}
		if len(matched) == 0 {
			continue
		}
		if len(matched) > opts.MaxJobs {
			matched = matched[:opts.MaxJobs]
		}

		if err := s.alert(ctx, sub, matched, opts.BaseURL); err != nil {
			log.Printf("[jobs:sync] Alert to %s failed: %v", sub.Email, err)
			errs = append(errs, fmt.Sprintf("alert to %s: %v", sub.Email, err))
			continue
		}
		sent++
	}

	log.Printf("[jobs:sync] Sent %d alerts for %d new jobs", sent, len(jobs))
	return sent, errs
}

func (s *Service) alert(ctx context.Context, sub db.Subscriber, jobs []types.JobSummary, baseURL string) error {
	link, err := s.Signer.UnsubscribeURL(baseURL, sub.Email)
	if err != nil {
		return err
	}
	to := notify.Recipient{Email: sub.Email}
	if sub.ChatID != nil {
		to.ChatID = *sub.ChatID
	}
	return s.Notifier.Notify(ctx, to, notify.Message{
		Kind:           notify.KindAlert,
		Subject:        notify.AlertSubject(len(jobs)),
		Jobs:           jobs,
		UnsubscribeURL: link,
	})
}

func summarize(job *types.ScrapedJob) types.JobSummary {
	return types.JobSummary{
		Title:    job.Role,
		Company:  job.Company,
		Location: job.Location,
		URL:      job.URL,
		Salary:   types.FormatSalary(job.SalaryMin, job.SalaryMax, job.SalaryInterval),
	}
}
