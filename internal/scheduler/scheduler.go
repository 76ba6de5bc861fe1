// Package scheduler wires up the cron jobs that trigger scraping, match
// refreshes and digests from inside a long-running process.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jonathan/internship-radar/internal/ingestion"
	"github.com/jonathan/internship-radar/internal/pipeline"
)

// DefaultScrapeSpec runs a scrape at the top of every hour
const DefaultScrapeSpec = "0 * * * *"

// Job is a named task run on a cron spec
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// Syncer runs the scrape-and-store flow for an hour
type Syncer interface {
	Sync(ctx context.Context, hour int, opts ingestion.SyncOptions) (*ingestion.SyncResult, error)
}

// Refresher recomputes stored match scores
type Refresher interface {
	Refresh(ctx context.Context) (*pipeline.RefreshResult, error)
}

// DigestSender delivers the weekly digest
type DigestSender interface {
	Send(ctx context.Context) (*pipeline.DigestResult, error)
}

// Scheduler wraps robfig/cron. Schedules are evaluated in UTC and a job still
// running when its next tick fires is skipped.
type Scheduler struct {
	cron *cron.Cron
	jobs []Job
}

// New creates an empty scheduler
func New() *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cron.DefaultLogger),
			cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
	}
}

// Register validates a job's spec and queues it for Start. Jobs with an
// empty spec are ignored.
func (s *Scheduler) Register(job Job) error {
	if job.Spec == "" {
		return nil
	}
	if err := ValidateSpec(job.Spec); err != nil {
		return fmt.Errorf("%s: %w", job.Name, err)
	}
	s.jobs = append(s.jobs, job)
	return nil
}

// ValidateSpec reports whether spec is a standard 5-field cron expression or
// descriptor. An empty spec is valid and means disabled.
func ValidateSpec(spec string) error {
	if spec == "" {
		return nil
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	return nil
}

// Start adds the registered jobs and starts the cron loop. Each run uses ctx,
// so cancelling it stops in-flight work.
func (s *Scheduler) Start(ctx context.Context) error {
	for _, job := range s.jobs {
		if _, err := s.cron.AddFunc(job.Spec, func() { runJob(ctx, job) }); err != nil {
			return fmt.Errorf("cron.AddFunc: %w", err)
		}
		log.Printf("[scheduler] Registered %s: %s", job.Name, job.Spec)
	}
	s.cron.Start()
	log.Printf("[scheduler] Cron started with %d job(s)", len(s.jobs))
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[scheduler] Cron stopped")
}

// Entries returns the number of jobs added to the cron loop
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func runJob(ctx context.Context, job Job) {
	start := time.Now()
	log.Printf("[scheduler] %s started", job.Name)
	if err := job.Run(ctx); err != nil {
		log.Printf("[scheduler] %s failed: %v", job.Name, err)
		return
	}
	log.Printf("[scheduler] %s finished in %.2fs", job.Name, time.Since(start).Seconds())
}

// SyncJob runs a sync for the UTC hour at which it fires
func SyncJob(spec string, syncer Syncer, now func() time.Time) Job {
	if now == nil {
		now = time.Now
	}
	return Job{
		Name: "scrape",
		Spec: spec,
		Run: func(ctx context.Context) error {
			res, err := syncer.Sync(ctx, now().UTC().Hour(), ingestion.SyncOptions{})
			if err != nil {
				return err
			}
			log.Printf("[scheduler] scrape saved %d of %d jobs", res.Saved, res.Scraped)
			return nil
		},
	}
}

// RefreshJob recomputes match scores on spec
func RefreshJob(spec string, r Refresher) Job {
	return Job{
		Name: "refresh-matches",
		Spec: spec,
		Run: func(ctx context.Context) error {
			_, err := r.Refresh(ctx)
			return err
		},
	}
}

// DigestJob sends the weekly digest on spec
func DigestJob(spec string, d DigestSender) Job {
	return Job{
		Name: "send-digest",
		Spec: spec,
		Run: func(ctx context.Context) error {
			_, err := d.Send(ctx)
			return err
		},
	}
}
