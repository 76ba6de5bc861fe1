package scrapers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/internship-radar/internal/dedup"
	"github.com/jonathan/internship-radar/internal/types"
)

// Orchestrator runs the registered scrapers due at a given hour and merges
// their output.
type Orchestrator struct {
	scrapers []Scraper
}

// NewOrchestrator registers scrapers. With none given the GitHub scraper is used.
func NewOrchestrator(scrapers ...Scraper) *Orchestrator {
	if len(scrapers) == 0 {
		scrapers = []Scraper{NewGitHubScraper()}
	}
	return &Orchestrator{scrapers: scrapers}
}

// ScraperInfo lists the registered scrapers.
func (o *Orchestrator) ScraperInfo() []types.ScraperInfo {
	info := make([]types.ScraperInfo, 0, len(o.scrapers))
	for _, s := range o.scrapers {
		info = append(info, types.ScraperInfo{Name: s.Name(), Tier: int(s.Tier()), Enabled: s.Enabled()})
	}
	return info
}

// Due returns the enabled scrapers whose tier runs at hour.
func (o *Orchestrator) Due(hour int) []Scraper {
	var due []Scraper
	for _, s := range o.scrapers {
		if s.Enabled() && ShouldRunAtHour(s.Tier(), hour) {
			due = append(due, s)
		}
	}
	return due
}

type scrapeOutcome struct {
	result *types.ScraperResult
	err    error
}

// RunScrapersForHour runs the scrapers due at hour concurrently. A failing
// scraper is reported in Stats.Errors and does not prevent the others'
// jobs from being collected. The combined jobs are deduplicated.
func (o *Orchestrator) RunScrapersForHour(ctx context.Context, hour int) types.OrchestratorResult {
	start := time.Now()
	due := o.Due(hour)

	names := make([]string, len(due))
	for i, s := range due {
		names[i] = s.Name()
	}
	log.Printf("[Orchestrator] Hour %d: Running %d scrapers", hour, len(due))
	log.Printf("[Orchestrator] Scrapers: %s", strings.Join(names, ", "))

	outcomes := make([]scrapeOutcome, len(due))
	var g errgroup.Group
	for i, s := range due {
		g.Go(func() error {
			outcomes[i] = runOne(ctx, s)
			return nil
		})
	}
	_ = g.Wait()

	var (
		all  []types.ScrapedJob
		ran  = []string{}
		errs = []string{}
	)
	for i, out := range outcomes {
		name := due[i].Name()
		if out.err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", name, out.err))
			continue
		}
		ran = append(ran, name)
		all = append(all, out.result.Jobs...)
		for _, e := range out.result.Errors {
			errs = append(errs, fmt.Sprintf("%s: %s", name, e))
		}
	}

	log.Printf("[Orchestrator] Total jobs before deduplication: %d", len(all))
	jobs := dedup.Deduplicate(all)
	log.Printf("[Orchestrator] Total jobs after deduplication: %d", len(jobs))

	return types.OrchestratorResult{
		Jobs: jobs,
		Stats: types.ScraperStats{
			ScrapersRun: ran,
			TotalFound:  len(all),
			Duplicates:  len(all) - len(jobs),
			Errors:      errs,
			Duration:    time.Since(start),
		},
	}
}

func runOne(ctx context.Context, s Scraper) (out scrapeOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = scrapeOutcome{err: fmt.Errorf("panic: %v", r)}
		}
	}()

	log.Printf("[Orchestrator] Starting %s...", s.Name())
	result, err := s.Scrape(ctx)
	if err != nil {
		log.Printf("[Orchestrator] %s failed: %v", s.Name(), err)
		return scrapeOutcome{err: err}
	}
	if result == nil {
		return scrapeOutcome{err: errors.New("scraper returned no result")}
	}
	log.Printf("[Orchestrator] %s: %d jobs, %d errors", s.Name(), len(result.Jobs), len(result.Errors))
	return scrapeOutcome{result: result}
}
