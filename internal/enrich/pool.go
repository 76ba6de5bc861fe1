package enrich

import (
	"context"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/internship-radar/internal/types"
)

// processFunc handles one candidate. It returns the replacement job, or nil
// to leave the job untouched, and the outcome to count.
type processFunc func(ctx context.Context, job types.ScrapedJob) (*types.ScrapedJob, outcome)

// runPool processes jobs[idx] for each idx in candidates with at most
// concurrency in flight. Replacements are keyed by index so completion
// order does not matter.
func runPool(ctx context.Context, jobs []types.ScrapedJob, candidates []int, concurrency int, process processFunc) (map[int]types.ScrapedJob, Stats) {
	var (
		mu      sync.Mutex
		stats   Stats
		updates = make(map[int]types.ScrapedJob, len(candidates))
	)

	workers := max(1, min(concurrency, len(candidates)))
	var g errgroup.Group
	g.SetLimit(workers)

	for _, idx := range candidates {
		g.Go(func() error {
			updated, o := safeProcess(ctx, jobs[idx], process)

			mu.Lock()
			defer mu.Unlock()
			stats.record(o)
			if updated != nil {
				updates[idx] = *updated
			}
			return nil
		})
	}
	_ = g.Wait()

	return updates, stats
}

// safeProcess turns a panic inside one job into an error outcome so a single
// bad page cannot take down the batch.
func safeProcess(ctx context.Context, job types.ScrapedJob, process processFunc) (updated *types.ScrapedJob, o outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[enrich] Recovered while processing %s: %v", job.URLText(), r)
			updated, o = nil, outcomeError
		}
	}()
	return process(ctx, job)
}
