package enrich

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/jonathan/internship-radar/internal/fetch"
	"github.com/jonathan/internship-radar/internal/keywords"
	"github.com/jonathan/internship-radar/internal/types"
)

// EnricherUserAgent identifies enrichment requests to employer sites.
const EnricherUserAgent = "InternshipRadar Job Enricher"

// base holds what both enrichers share.
type base struct {
	fetcher fetch.Fetcher
	cache   Cache
	opts    Options
	now     func() time.Time
}

func newBase(fetcher fetch.Fetcher, cache Cache, opts Options) base {
	if fetcher == nil {
		fetcher = &fetch.HTTPFetcher{}
	}
	if cache == nil {
		cache = NewMemoryCache()
	}
	return base{fetcher: fetcher, cache: cache, opts: opts, now: time.Now}
}

func (b base) fetchOptions() *fetch.Options {
	return &fetch.Options{
		Timeout:      b.opts.Timeout,
		UserAgent:    EnricherUserAgent,
		MaxBodyBytes: b.opts.MaxBodyBytes,
		RequireHTML:  true,
	}
}

// candidates returns the indexes of jobs accepted by keep, capped at MaxPages.
func (b base) candidates(jobs []types.ScrapedJob, keep func(*types.ScrapedJob) bool) []int {
	var idx []int
	for i := range jobs {
		if len(idx) >= b.opts.MaxPages {
			break
		}
		if keep(&jobs[i]) {
			idx = append(idx, i)
		}
	}
	return idx
}

// prune drops this enricher's entries older than CacheTTL from caches that
// hold them in memory.
func (b base) prune(prefix string) {
	p, ok := b.cache.(Pruner)
	if !ok || b.opts.CacheTTL <= 0 {
		return
	}
	if n := p.Prune(prefix, b.now().Add(-b.opts.CacheTTL)); n > 0 {
		log.Printf("[enrich] Pruned %d stale %s cache entries", n, strings.TrimSuffix(prefix, ":"))
	}
}

// isRejection reports whether err is a page we refused rather than a failure
// to talk to the server.
func isRejection(err error) bool {
	var fetchErr *fetch.Error
	if errors.Is(err, fetch.ErrNotHTML) || errors.Is(err, fetch.ErrBodyTooLarge) {
		return true
	}
	return errors.As(err, &fetchErr) && fetchErr.StatusCode != 0
}

// DateEnricher replaces repository-supplied posted dates with the date
// published on the employer's own page.
type DateEnricher struct {
	base
}

// NewDateEnricher returns a date enricher. A nil fetcher uses plain HTTP and
// a nil cache uses a private in-memory cache.
func NewDateEnricher(fetcher fetch.Fetcher, cache Cache, opts Options) *DateEnricher {
	return &DateEnricher{base: newBase(fetcher, cache, opts)}
}

// Enrich returns a copy of jobs with company dates applied and every job's
// freshness tag normalized. The input slice is not modified.
func (e *DateEnricher) Enrich(ctx context.Context, jobs []types.ScrapedJob) ([]types.ScrapedJob, Stats) {
	out := make([]types.ScrapedJob, len(jobs))
	for i, job := range jobs {
		out[i] = job.WithDateSource(job.Tags.Has(types.TagDateCompany))
	}
	if e.opts.MaxPages <= 0 || len(jobs) == 0 {
		return out, Stats{}
	}

	queue := e.candidates(out, (*types.ScrapedJob).HasURL)
	updates, stats := runPool(ctx, out, queue, e.opts.Concurrency, e.process)
	for i, job := range updates {
		out[i] = job
	}
	e.prune(dateKey(""))

	log.Printf("[enrich] Posted dates: %d attempted, %d updated, %d skipped, %d errors, %d cache hits",
		stats.Attempted, stats.Updated, stats.Skipped, stats.Errors, stats.CacheHits)
	return out, stats
}

func (e *DateEnricher) process(ctx context.Context, job types.ScrapedJob) (*types.ScrapedJob, outcome) {
	url := job.URLText()
	now := e.now()

	if cached, ok := e.cache.Get(ctx, dateKey(url)); ok && cached.Fresh(now, e.opts.CacheTTL) {
		if cached.Date != nil {
			updated := withCompanyDate(job, *cached.Date)
			return &updated, outcomeCacheHit
		}
		return nil, outcomeCacheHit
	}

	result, err := e.fetcher.Fetch(ctx, url, e.fetchOptions())
	if err != nil {
		e.cache.Set(ctx, dateKey(url), Entry{CachedAt: now})
		if isRejection(err) {
			return nil, outcomeSkipped
		}
		return nil, outcomeError
	}

	date := ExtractPostedDate(result.Body, now)
	e.cache.Set(ctx, dateKey(url), Entry{Date: date, CachedAt: now})
	if date == nil {
		return nil, outcomeSkipped
	}
	updated := withCompanyDate(job, *date)
	return &updated, outcomeUpdated
}

func withCompanyDate(job types.ScrapedJob, date time.Time) types.ScrapedJob {
	job.DatePosted = &date
	return job.WithDateSource(true)
}

// DescriptionEnricher fills in missing descriptions from the posting page and
// recomputes job keywords from the result.
type DescriptionEnricher struct {
	base
}

// NewDescriptionEnricher returns a description enricher. A nil fetcher uses
// plain HTTP and a nil cache uses a private in-memory cache.
func NewDescriptionEnricher(fetcher fetch.Fetcher, cache Cache, opts Options) *DescriptionEnricher {
	return &DescriptionEnricher{base: newBase(fetcher, cache, opts)}
}

// Enrich returns a copy of jobs with descriptions filled where possible. Jobs
// that already have a description are never fetched.
func (e *DescriptionEnricher) Enrich(ctx context.Context, jobs []types.ScrapedJob) ([]types.ScrapedJob, Stats) {
	out := make([]types.ScrapedJob, len(jobs))
	copy(out, jobs)
	if e.opts.MaxPages <= 0 || len(jobs) == 0 {
		return out, Stats{}
	}

	queue := e.candidates(out, func(j *types.ScrapedJob) bool {
		return j.HasURL() && !j.HasDescription()
	})
	updates, stats := runPool(ctx, out, queue, e.opts.Concurrency, e.process)
	for i, job := range updates {
		out[i] = job
	}
	e.prune(descriptionKey(""))

	log.Printf("[enrich] Descriptions: %d attempted, %d updated, %d skipped, %d errors, %d cache hits",
		stats.Attempted, stats.Updated, stats.Skipped, stats.Errors, stats.CacheHits)
	return out, stats
}

func (e *DescriptionEnricher) process(ctx context.Context, job types.ScrapedJob) (*types.ScrapedJob, outcome) {
	url := job.URLText()
	now := e.now()

	if cached, ok := e.cache.Get(ctx, descriptionKey(url)); ok && cached.Fresh(now, e.opts.CacheTTL) {
		if cached.Description != nil {
			updated := withDescription(job, *cached.Description, cached.Keywords, cached.CachedAt)
			return &updated, outcomeCacheHit
		}
		return nil, outcomeCacheHit
	}

	result, err := e.fetcher.Fetch(ctx, url, e.fetchOptions())
	if err != nil {
		e.cache.Set(ctx, descriptionKey(url), Entry{CachedAt: now})
		if isRejection(err) {
			return nil, outcomeSkipped
		}
		return nil, outcomeError
	}
	if result.Truncated {
		e.cache.Set(ctx, descriptionKey(url), Entry{CachedAt: now})
		return nil, outcomeSkipped
	}

	text := types.Truncate(ExtractDescription(result.Body, url), e.opts.MaxChars)
	if text == "" {
		e.cache.Set(ctx, descriptionKey(url), Entry{CachedAt: now})
		return nil, outcomeSkipped
	}

	kw := keywords.BuildJobKeywords(keywords.JobText{
		Role:        job.Role,
		Company:     job.Company,
		Location:    job.LocationText(),
		Tags:        job.Tags,
		Description: text,
	})
	e.cache.Set(ctx, descriptionKey(url), Entry{Description: &text, Keywords: kw, CachedAt: now})

	updated := withDescription(job, text, kw, now)
	return &updated, outcomeUpdated
}

func withDescription(job types.ScrapedJob, text string, kw []string, fetchedAt time.Time) types.ScrapedJob {
	job.Description = &text
	job.JobKeywords = kw
	job.DescriptionFetchedAt = &fetchedAt
	return job
}
