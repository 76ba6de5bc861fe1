package scrapers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/internship-radar/internal/fetch"
	"github.com/jonathan/internship-radar/internal/types"
)

type fakeScraper struct {
	name    string
	tier    Tier
	enabled bool
	jobs    []types.ScrapedJob
	errs    []string
	err     error
	delay   time.Duration
	calls   atomic.Int32
}

func (f *fakeScraper) Name() string  { return f.name }
func (f *fakeScraper) Tier() Tier    { return f.tier }
func (f *fakeScraper) Enabled() bool { return f.enabled }

func (f *fakeScraper) Scrape(ctx context.Context) (*types.ScraperResult, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &types.ScraperResult{Jobs: f.jobs, Source: f.name, Errors: f.errs, TotalFound: len(f.jobs)}, nil
}

func scraped(id, company, role string) types.ScrapedJob {
	return types.ScrapedJob{SourceID: id, Company: company, Role: role, Source: "fake"}
}

func TestShouldRunAtHour(t *testing.T) {
	for hour := 0; hour < 24; hour++ {
		assert.True(t, ShouldRunAtHour(TierHourly, hour))
		assert.Equal(t, hour%6 == 0, ShouldRunAtHour(TierFourTimesDaily, hour), hour)
		assert.Equal(t, hour == 0, ShouldRunAtHour(TierDaily, hour), hour)
		assert.False(t, ShouldRunAtHour(Tier(9), hour))
	}
	assert.Equal(t, "4x-daily", TierFourTimesDaily.String())
}

func TestOrchestrator_SelectsByTierAndEnabled(t *testing.T) {
	hourly := &fakeScraper{name: "hourly", tier: TierHourly, enabled: true}
	daily := &fakeScraper{name: "daily", tier: TierDaily, enabled: true}
	off := &fakeScraper{name: "off", tier: TierHourly, enabled: false}
	o := NewOrchestrator(hourly, daily, off)

	res := o.RunScrapersForHour(context.Background(), 5)
	assert.Equal(t, []string{"hourly"}, res.Stats.ScrapersRun)
	assert.Equal(t, int32(0), daily.calls.Load())
	assert.Equal(t, int32(0), off.calls.Load())

	res = o.RunScrapersForHour(context.Background(), 0)
	assert.Equal(t, []string{"hourly", "daily"}, res.Stats.ScrapersRun)

	info := o.ScraperInfo()
	require.Len(t, info, 3)
	assert.Equal(t, types.ScraperInfo{Name: "daily", Tier: 3, Enabled: true}, info[1])
}

func TestOrchestrator_FailureDoesNotAbortOthers(t *testing.T) {
	good := &fakeScraper{
		name: "good", tier: TierHourly, enabled: true,
		jobs: []types.ScrapedJob{scraped("a", "Acme", "Intern"), scraped("b", "Bolt", "Intern")},
		errs: []string{"README.md: 502"},
	}
	bad := &fakeScraper{name: "bad", tier: TierHourly, enabled: true, err: errors.New("connection refused"), delay: 10 * time.Millisecond}

	res := NewOrchestrator(bad, good).RunScrapersForHour(context.Background(), 3)

	assert.Len(t, res.Jobs, 2)
	assert.Equal(t, []string{"good"}, res.Stats.ScrapersRun)
	assert.Equal(t, []string{"bad: connection refused", "good: README.md: 502"}, res.Stats.Errors)
}

type panicScraper struct{ fakeScraper }

func (p *panicScraper) Scrape(context.Context) (*types.ScraperResult, error) { panic("nil map") }

func TestOrchestrator_PanicIsRecorded(t *testing.T) {
	p := &panicScraper{fakeScraper{name: "boom", tier: TierHourly, enabled: true}}
	good := &fakeScraper{name: "good", tier: TierHourly, enabled: true, jobs: []types.ScrapedJob{scraped("a", "Acme", "Intern")}}

	res := NewOrchestrator(p, good).RunScrapersForHour(context.Background(), 1)
	assert.Len(t, res.Jobs, 1)
	require.Len(t, res.Stats.Errors, 1)
	assert.Contains(t, res.Stats.Errors[0], "boom: panic")
}

func TestOrchestrator_DeduplicatesAcrossScrapers(t *testing.T) {
	desc := "full text"
	withDesc := scraped("z", "Acme", "SWE Intern")
	withDesc.Description = &desc

	one := &fakeScraper{name: "one", tier: TierHourly, enabled: true, jobs: []types.ScrapedJob{scraped("a", "Acme", "SWE Intern"), scraped("b", "Bolt", "Intern")}}
	two := &fakeScraper{name: "two", tier: TierHourly, enabled: true, jobs: []types.ScrapedJob{withDesc}}

	res := NewOrchestrator(one, two).RunScrapersForHour(context.Background(), 7)
	assert.Equal(t, 3, res.Stats.TotalFound)
	assert.Equal(t, 1, res.Stats.Duplicates)
	require.Len(t, res.Jobs, 2)
	assert.Equal(t, "z", res.Jobs[0].SourceID)
	assert.Greater(t, res.Stats.Duration, time.Duration(0))
}

func TestOrchestrator_RunsConcurrently(t *testing.T) {
	var scrapers []Scraper
	for i := 0; i < 5; i++ {
		scrapers = append(scrapers, &fakeScraper{name: fmt.Sprintf("s%d", i), tier: TierHourly, enabled: true, delay: 100 * time.Millisecond})
	}
	start := time.Now()
	NewOrchestrator(scrapers...).RunScrapersForHour(context.Background(), 0)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

const readmeFixture = `<!-- TABLE_START -->
| Company | Position | Location | Posting | Age |
|---|---|---|---|---|
| Acme Corp | SWE Intern | Remote | [Apply](https://acme.example/job/1) | 2d |
| Bolt | Backend Intern | NYC | [Apply](https://bolt.example/job/2) | 5d |
`

func TestGitHubScraper_Scrape(t *testing.T) {
	var accept atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept.Store(r.Header.Get("Accept"))
		switch r.URL.Path {
		case "/speedyapply/jobs/main/README.md":
			_, _ = w.Write([]byte(readmeFixture))
		case "/speedyapply/jobs/main/EMPTY.md":
			_, _ = w.Write([]byte("   \n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	s := &GitHubScraper{
		BaseURL: server.URL,
		Fetcher: &fetch.HTTPFetcher{},
		Files: []RepoFile{
			{Owner: "speedyapply", Repo: "jobs", File: "README.md", JobType: types.JobTypeInternship, Region: types.RegionUSA},
			{Owner: "speedyapply", Repo: "jobs", File: "EMPTY.md", JobType: types.JobTypeInternship, Region: types.RegionUSA},
			{Owner: "speedyapply", Repo: "jobs", File: "MISSING.md", JobType: types.JobTypeNewGrad, Region: types.RegionIntl},
		},
	}

	res, err := s.Scrape(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "text/plain", accept.Load())
	assert.Equal(t, GitHubSourceName, res.Source)
	assert.Equal(t, 2, res.TotalFound)
	require.Len(t, res.Jobs, 2)
	assert.Equal(t, "Acme Corp", res.Jobs[0].Company)
	assert.Equal(t, GitHubSourceName, res.Jobs[0].Source)
	assert.True(t, res.Jobs[0].Tags.Has(types.JobTypeInternship))

	require.Len(t, res.Errors, 2)
	assert.Contains(t, res.Errors[0], "empty response from speedyapply/jobs/EMPTY.md")
	assert.Contains(t, res.Errors[1], "MISSING.md")
	assert.Contains(t, res.Errors[1], "404")
}

func TestGitHubScraper_Defaults(t *testing.T) {
	s := NewGitHubScraper()
	assert.Equal(t, "GitHub Jobs", s.Name())
	assert.Equal(t, TierHourly, s.Tier())
	assert.True(t, s.Enabled())
	require.Len(t, s.Files, 4)
	assert.Equal(t, "speedyapply/2026-SWE-College-Jobs/NEW_GRAD_INTL.md", s.Files[3].Path())
	assert.Equal(t, types.RegionIntl, s.Files[3].Region)
}

func TestGitHubScraper_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewGitHubScraper().Scrape(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
