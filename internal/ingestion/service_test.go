package ingestion

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/internship-radar/internal/db"
	"github.com/jonathan/internship-radar/internal/enrich"
	"github.com/jonathan/internship-radar/internal/notify"
	"github.com/jonathan/internship-radar/internal/types"
)

type fakeRunner struct {
	result types.OrchestratorResult
	hours  []int
}

func (f *fakeRunner) RunScrapersForHour(_ context.Context, hour int) types.OrchestratorResult {
	f.hours = append(f.hours, hour)
	return f.result
}

type fakeStore struct {
	existing    map[string]bool
	existingErr error
	failBatch   bool
	upserted    []db.JobPosting
	logs        []db.ScraperLog
	logErr      error
	subscribers []db.Subscriber
	deleted     []string
}

func (f *fakeStore) ExistingSourceIDs(_ context.Context, ids []string) (map[string]bool, error) {
	if f.existingErr != nil {
		return nil, f.existingErr
	}
	out := map[string]bool{}
	for _, id := range ids {
		if f.existing[id] {
			out[id] = true
		}
	}
	return out, nil
}

func (f *fakeStore) UpsertJobPostings(_ context.Context, rows []db.JobPosting) db.UpsertResult {
	if f.failBatch {
		return db.UpsertResult{Failed: len(rows), Errors: []string{"batch 1: connection reset"}}
	}
	f.upserted = append(f.upserted, rows...)
	res := db.UpsertResult{Upserted: len(rows)}
	for _, r := range rows {
		res.Written = append(res.Written, r.SourceID)
	}
	return res
}

func (f *fakeStore) DeleteJobsBySource(_ context.Context, source string) (int64, error) {
	f.deleted = append(f.deleted, source)
	return 7, nil
}

func (f *fakeStore) InsertScraperLog(_ context.Context, entry db.ScraperLog) error {
	f.logs = append(f.logs, entry)
	return f.logErr
}

func (f *fakeStore) ListActiveSubscribers(context.Context) ([]db.Subscriber, error) {
	return f.subscribers, nil
}

type markingEnricher struct {
	seen int
	tag  string
}

func (m *markingEnricher) Enrich(_ context.Context, jobs []types.ScrapedJob) ([]types.ScrapedJob, enrich.Stats) {
	m.seen += len(jobs)
	out := make([]types.ScrapedJob, len(jobs))
	for i, j := range jobs {
		j.Tags = j.Tags.With(m.tag)
		out[i] = j
	}
	return out, enrich.Stats{Attempted: len(jobs), Updated: len(jobs)}
}

type captureNotifier struct {
	to   []notify.Recipient
	msgs []notify.Message
	err  error
}

func (c *captureNotifier) Notify(_ context.Context, to notify.Recipient, msg notify.Message) error {
	if c.err != nil {
		return c.err
	}
	c.to = append(c.to, to)
	c.msgs = append(c.msgs, msg)
	return nil
}

func job(id, company, role, location string) types.ScrapedJob {
	return types.ScrapedJob{
		SourceID: id, Company: company, Role: role, Location: types.StringPtr(location),
		Source: "github", Tags: types.NewTags(types.JobTypeInternship, types.TagDateRepo),
	}
}

func newService(run types.OrchestratorResult, store *fakeStore) (*Service, *captureNotifier) {
	n := &captureNotifier{}
	return &Service{
		Scrapers: &fakeRunner{result: run},
		Store:    store,
		Notifier: n,
		Signer:   notify.NewTokenSigner("secret", 0),
		Alerts:   AlertOptions{BaseURL: "https://radar.example"},
	}, n
}

func TestSync_StoresNewAndExisting(t *testing.T) {
	run := types.OrchestratorResult{
		Jobs: []types.ScrapedJob{
			job("a", "Acme", "Backend Intern", "NYC"),
			job("b", "Bolt", "Frontend Intern", "Remote"),
			job("c", "Cobalt", "Data Intern", "SF"),
		},
		Stats: types.ScraperStats{ScrapersRun: []string{"GitHub Jobs"}, TotalFound: 4, Duplicates: 1, Errors: []string{"GitHub Jobs: EMPTY.md"}},
	}
	store := &fakeStore{existing: map[string]bool{"b": true}}
	svc, _ := newService(run, store)
	dates := &markingEnricher{tag: "dated"}
	descs := &markingEnricher{tag: "described"}
	svc.DateEnricher, svc.DescEnricher = dates, descs

	res, err := svc.Sync(context.Background(), 6, SyncOptions{})
	require.NoError(t, err)

	assert.Equal(t, 6, res.Hour)
	assert.Equal(t, 3, res.Scraped)
	assert.Equal(t, 1, res.Existing)
	assert.Equal(t, 3, res.Upserted)
	assert.Equal(t, 2, res.Saved)
	assert.Equal(t, 2, res.Stats.NewJobs)
	assert.Contains(t, res.Errors, "GitHub Jobs: EMPTY.md")

	assert.Equal(t, 2, dates.seen, "only new jobs are enriched")
	assert.Equal(t, 2, descs.seen)
	require.NotNil(t, res.DateEnrich)
	assert.Equal(t, 2, res.DateEnrich.Updated)

	require.Len(t, store.upserted, 3)
	assert.Contains(t, store.upserted[0].Tags, "described")
	assert.NotContains(t, store.upserted[2].Tags, "dated", "existing job rows are refreshed without enrichment")

	require.Len(t, store.logs, 1)
	assert.Equal(t, db.ScraperLogSuccess, store.logs[0].Status)
	assert.Equal(t, 2, store.logs[0].Saved)
	assert.Equal(t, 1, store.logs[0].Duplicates)
}

func TestSync_NoJobs(t *testing.T) {
	store := &fakeStore{}
	svc, n := newService(types.OrchestratorResult{}, store)

	res, err := svc.Sync(context.Background(), 0, SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Scraped)
	assert.Empty(t, store.upserted)
	assert.Len(t, store.logs, 1)
	assert.Empty(t, n.msgs)
}

func TestSync_ExistingCheckFails(t *testing.T) {
	store := &fakeStore{existingErr: errors.New("db down")}
	svc, _ := newService(types.OrchestratorResult{Jobs: []types.ScrapedJob{job("a", "Acme", "Intern", "NYC")}}, store)

	_, err := svc.Sync(context.Background(), 1, SyncOptions{})
	assert.ErrorContains(t, err, "db down")
	require.Len(t, store.logs, 1)
	assert.Equal(t, db.ScraperLogError, store.logs[0].Status)
}

func TestSync_AllUpsertsFail(t *testing.T) {
	store := &fakeStore{failBatch: true}
	svc, n := newService(types.OrchestratorResult{Jobs: []types.ScrapedJob{job("a", "Acme", "Intern", "NYC")}}, store)

	_, err := svc.Sync(context.Background(), 1, SyncOptions{})
	assert.Error(t, err)
	assert.Empty(t, n.msgs)
}

func TestSync_LogFailureIsNotFatal(t *testing.T) {
	store := &fakeStore{logErr: errors.New("no table")}
	svc, _ := newService(types.OrchestratorResult{Jobs: []types.ScrapedJob{job("a", "Acme", "Intern", "NYC")}}, store)

	res, err := svc.Sync(context.Background(), 1, SyncOptions{})
	require.NoError(t, err)
	assert.Contains(t, res.Errors, "no table")
}

func TestSync_Alerts(t *testing.T) {
	chat := int64(99)
	run := types.OrchestratorResult{Jobs: []types.ScrapedJob{
		job("a", "Acme", "Backend Intern", "NYC"),
		job("b", "Bolt", "Frontend Intern", "Remote"),
		job("old", "Acme", "Backend Intern II", "NYC"),
	}}
	store := &fakeStore{
		existing: map[string]bool{"old": true},
		subscribers: []db.Subscriber{
			{Email: "all@example.com"},
			{Email: "remote@example.com", Interests: []string{"REMOTE"}, ChatID: &chat},
			{Email: "quant@example.com", Interests: []string{"quant"}},
		},
	}
	svc, n := newService(run, store)

	res, err := svc.Sync(context.Background(), 2, SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Notified)

	require.Len(t, n.msgs, 2)
	assert.Len(t, n.msgs[0].Jobs, 2, "existing jobs are never alerted")
	assert.Equal(t, notify.KindAlert, n.msgs[0].Kind)
	assert.Contains(t, n.msgs[0].UnsubscribeURL, "https://radar.example/unsubscribe?token=")

	require.Len(t, n.msgs[1].Jobs, 1)
	assert.Equal(t, "Frontend Intern", n.msgs[1].Jobs[0].Title)
	assert.Equal(t, int64(99), n.to[1].ChatID)

	email, err := svc.Signer.Verify(tokenFrom(t, n.msgs[1].UnsubscribeURL))
	require.NoError(t, err)
	assert.Equal(t, "remote@example.com", email)
}

func TestSync_AlertLimits(t *testing.T) {
	var jobs []types.ScrapedJob
	for i := 0; i < 12; i++ {
		jobs = append(jobs, job(fmt.Sprintf("j%d", i), "Acme", "Intern", "NYC"))
	}
	var subs []db.Subscriber
	for i := 0; i < 60; i++ {
		subs = append(subs, db.Subscriber{Email: fmt.Sprintf("u%d@example.com", i)})
	}
	store := &fakeStore{subscribers: subs}
	svc, n := newService(types.OrchestratorResult{Jobs: jobs}, store)

	res, err := svc.Sync(context.Background(), 0, SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, 50, res.Notified)
	assert.Len(t, n.msgs[0].Jobs, 8)
}

func TestSync_AlertFailuresCollected(t *testing.T) {
	store := &fakeStore{subscribers: []db.Subscriber{{Email: "a@example.com"}}}
	svc, n := newService(types.OrchestratorResult{Jobs: []types.ScrapedJob{job("a", "Acme", "Intern", "NYC")}}, store)
	n.err = errors.New("rate limited")

	res, err := svc.Sync(context.Background(), 0, SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Notified)
	assert.Contains(t, res.Errors, "alert to a@example.com: rate limited")
}

func TestSync_ClearFirst(t *testing.T) {
	store := &fakeStore{subscribers: []db.Subscriber{{Email: "a@example.com"}}}
	svc, n := newService(types.OrchestratorResult{Jobs: []types.ScrapedJob{job("a", "Acme", "Intern", "NYC")}}, store)

	res, err := svc.Sync(context.Background(), 0, SyncOptions{ClearFirst: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"github"}, store.deleted)
	assert.Equal(t, int64(7), res.Deleted)
	assert.Equal(t, 1, res.Saved)
	assert.Empty(t, n.msgs, "cleared runs do not alert")
}

func TestMatchesInterests(t *testing.T) {
	j := job("a", "Jane Street", "Quant Trader Intern", "New York, NY")
	tests := []struct {
		name      string
		interests []string
		want      bool
	}{
		{"no interests", nil, true},
		{"role", []string{"trader"}, true},
		{"company", []string{"JANE"}, true},
		{"location", []string{"new york"}, true},
		{"none match", []string{"frontend", "seattle"}, false},
		{"blank interest", []string{"  "}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesInterests(&j, tt.interests))
		})
	}
}

func tokenFrom(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	return u.Query().Get("token")
}
