package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(cfg *Config) (*Limiter, *time.Time) {
	l := NewLimiter(cfg)
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLimiter_AllowsUpToBurst(t *testing.T) {
	l, _ := newTestLimiter(&Config{Enabled: true, DefaultLimit: 5, DefaultWindow: time.Minute})
	defer l.Stop()

	for i := 0; i < 5; i++ {
		allowed, info := l.Allow("10.0.0.1", "/job-postings", "GET")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 5, info.Limit)
		assert.Equal(t, 4-i, info.Remaining)
	}

	allowed, info := l.Allow("10.0.0.1", "/job-postings", "GET")
	assert.False(t, allowed)
	assert.InDelta(t, 12.0, info.RetryAfter.Seconds(), 0.01)
	assert.True(t, info.ResetTime.After(time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)))
}

func TestLimiter_Refills(t *testing.T) {
	l, now := newTestLimiter(&Config{Enabled: true, DefaultLimit: 2, DefaultWindow: time.Minute})
	defer l.Stop()

	l.Allow("c", "/x", "GET")
	l.Allow("c", "/x", "GET")
	allowed, _ := l.Allow("c", "/x", "GET")
	require.False(t, allowed)

	*now = now.Add(31 * time.Second)
	allowed, _ = l.Allow("c", "/x", "GET")
	assert.True(t, allowed)
}

func TestLimiter_SeparateClientsAndEndpoints(t *testing.T) {
	l, _ := newTestLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute})
	defer l.Stop()

	allowed, _ := l.Allow("a", "/x", "GET")
	assert.True(t, allowed)
	allowed, _ = l.Allow("b", "/x", "GET")
	assert.True(t, allowed)
	allowed, _ = l.Allow("a", "/y", "GET")
	assert.True(t, allowed)
	allowed, _ = l.Allow("a", "/x", "GET")
	assert.False(t, allowed)
}

func TestLimiter_PrefixRulesShareBucket(t *testing.T) {
	l, _ := newTestLimiter(&Config{Enabled: true, DefaultLimit: 100, DefaultWindow: time.Minute, EndpointConfigs: DefaultEndpointConfigs()})
	defer l.Stop()

	for i := 0; i < 3; i++ {
		allowed, _ := l.Allow("a", "/cron/refresh-matches", "POST")
		require.True(t, allowed)
	}
	allowed, info := l.Allow("a", "/cron/send-digest", "POST")
	assert.False(t, allowed)
	assert.Equal(t, 12, info.Limit)
}

func TestLimiter_Lists(t *testing.T) {
	l, _ := newTestLimiter(&Config{
		Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute,
		Whitelist: map[string]bool{"trusted": true},
		Blacklist: map[string]bool{"blocked": true},
	})
	defer l.Stop()

	for i := 0; i < 3; i++ {
		allowed, _ := l.Allow("trusted", "/x", "GET")
		assert.True(t, allowed)
	}
	allowed, _ := l.Allow("blocked", "/x", "GET")
	assert.False(t, allowed)
}

func TestLimiter_DisabledAndHealth(t *testing.T) {
	off, _ := newTestLimiter(&Config{Enabled: false})
	allowed, _ := off.Allow("a", "/x", "GET")
	assert.True(t, allowed)

	l, _ := newTestLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute})
	defer l.Stop()
	for i := 0; i < 5; i++ {
		allowed, _ := l.Allow("a", "/health", "GET")
		assert.True(t, allowed)
	}
}

func TestLimiter_Prune(t *testing.T) {
	l, now := newTestLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute})
	defer l.Stop()

	l.Allow("a", "/x", "GET")
	*now = now.Add(2 * time.Hour)
	l.Allow("b", "/x", "GET")

	assert.Equal(t, 1, l.prune(now.Add(-time.Hour)))
	assert.Len(t, l.buckets, 1)
}

func TestLimiter_Concurrent(t *testing.T) {
	l := NewLimiter(&Config{Enabled: true, DefaultLimit: 50, DefaultWindow: time.Hour})
	defer l.Stop()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Allow("a", "/x", "GET"); ok {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowedCount)
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs()
	tests := []struct {
		name      string
		path      string
		method    string
		wantLimit int
		wantNil   bool
	}{
		{"health unlimited", "/health", "GET", 0, false},
		{"cron prefix", "/cron/scrape-jobs", "POST", 12, false},
		{"sync exact", "/jobs/sync", "DELETE", 6, false},
		{"unsubscribe", "/unsubscribe", "GET", 30, false},
		{"reads use default", "/job-postings", "GET", 0, true},
		{"method must match", "/cron/scrape-jobs", "GET", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantLimit, got.Limit)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "42")
	t.Setenv("RATE_LIMIT_WHITELIST", "10.0.0.1, 10.0.0.2,")

	cfg := LoadConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 42, cfg.DefaultLimit)
	assert.Len(t, cfg.Whitelist, 2)

	t.Setenv("RATE_LIMIT_ENABLED", "false")
	assert.False(t, LoadConfig().Enabled)
}
