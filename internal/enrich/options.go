// Package enrich fetches each posting's own page to recover a more precise
// posted date or the full description, within page, concurrency, time and
// size budgets. Results are kept in an injected TTL cache keyed by URL.
package enrich

import (
	"os"
	"strconv"
	"time"
)

// Options bounds one enrichment run.
type Options struct {
	// MaxPages caps the number of candidate jobs processed per run.
	MaxPages int `json:"max_pages"`
	// Concurrency is the number of concurrent workers.
	Concurrency int `json:"concurrency"`
	// Timeout applies to each page fetch.
	Timeout time.Duration `json:"timeout"`
	// CacheTTL is how long a cached result is trusted.
	CacheTTL time.Duration `json:"cache_ttl"`
	// MaxBodyBytes rejects or truncates pages beyond this size.
	MaxBodyBytes int64 `json:"max_body_bytes"`
	// MaxChars truncates extracted descriptions. Unused by the date enricher.
	MaxChars int `json:"max_chars,omitempty"`
}

// DefaultDateOptions returns the posted-date enricher defaults.
func DefaultDateOptions() Options {
	return Options{
		MaxPages:     200,
		Concurrency:  6,
		Timeout:      2500 * time.Millisecond,
		CacheTTL:     6 * time.Hour,
		MaxBodyBytes: 1_500_000,
	}
}

// DefaultDescriptionOptions returns the description enricher defaults.
func DefaultDescriptionOptions() Options {
	return Options{
		MaxPages:     120,
		Concurrency:  4,
		Timeout:      2500 * time.Millisecond,
		CacheTTL:     6 * time.Hour,
		MaxBodyBytes: 1_500_000,
		MaxChars:     8000,
	}
}

// DateOptionsFromEnv overlays JOB_POSTED_* variables on the date defaults.
func DateOptionsFromEnv() Options {
	return optionsFromEnv("JOB_POSTED", DefaultDateOptions())
}

// DescriptionOptionsFromEnv overlays JOB_DESC_* variables on the description defaults.
func DescriptionOptionsFromEnv() Options {
	return optionsFromEnv("JOB_DESC", DefaultDescriptionOptions())
}

func optionsFromEnv(prefix string, defaults Options) Options {
	return Options{
		MaxPages:     getEnvInt(prefix+"_MAX_PAGES", defaults.MaxPages),
		Concurrency:  getEnvPositiveInt(prefix+"_CONCURRENCY", defaults.Concurrency),
		Timeout:      time.Duration(getEnvPositiveInt(prefix+"_TIMEOUT_MS", int(defaults.Timeout/time.Millisecond))) * time.Millisecond,
		CacheTTL:     time.Duration(getEnvPositiveInt(prefix+"_CACHE_HOURS", int(defaults.CacheTTL/time.Hour))) * time.Hour,
		MaxBodyBytes: int64(getEnvPositiveInt(prefix+"_MAX_BODY_BYTES", int(defaults.MaxBodyBytes))),
		MaxChars:     getEnvInt(prefix+"_MAX_CHARS", defaults.MaxChars),
	}
}

// Enabled reports whether the enricher switched by key is on. Only the
// literal "false" disables it.
func Enabled(key string) bool {
	return os.Getenv(key) != "false"
}

// getEnvInt gets an environment variable as an integer with a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvPositiveInt is getEnvInt for budgets where zero or less would fall
// through to a much larger fetch default.
func getEnvPositiveInt(key string, defaultValue int) int {
	if v := getEnvInt(key, defaultValue); v > 0 {
		return v
	}
	return defaultValue
}

// Stats counts the outcome of each processed candidate. Every attempted job
// lands in exactly one of Updated, Skipped, Errors or CacheHits.
type Stats struct {
	Attempted int `json:"attempted"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
	CacheHits int `json:"cache_hits"`
}

type outcome int

const (
	outcomeUpdated outcome = iota
	outcomeSkipped
	outcomeError
	outcomeCacheHit
)

func (s *Stats) record(o outcome) {
	s.Attempted++
	switch o {
	case outcomeUpdated:
		s.Updated++
	case outcomeSkipped:
		s.Skipped++
	case outcomeError:
		s.Errors++
	case outcomeCacheHit:
		s.CacheHits++
	}
}
