// Package scrapers collects postings from external sources on a tiered
// hourly schedule and merges them into one deduplicated set.
package scrapers

import (
	"context"
	"slices"

	"github.com/jonathan/internship-radar/internal/types"
)

// Tier is a scraper's execution frequency class.
type Tier int

const (
	// TierHourly runs every hour.
	TierHourly Tier = 1
	// TierFourTimesDaily runs at 00, 06, 12 and 18 UTC.
	TierFourTimesDaily Tier = 2
	// TierDaily runs at midnight UTC.
	TierDaily Tier = 3
)

var tierHours = map[Tier][]int{
	TierFourTimesDaily: {0, 6, 12, 18},
	TierDaily:          {0},
}

// ShouldRunAtHour reports whether a scraper of tier t runs at hour (0-23).
// Unknown tiers never run.
func ShouldRunAtHour(t Tier, hour int) bool {
	if t == TierHourly {
		return true
	}
	hours, ok := tierHours[t]
	return ok && slices.Contains(hours, hour)
}

func (t Tier) String() string {
	switch t {
	case TierHourly:
		return "hourly"
	case TierFourTimesDaily:
		return "4x-daily"
	case TierDaily:
		return "daily"
	default:
		return "unknown"
	}
}

// Scraper produces postings from one source. Errors for individual documents
// belong in ScraperResult.Errors; a returned error means the whole scraper
// failed.
type Scraper interface {
	Name() string
	Tier() Tier
	Enabled() bool
	Scrape(ctx context.Context) (*types.ScraperResult, error)
}
