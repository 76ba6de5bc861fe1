package parsing

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/jonathan/internship-radar/internal/types"
)

const (
	hoursPerWeek = 40
	weeksPerYear = 52
	day          = 24 * time.Hour
)

var (
	relativeDaysRe = regexp.MustCompile(`(\d+)\s*(d|day|days)\b`)
	hourlyRe       = regexp.MustCompile(`(?i)\$(\d+)/hr`)
	yearlyRe       = regexp.MustCompile(`(?i)\$(\d+)k/yr`)
)

// Salary is a parsed salary cell. All fields are nil when the cell does not
// match a known format.
type Salary struct {
	Min      *int
	Max      *int
	Interval *string
}

// ParseSalary understands "$N/hr" (annualized at 40h x 52w, interval hourly)
// and "$Nk/yr" (interval yearly).
func ParseSalary(value string) Salary {
	if m := hourlyRe.FindStringSubmatch(value); m != nil {
		if hourly, err := strconv.Atoi(m[1]); err == nil {
			annual := hourly * hoursPerWeek * weeksPerYear
			return newSalary(annual, types.IntervalHourly)
		}
	}
	if m := yearlyRe.FindStringSubmatch(value); m != nil {
		if k, err := strconv.Atoi(m[1]); err == nil {
			return newSalary(k*1000, types.IntervalYearly)
		}
	}
	return Salary{}
}

func newSalary(amount int, interval string) Salary {
	lo, hi := amount, amount
	return Salary{Min: &lo, Max: &hi, Interval: &interval}
}

// ParsePostedDate converts an age cell ("Today", "Yesterday", "3d", "5 days")
// or an absolute date into a timestamp relative to now. Anything else yields nil.
func ParsePostedDate(value string, now time.Time) *time.Time {
	if value == "" {
		return nil
	}
	stripped := StripMarkup(value)
	normalized := strings.ToLower(stripped)
	if normalized == "" {
		return nil
	}

	if strings.Contains(normalized, "today") || strings.Contains(normalized, "just") {
		return &now
	}
	if strings.Contains(normalized, "yesterday") {
		t := now.Add(-day)
		return &t
	}
	if m := relativeDaysRe.FindStringSubmatch(normalized); m != nil {
		if days, err := strconv.Atoi(m[1]); err == nil {
			t := now.Add(-time.Duration(days) * day)
			return &t
		}
	}

	if t, err := dateparse.ParseIn(stripped, time.UTC); err == nil {
		return &t
	}
	return nil
}

// BuildSourceID derives a stable "{source}|{16 hex}" identifier from the
// given key parts.
func BuildSourceID(source string, parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return source + "|" + hex.EncodeToString(sum[:])[:16]
}
