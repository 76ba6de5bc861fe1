package types

import (
	"fmt"
	"strings"
)

// MatchPreferences holds a user's role, location and keyword preferences.
// An empty list means no constraint on that axis.
type MatchPreferences struct {
	Roles     []string `json:"roles"`
	Locations []string `json:"locations"`
	Keywords  []string `json:"keywords"`
}

// IsEmpty reports whether no preference is set on any axis
func (p MatchPreferences) IsEmpty() bool {
	return len(p.Roles) == 0 && len(p.Locations) == 0 && len(p.Keywords) == 0
}

// MatchJob is the subset of a persisted posting needed for scoring
type MatchJob struct {
	ID          string   `json:"id"`
	Role        string   `json:"role"`
	Company     string   `json:"company"`
	Location    *string  `json:"location,omitempty"`
	URL         *string  `json:"url,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Description *string  `json:"description,omitempty"`
	JobKeywords []string `json:"job_keywords,omitempty"`
}

// JobMatchScore is a scored job for one user. Score is in [0, 100] and
// Reasons holds at most three human-readable strings.
type JobMatchScore struct {
	JobID   string   `json:"job_id"`
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}

// JobSummary is what a notification lists for each matched job
type JobSummary struct {
	Title    string  `json:"title"`
	Company  string  `json:"company"`
	Location *string `json:"location,omitempty"`
	URL      *string `json:"url,omitempty"`
	Salary   string  `json:"salary,omitempty"`
}

// FormatSalary renders a salary range for display, e.g. "$120K - $150K yearly".
// Returns an empty string when neither bound is set.
func FormatSalary(salaryMin, salaryMax *int, interval *string) string {
	hasMin := salaryMin != nil && *salaryMin > 0
	hasMax := salaryMax != nil && *salaryMax > 0
	if !hasMin && !hasMax {
		return ""
	}

	formatNum := func(n int) string {
		if n >= 1000 {
			return fmt.Sprintf("$%.0fK", float64(n)/1000)
		}
		return fmt.Sprintf("$%d", n)
	}

	suffix := ""
	if interval != nil && *interval != "" {
		suffix = " " + *interval
	}

	var sb strings.Builder
	switch {
	case hasMin && hasMax:
		sb.WriteString(formatNum(*salaryMin))
		sb.WriteString(" - ")
		sb.WriteString(formatNum(*salaryMax))
	case hasMin:
		sb.WriteString(formatNum(*salaryMin))
		sb.WriteString("+")
	default:
		sb.WriteString("Up to ")
		sb.WriteString(formatNum(*salaryMax))
	}
	sb.WriteString(suffix)
	return sb.String()
}
