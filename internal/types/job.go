// Package types provides type definitions for structured data used throughout the job ingestion and matching pipeline.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"strings"
	"time"
)

// Tag values with special meaning to the pipeline
const (
	TagDateRepo    = "date:repo"    // posted date came from the aggregator table
	TagDateCompany = "date:company" // posted date came from the employer page
	TagSeason      = "2026-swe"
)

// Salary intervals
const (
	IntervalHourly = "hourly"
	IntervalYearly = "yearly"
)

// Job type and region labels attached by source metadata
const (
	JobTypeInternship = "internship"
	JobTypeNewGrad    = "new-grad"
	RegionUSA         = "usa"
	RegionIntl        = "international"
)

// Section categories detected inside a source document
const (
	CategoryFAANG = "faang"
	CategoryQuant = "quant"
	CategoryOther = "other"
)

// ScrapedJob is a normalized posting produced by a scraper and consumed by
// deduplication, enrichment and persistence.
type ScrapedJob struct {
	SourceID             string     `json:"source_id"`
	Company              string     `json:"company"`
	Role                 string     `json:"role"`
	Location             *string    `json:"location,omitempty"`
	URL                  *string    `json:"url,omitempty"`
	Description          *string    `json:"description,omitempty"`
	JobKeywords          []string   `json:"job_keywords,omitempty"`
	DescriptionFetchedAt *time.Time `json:"description_fetched_at,omitempty"`
	DatePosted           *time.Time `json:"date_posted,omitempty"`
	Source               string     `json:"source"`
	Tags                 Tags       `json:"tags"`
	SalaryMin            *int       `json:"salary_min,omitempty"`
	SalaryMax            *int       `json:"salary_max,omitempty"`
	SalaryInterval       *string    `json:"salary_interval,omitempty"`
}

// HasURL reports whether the job carries a non-empty external link.
func (j *ScrapedJob) HasURL() bool {
	return j.URL != nil && *j.URL != ""
}

// HasDescription reports whether the job carries a non-empty description.
func (j *ScrapedJob) HasDescription() bool {
	return j.Description != nil && *j.Description != ""
}

// LocationText returns the location or an empty string.
func (j *ScrapedJob) LocationText() string {
	if j.Location == nil {
		return ""
	}
	return *j.Location
}

// URLText returns the url or an empty string.
func (j *ScrapedJob) URLText() string {
	if j.URL == nil {
		return ""
	}
	return *j.URL
}

// WithDateSource returns a copy of the job whose freshness marker is replaced
// by date:company when fromCompany is set and date:repo otherwise.
func (j ScrapedJob) WithDateSource(fromCompany bool) ScrapedJob {
	tags := j.Tags.Without(TagDateCompany, TagDateRepo)
	if fromCompany {
		j.Tags = tags.With(TagDateCompany)
	} else {
		j.Tags = tags.With(TagDateRepo)
	}
	return j
}

// Tags is an unordered set of labels stored as a slice. Insertion order is
// kept for stable output but duplicates are never stored.
type Tags []string

// NewTags builds a tag set from values, dropping blanks and duplicates.
func NewTags(values ...string) Tags {
	var t Tags
	return t.With(values...)
}

// Has reports whether tag is present.
func (t Tags) Has(tag string) bool {
	for _, v := range t {
		if v == tag {
			return true
		}
	}
	return false
}

// With returns a new set containing t plus values.
func (t Tags) With(values ...string) Tags {
	out := make(Tags, 0, len(t)+len(values))
	for _, v := range t {
		if !out.Has(v) {
			out = append(out, v)
		}
	}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || out.Has(v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Without returns a new set with the given values removed.
func (t Tags) Without(values ...string) Tags {
	out := make(Tags, 0, len(t))
	for _, v := range t {
		drop := false
		for _, r := range values {
			if v == r {
				drop = true
				break
			}
		}
		if !drop && !out.Has(v) {
			out = append(out, v)
		}
	}
	return out
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
