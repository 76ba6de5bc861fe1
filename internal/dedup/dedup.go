// Package dedup merges postings contributed by overlapping sources.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/jonathan/internship-radar/internal/types"
)

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]`)

// Fingerprint identifies a posting across sources by its normalized
// company, role and location. A missing location normalizes as "unknown".
func Fingerprint(job *types.ScrapedJob) string {
	location := job.LocationText()
	if location == "" {
		location = "unknown"
	}
	key := normalize(job.Company) + "|" + normalize(job.Role) + "|" + normalize(location)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:16]
}

func normalize(s string) string {
	return nonAlnumRe.ReplaceAllString(strings.ToLower(s), "")
}

// Completeness scores how much a posting carries: 3 for a description,
// 2 for a salary, 1 each for a URL and a posted date.
func Completeness(job *types.ScrapedJob) int {
	score := 0
	if job.Description != nil {
		score += 3
	}
	if job.SalaryMin != nil {
		score += 2
	}
	if job.URL != nil {
		score++
	}
	if job.DatePosted != nil {
		score++
	}
	return score
}

// Deduplicate keeps one posting per fingerprint. Output order follows the
// first appearance of each fingerprint.
func Deduplicate(jobs []types.ScrapedJob) []types.ScrapedJob {
	index := make(map[string]int, len(jobs))
	out := make([]types.ScrapedJob, 0, len(jobs))

	for i := range jobs {
		fp := Fingerprint(&jobs[i])
		pos, seen := index[fp]
		if !seen {
			index[fp] = len(out)
			out = append(out, jobs[i])
			continue
		}
		if preferred(&jobs[i], &out[pos]) {
			out[pos] = jobs[i]
		}
	}
	return out
}

// preferred reports whether candidate should replace current. The order is
// total so the winner does not depend on input order: completeness, then the
// later posted date, then the smaller source id.
func preferred(candidate, current *types.ScrapedJob) bool {
	a, b := Completeness(candidate), Completeness(current)
	if a != b {
		return a > b
	}

	switch {
	case candidate.DatePosted != nil && current.DatePosted != nil:
		if !candidate.DatePosted.Equal(*current.DatePosted) {
			return candidate.DatePosted.After(*current.DatePosted)
		}
	case candidate.DatePosted != nil:
		return true
	case current.DatePosted != nil:
		return false
	}

	return candidate.SourceID < current.SourceID
}
