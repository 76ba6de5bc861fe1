// Package ranking scores job postings against a résumé keyword set and user
// preferences, and orders them for presentation.
package ranking

import (
	"math"
	"strings"

	"github.com/jonathan/internship-radar/internal/keywords"
	"github.com/jonathan/internship-radar/internal/types"
)

// Weights holds the per-axis caps and bonuses of the scoring model. Raw points
// are normalized against MaxPoints into a 0-100 percentage.
type Weights struct {
	DescriptionCap int `json:"description_cap"`
	TitleCap       int `json:"title_cap"`
	TagCap         int `json:"tag_cap"`
	RoleBonus      int `json:"role_bonus"`
	LocationBonus  int `json:"location_bonus"`
	MaxPoints      int `json:"max_points"`
}

// DefaultWeights returns the standard model: 6/3/2 overlap caps, 3 points for
// a role preference, 2 for a location preference, out of 16.
func DefaultWeights() Weights {
	return Weights{
		DescriptionCap: 6,
		TitleCap:       3,
		TagCap:         2,
		RoleBonus:      3,
		LocationBonus:  2,
		MaxPoints:      16,
	}
}

const (
	maxReasons        = 3
	maxSkillsInReason = 3
)

// Scorer computes match scores with a fixed set of weights.
type Scorer struct {
	Weights Weights
}

// NewScorer returns a scorer using DefaultWeights.
func NewScorer() *Scorer {
	return &Scorer{Weights: DefaultWeights()}
}

// ComputeMatchScore scores job with the default weights.
func ComputeMatchScore(job *types.MatchJob, resumeKeywords []string, prefs types.MatchPreferences) types.JobMatchScore {
	return NewScorer().Score(job, resumeKeywords, prefs)
}

// Score returns a 0-100 score and up to three reasons. Jobs with no raw
// points score 0 with no reasons.
func (s *Scorer) Score(job *types.MatchJob, resumeKeywords []string, prefs types.MatchPreferences) types.JobMatchScore {
	w := s.Weights
	result := types.JobMatchScore{JobID: job.ID, Reasons: []string{}}

	rolePrefs := normalizeList(prefs.Roles)
	locationPrefs := normalizeList(prefs.Locations)
	combined := keywords.MergeKeywords(resumeKeywords, normalizeList(prefs.Keywords))
	wanted := make(map[string]bool, len(combined))
	for _, k := range combined {
		wanted[k] = true
	}

	tagTokens := normalizeList(job.Tags)
	descMatches := matching(descriptionTokens(job), wanted)
	titleMatches := matching(keywords.Tokenize(job.Role), wanted)
	tagMatches := matching(tagTokens, wanted)

	raw := min(len(descMatches), w.DescriptionCap) +
		min(len(titleMatches), w.TitleCap) +
		min(len(tagMatches), w.TagCap)

	var reasons []string
	if pref, ok := matchRole(job.Role, tagTokens, rolePrefs); ok {
		raw += w.RoleBonus
		reasons = append(reasons, "Role: "+pref)
	}
	if pref, ok := matchLocation(job.Location, locationPrefs); ok {
		raw += w.LocationBonus
		reasons = append(reasons, "Location: "+pref)
	}

	matched := keywords.UniqueList(append(append(append([]string{}, titleMatches...), descMatches...), tagMatches...))
	if skills := orderBy(matched, combined, maxSkillsInReason); len(skills) > 0 {
		reasons = append(reasons, "Skills: "+strings.Join(skills, ", "))
	}

	if raw <= 0 || w.MaxPoints <= 0 {
		return result
	}

	result.Score = min(100, int(math.Round(float64(raw)/float64(w.MaxPoints)*100)))
	if len(reasons) > maxReasons {
		reasons = reasons[:maxReasons]
	}
	result.Reasons = reasons
	return result
}

// descriptionTokens prefers the live description, then stored job keywords,
// then keywords derived from the remaining fields.
func descriptionTokens(job *types.MatchJob) []string {
	if job.Description != nil && *job.Description != "" {
		return keywords.Tokenize(*job.Description)
	}
	if job.JobKeywords != nil {
		return job.JobKeywords
	}
	return keywords.BuildJobKeywords(keywords.JobText{
		Role:     job.Role,
		Company:  job.Company,
		Location: deref(job.Location),
		Tags:     job.Tags,
	})
}

func matching(tokens []string, wanted map[string]bool) []string {
	var out []string
	for _, t := range tokens {
		if wanted[t] {
			out = append(out, t)
		}
	}
	return keywords.UniqueList(out)
}

// orderBy returns up to n items of matched, ordered by their position in
// reference.
func orderBy(matched, reference []string, n int) []string {
	present := make(map[string]bool, len(matched))
	for _, m := range matched {
		present[m] = true
	}
	var out []string
	for _, r := range reference {
		if len(out) == n {
			break
		}
		if present[r] {
			out = append(out, r)
		}
	}
	return out
}

func matchRole(role string, tags, prefs []string) (string, bool) {
	roleText := strings.ToLower(role)
	for _, pref := range prefs {
		if strings.Contains(roleText, pref) {
			return pref, true
		}
		for _, tag := range tags {
			if strings.Contains(tag, pref) {
				return pref, true
			}
		}
	}
	return "", false
}

func matchLocation(location *string, prefs []string) (string, bool) {
	if location == nil || *location == "" {
		return "", false
	}
	jobLoc := strings.ToLower(*location)
	for _, pref := range prefs {
		if strings.Contains(jobLoc, pref) {
			return pref, true
		}
	}
	return "", false
}

// normalizeList lower-cases and trims values, dropping blanks.
func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

