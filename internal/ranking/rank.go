package ranking

import (
	"sort"

	"github.com/jonathan/internship-radar/internal/keywords"
	"github.com/jonathan/internship-radar/internal/types"
)

// DefaultRankLimit is the number of matches returned when no limit is given.
const DefaultRankLimit = 20

// RankJobMatches scores jobs with the default weights and returns the
// positive scores in descending order, truncated to limit.
func RankJobMatches(jobs []types.MatchJob, resumeKeywords []string, prefs types.MatchPreferences, limit int) []types.JobMatchScore {
	return NewScorer().Rank(jobs, resumeKeywords, prefs, limit)
}

// Rank returns jobs with a score above zero, best first. Equal scores keep
// input order. A limit <= 0 uses DefaultRankLimit.
func (s *Scorer) Rank(jobs []types.MatchJob, resumeKeywords []string, prefs types.MatchPreferences, limit int) []types.JobMatchScore {
	if limit <= 0 {
		limit = DefaultRankLimit
	}

	ranked := make([]types.JobMatchScore, 0, len(jobs))
	for i := range jobs {
		if m := s.Score(&jobs[i], resumeKeywords, prefs); m.Score > 0 {
			ranked = append(ranked, m)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// ResumeKeywords returns stored keywords when present, otherwise keywords
// extracted from the résumé text.
func ResumeKeywords(resumeText string, stored []string) []string {
	if len(stored) > 0 {
		return stored
	}
	if resumeText == "" {
		return []string{}
	}
	return keywords.ExtractKeywords(resumeText, keywords.DefaultLimit)
}
