package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jonathan/internship-radar/internal/db"
	"github.com/jonathan/internship-radar/internal/keywords"
)

// InternshipResult reports a backfill run
type InternshipResult struct {
	Inserted int `json:"inserted"`
	Missing  int `json:"missing"`
}

// EnsureInternships copies legacy internship rows not yet present into job
// postings under the source id "internships|{id}", with keywords computed
// from their text fields.
func EnsureInternships(ctx context.Context, store MatchStore) (InternshipResult, error) {
	missing, err := store.ListMissingInternships(ctx)
	if err != nil {
		return InternshipResult{}, err
	}
	if len(missing) == 0 {
		return InternshipResult{}, nil
	}

	rows := make([]db.JobPosting, len(missing))
	for i := range missing {
		rows[i] = internshipPosting(&missing[i])
	}

	res := store.UpsertJobPostings(ctx, rows)
	log.Printf("[refresh] Backfilled %d of %d internships", res.Upserted, len(missing))
	if res.Upserted == 0 && res.Failed > 0 {
		return InternshipResult{Missing: len(missing)}, fmt.Errorf("failed to backfill internships: %s", strings.Join(res.Errors, "; "))
	}
	return InternshipResult{Inserted: res.Upserted, Missing: len(missing)}, nil
}

func internshipPosting(in *db.Internship) db.JobPosting {
	company := "Unknown company"
	if in.Company != nil && strings.TrimSpace(*in.Company) != "" {
		company = strings.TrimSpace(*in.Company)
	}
	role := "Internship"
	if in.Title != nil && strings.TrimSpace(*in.Title) != "" {
		role = strings.TrimSpace(*in.Title)
	}
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	location := ""
	if in.Location != nil {
		location = *in.Location
	}
	created := in.CreatedAt

	return db.JobPosting{
		SourceID: in.SourceID(),
		Company:  company,
		Role:     role,
		Location: in.Location,
		URL:      in.URL,
		JobKeywords: keywords.BuildJobKeywords(keywords.JobText{
			Role:     role,
			Company:  company,
			Location: location,
			Tags:     tags,
		}),
		DatePosted: &created,
		Source:     db.InternshipsSource,
		Tags:       tags,
	}
}
