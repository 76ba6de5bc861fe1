package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

const jobPostingColumns = `id::text, source_id, company, role, location, url, description,
	        job_keywords, description_fetched_at, date_posted, source, COALESCE(tags, '{}'),
	        salary_min, salary_max, salary_interval, created_at, updated_at`

// upsertJobPostingSQL keeps an employer-page posting date over a later
// aggregator value, and never clears a stored description.
const upsertJobPostingSQL = `INSERT INTO job_postings (source_id, company, role, location, url, description,
	                          job_keywords, description_fetched_at, date_posted, source, tags,
	                          salary_min, salary_max, salary_interval)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	 ON CONFLICT (source_id) DO UPDATE SET
	     company = EXCLUDED.company,
	     role = EXCLUDED.role,
	     location = EXCLUDED.location,
	     url = EXCLUDED.url,
	     description = COALESCE(EXCLUDED.description, job_postings.description),
	     job_keywords = COALESCE(EXCLUDED.job_keywords, job_postings.job_keywords),
	     description_fetched_at = COALESCE(EXCLUDED.description_fetched_at, job_postings.description_fetched_at),
	     date_posted = CASE
	         WHEN 'date:company' = ANY(job_postings.tags) AND NOT 'date:company' = ANY(EXCLUDED.tags)
	             THEN job_postings.date_posted
	         ELSE COALESCE(EXCLUDED.date_posted, job_postings.date_posted)
	     END,
	     source = EXCLUDED.source,
	     tags = CASE
	         WHEN 'date:company' = ANY(job_postings.tags) AND NOT 'date:company' = ANY(EXCLUDED.tags)
	             THEN array_replace(EXCLUDED.tags, 'date:repo', 'date:company')
	         ELSE EXCLUDED.tags
	     END,
	     salary_min = EXCLUDED.salary_min,
	     salary_max = EXCLUDED.salary_max,
	     salary_interval = EXCLUDED.salary_interval,
	     updated_at = NOW()`

func scanJobPosting(row pgx.Row) (*JobPosting, error) {
	var p JobPosting
	err := row.Scan(&p.ID, &p.SourceID, &p.Company, &p.Role, &p.Location, &p.URL, &p.Description,
		&p.JobKeywords, &p.DescriptionFetchedAt, &p.DatePosted, &p.Source, &p.Tags,
		&p.SalaryMin, &p.SalaryMax, &p.SalaryInterval, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectJobPostings(rows pgx.Rows) ([]JobPosting, error) {
	defer rows.Close()

	var postings []JobPosting
	for rows.Next() {
		p, err := scanJobPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job posting: %w", err)
		}
		postings = append(postings, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate job postings: %w", err)
	}
	return postings, nil
}

// UpsertJobPostings writes postings keyed by source id in transactions of
// UpsertBatchSize rows. A failed batch is rolled back and counted in Failed;
// the remaining batches are still attempted.
func (db *DB) UpsertJobPostings(ctx context.Context, postings []JobPosting) UpsertResult {
	result := UpsertResult{Written: []string{}, Errors: []string{}}

	for i, batch := range chunk(postings, UpsertBatchSize) {
		if err := db.upsertBatch(ctx, batch); err != nil {
			log.Printf("[db] Upsert batch %d failed: %v", i+1, err)
			result.Failed += len(batch)
			result.Errors = append(result.Errors, fmt.Sprintf("batch %d: %v", i+1, err))
			continue
		}
		result.Upserted += len(batch)
		for _, p := range batch {
			result.Written = append(result.Written, p.SourceID)
		}
	}
	return result
}

func (db *DB) upsertBatch(ctx context.Context, batch []JobPosting) error {
	return pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		b := &pgx.Batch{}
		for _, p := range batch {
			tags := p.Tags
			if tags == nil {
				tags = []string{}
			}
			b.Queue(upsertJobPostingSQL,
				p.SourceID, p.Company, p.Role, p.Location, p.URL, p.Description,
				p.JobKeywords, p.DescriptionFetchedAt, p.DatePosted, p.Source, tags,
				p.SalaryMin, p.SalaryMax, p.SalaryInterval,
			)
		}
		results := tx.SendBatch(ctx, b)
		for range batch {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("failed to upsert job posting: %w", err)
			}
		}
		return results.Close()
	})
}

// ExistingSourceIDs returns which of the given source ids are already stored.
// Lookups are issued in chunks of LookupChunkSize ids.
func (db *DB) ExistingSourceIDs(ctx context.Context, sourceIDs []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	for _, ids := range chunk(sourceIDs, LookupChunkSize) {
		rows, err := db.pool.Query(ctx,
			`SELECT source_id FROM job_postings WHERE source_id = ANY($1)`,
			ids,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing job postings: %w", err)
		}
		found, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return nil, fmt.Errorf("failed to scan source ids: %w", err)
		}
		for _, id := range found {
			existing[id] = true
		}
	}
	return existing, nil
}

// GetJobPostingBySourceID retrieves a posting by its source id
func (db *DB) GetJobPostingBySourceID(ctx context.Context, sourceID string) (*JobPosting, error) {
	p, err := scanJobPosting(db.pool.QueryRow(ctx,
		`SELECT `+jobPostingColumns+` FROM job_postings WHERE source_id = $1`,
		sourceID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job posting: %w", err)
	}
	return p, nil
}

// DeleteJobsBySource removes every posting from a source and returns how
// many rows were deleted.
func (db *DB) DeleteJobsBySource(ctx context.Context, source string) (int64, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM job_postings WHERE source = $1`, source)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %s job postings: %w", source, err)
	}
	return tag.RowsAffected(), nil
}

// ListJobsForMatching returns the most recently posted jobs, newest first,
// with undated postings last.
func (db *DB) ListJobsForMatching(ctx context.Context, limit int) ([]JobPosting, error) {
	if limit <= 0 {
		limit = DefaultMatchingJobLimit
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+jobPostingColumns+`
		 FROM job_postings
		 ORDER BY date_posted DESC NULLS LAST, created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs for matching: %w", err)
	}
	return collectJobPostings(rows)
}

// ListJobPostings returns postings matching the filter, newest first
func (db *DB) ListJobPostings(ctx context.Context, f JobPostingFilter) ([]JobPosting, error) {
	var (
		where []string
		args  []any
	)
	if f.Source != "" {
		args = append(args, f.Source)
		where = append(where, fmt.Sprintf("source = $%d", len(args)))
	}
	if f.Tag != "" {
		args = append(args, f.Tag)
		where = append(where, fmt.Sprintf("$%d = ANY(tags)", len(args)))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, "%"+q+"%")
		where = append(where, fmt.Sprintf("(role ILIKE $%d OR company ILIKE $%d OR location ILIKE $%d)", len(args), len(args), len(args)))
	}

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit, max(f.Offset, 0))

	query := `SELECT ` + jobPostingColumns + ` FROM job_postings`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY date_posted DESC NULLS LAST, created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list job postings: %w", err)
	}
	return collectJobPostings(rows)
}

// ListMissingInternships returns legacy internship rows that have not yet
// been copied into job postings.
func (db *DB) ListMissingInternships(ctx context.Context) ([]Internship, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT i.id::text, i.title, i.company, i.location, i.url, COALESCE(i.tags, '{}'), i.created_at
		 FROM internships i
		 LEFT JOIN job_postings jp ON jp.source_id = 'internships|' || i.id::text
		 WHERE jp.id IS NULL
		 ORDER BY i.created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list internships: %w", err)
	}
	defer rows.Close()

	var out []Internship
	for rows.Next() {
		var in Internship
		if err := rows.Scan(&in.ID, &in.Title, &in.Company, &in.Location, &in.URL, &in.Tags, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan internship: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// ListRecentJobs returns postings created since the given time, newest first
func (db *DB) ListRecentJobs(ctx context.Context, since time.Time, limit int) ([]JobPosting, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+jobPostingColumns+`
		 FROM job_postings
		 WHERE created_at >= $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		since, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent jobs: %w", err)
	}
	return collectJobPostings(rows)
}
