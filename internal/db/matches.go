package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/internship-radar/internal/types"
)

// ResetUserMatches zeroes every stored match for a user so that jobs no
// longer ranked stop surfacing.
func (db *DB) ResetUserMatches(ctx context.Context, userID uuid.UUID, at time.Time) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE job_matches SET match_score = 0, match_reasons = '{}', matched_at = $2
		 WHERE user_id = $1`,
		userID, at,
	)
	if err != nil {
		return fmt.Errorf("failed to reset matches for user %s: %w", userID, err)
	}
	return nil
}

// UpsertJobMatches stores scores keyed by (user, job) in one transaction
func (db *DB) UpsertJobMatches(ctx context.Context, userID uuid.UUID, matches []types.JobMatchScore, at time.Time) error {
	if len(matches) == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		b := &pgx.Batch{}
		for _, m := range matches {
			reasons := m.Reasons
			if reasons == nil {
				reasons = []string{}
			}
			b.Queue(
				`INSERT INTO job_matches (user_id, job_id, match_score, match_reasons, matched_at)
				 VALUES ($1, $2::uuid, $3, $4, $5)
				 ON CONFLICT (user_id, job_id) DO UPDATE SET
				     match_score = EXCLUDED.match_score,
				     match_reasons = EXCLUDED.match_reasons,
				     matched_at = EXCLUDED.matched_at`,
				userID, m.JobID, m.Score, reasons, at,
			)
		}
		results := tx.SendBatch(ctx, b)
		for range matches {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("failed to upsert job match: %w", err)
			}
		}
		return results.Close()
	})
}

// ListUserMatches returns a user's non-zero matches, best first. A zero
// since returns matches of any age.
func (db *DB) ListUserMatches(ctx context.Context, userID uuid.UUID, since time.Time, limit int) ([]UserMatch, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := db.pool.Query(ctx,
		`SELECT jm.job_id::text, jm.match_score, jm.match_reasons, jm.matched_at,
		        jp.company, jp.role, jp.location, jp.url, jp.date_posted,
		        jp.salary_min, jp.salary_max, jp.salary_interval
		 FROM job_matches jm
		 JOIN job_postings jp ON jp.id = jm.job_id
		 WHERE jm.user_id = $1 AND jm.match_score > 0 AND jp.created_at >= $2
		 ORDER BY jm.match_score DESC, jp.date_posted DESC NULLS LAST
		 LIMIT $3`,
		userID, since, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	var matches []UserMatch
	for rows.Next() {
		var m UserMatch
		if err := rows.Scan(&m.JobID, &m.Score, &m.Reasons, &m.MatchedAt,
			&m.Company, &m.Role, &m.Location, &m.URL, &m.DatePosted,
			&m.SalaryMin, &m.SalaryMax, &m.SalaryInterval); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate matches: %w", err)
	}
	return matches, nil
}
