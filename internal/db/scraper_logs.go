package db

import (
	"context"
	"fmt"
)

// InsertScraperLog records a scrape run
func (db *DB) InsertScraperLog(ctx context.Context, entry ScraperLog) error {
	sources := entry.Sources
	if sources == nil {
		sources = []string{}
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO scraper_logs (status, scraped, saved, duplicates, duration_seconds, sources, error_message)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.Status, entry.Scraped, entry.Saved, entry.Duplicates, entry.DurationSeconds, sources, entry.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to insert scraper log: %w", err)
	}
	return nil
}

// ListScraperLogs returns the most recent scrape runs
func (db *DB) ListScraperLogs(ctx context.Context, limit int) ([]ScraperLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, status, scraped, saved, duplicates, duration_seconds, sources, error_message, created_at
		 FROM scraper_logs
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list scraper logs: %w", err)
	}
	defer rows.Close()

	var logs []ScraperLog
	for rows.Next() {
		var l ScraperLog
		if err := rows.Scan(&l.ID, &l.Status, &l.Scraped, &l.Saved, &l.Duplicates,
			&l.DurationSeconds, &l.Sources, &l.ErrorMessage, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan scraper log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scraper logs: %w", err)
	}
	return logs, nil
}
