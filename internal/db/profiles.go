package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ListMatchProfiles returns every user with a résumé or job preferences
func (db *DB) ListMatchProfiles(ctx context.Context) ([]MatchProfile, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT COALESCE(r.user_id, p.user_id), r.resume_text, r.resume_keywords,
		        COALESCE(p.interested_roles, '{}'), COALESCE(p.preferred_locations, '{}'),
		        COALESCE(p.keywords, '{}')
		 FROM resumes r
		 FULL OUTER JOIN user_job_preferences p ON p.user_id = r.user_id
		 ORDER BY 1`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list match profiles: %w", err)
	}
	defer rows.Close()

	var profiles []MatchProfile
	for rows.Next() {
		var mp MatchProfile
		if err := rows.Scan(&mp.UserID, &mp.ResumeText, &mp.ResumeKeywords,
			&mp.Preferences.Roles, &mp.Preferences.Locations, &mp.Preferences.Keywords); err != nil {
			return nil, fmt.Errorf("failed to scan match profile: %w", err)
		}
		profiles = append(profiles, mp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate match profiles: %w", err)
	}
	return profiles, nil
}

// ListDigestProfiles returns users whose email frequency matches, with
// their contact details and matching inputs.
func (db *DB) ListDigestProfiles(ctx context.Context, frequency string) ([]DigestProfile, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT p.user_id, r.resume_text, r.resume_keywords,
		        p.interested_roles, p.preferred_locations, p.keywords,
		        pr.email, pr.telegram_chat_id, p.last_email_sent
		 FROM user_job_preferences p
		 JOIN profiles pr ON pr.id = p.user_id
		 LEFT JOIN resumes r ON r.user_id = p.user_id
		 WHERE p.email_frequency = $1
		 ORDER BY p.user_id`,
		frequency,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list digest profiles: %w", err)
	}
	defer rows.Close()

	var profiles []DigestProfile
	for rows.Next() {
		var dp DigestProfile
		if err := rows.Scan(&dp.UserID, &dp.ResumeText, &dp.ResumeKeywords,
			&dp.Preferences.Roles, &dp.Preferences.Locations, &dp.Preferences.Keywords,
			&dp.Email, &dp.ChatID, &dp.LastEmailSent); err != nil {
			return nil, fmt.Errorf("failed to scan digest profile: %w", err)
		}
		profiles = append(profiles, dp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate digest profiles: %w", err)
	}
	return profiles, nil
}

// MarkDigestSent records when a user's digest went out
func (db *DB) MarkDigestSent(ctx context.Context, userID uuid.UUID, at time.Time) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE user_job_preferences SET last_email_sent = $2 WHERE user_id = $1`,
		userID, at,
	)
	if err != nil {
		return fmt.Errorf("failed to mark digest sent: %w", err)
	}
	return nil
}

// ListActiveSubscribers returns subscribers with status 'active'
func (db *DB) ListActiveSubscribers(ctx context.Context) ([]Subscriber, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, email, telegram_chat_id, COALESCE(interests, '{}'), status
		 FROM email_subscribers
		 WHERE status = 'active'
		 ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	defer rows.Close()

	var subs []Subscriber
	for rows.Next() {
		var s Subscriber
		if err := rows.Scan(&s.ID, &s.Email, &s.ChatID, &s.Interests, &s.Status); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscribers: %w", err)
	}
	return subs, nil
}

// Unsubscribe marks the subscriber with this email as unsubscribed. It
// reports whether a row was changed.
func (db *DB) Unsubscribe(ctx context.Context, email string) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE email_subscribers SET status = 'unsubscribed'
		 WHERE lower(email) = lower($1) AND status <> 'unsubscribed'`,
		email,
	)
	if err != nil {
		return false, fmt.Errorf("failed to unsubscribe: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
