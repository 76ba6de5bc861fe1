package server

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/internship-radar/internal/db"
	"github.com/jonathan/internship-radar/internal/ingestion"
	"github.com/jonathan/internship-radar/internal/notify"
)

// X-Action values accepted by POST /jobs/sync
const (
	ActionClear        = "clear"
	ActionClearAndSync = "clear-and-sync"
)

const defaultMatchesLimit = 30

// handleHealth reports liveness and database reachability
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store != nil {
		if err := s.deps.Store.Ping(r.Context()); err != nil {
			s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": err.Error()})
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScrape runs the scrapers due at the current UTC hour, or at ?hour=
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	hour := s.now().UTC().Hour()
	if raw := r.URL.Query().Get("hour"); raw != "" {
		h, err := strconv.Atoi(raw)
		if err != nil || h < 0 || h > 23 {
			s.errorResponse(w, &ErrValidation{Field: "hour", Message: "must be an integer from 0 to 23"})
			return
		}
		hour = h
	}
	s.runSync(w, r, hour, ingestion.SyncOptions{})
}

// handleSync runs a sync, optionally clearing GitHub jobs first per X-Action.
// Unrecognized actions run a plain sync.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	switch r.Header.Get("X-Action") {
	case ActionClear:
		s.handleClear(w, r)
	case ActionClearAndSync:
		s.runSync(w, r, s.now().UTC().Hour(), ingestion.SyncOptions{ClearFirst: true})
	default:
		s.runSync(w, r, s.now().UTC().Hour(), ingestion.SyncOptions{})
	}
}

func (s *Server) runSync(w http.ResponseWriter, r *http.Request, hour int, opts ingestion.SyncOptions) {
	if s.deps.Syncer == nil {
		s.errorResponse(w, &ErrUnavailable{Feature: "sync"})
		return
	}
	result, err := s.deps.Syncer.Sync(r.Context(), hour, opts)
	if err != nil {
		log.Printf("[jobs:sync] Sync failed: %v", err)
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"ok": true, "result": result})
}

// handleClear deletes every GitHub-sourced posting
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if s.deps.Syncer == nil {
		s.errorResponse(w, &ErrUnavailable{Feature: "sync"})
		return
	}
	deleted, err := s.deps.Syncer.Clear(r.Context())
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"ok": true, "deleted": deleted})
}

// handleRefresh recomputes every user's stored matches
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.deps.Refresher == nil {
		s.errorResponse(w, &ErrUnavailable{Feature: "match refresh"})
		return
	}
	result, err := s.deps.Refresher.Refresh(r.Context())
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"ok": true, "result": result})
}

// handleDigest sends the weekly digest
func (s *Server) handleDigest(w http.ResponseWriter, r *http.Request) {
	if s.deps.Digest == nil {
		s.errorResponse(w, &ErrUnavailable{Feature: "digest"})
		return
	}
	result, err := s.deps.Digest.Send(r.Context())
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"ok": true, "result": result})
}

// handleUserMatches lists a user's positive stored matches. Query
// parameters: days (only postings created in the last N days) and limit.
func (s *Server) handleUserMatches(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, &ErrValidation{Field: "id", Message: "must be a UUID"})
		return
	}
	limit, err := queryInt(r, "limit", defaultMatchesLimit)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	days, err := queryInt(r, "days", 0)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	var since time.Time
	if days > 0 {
		since = s.now().Add(-time.Duration(days) * 24 * time.Hour)
	}

	matches, err := s.deps.Store.ListUserMatches(r.Context(), userID, since, limit)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if matches == nil {
		matches = []db.UserMatch{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"matches": matches, "count": len(matches)})
}

// handleListJobPostings lists postings filtered by source, tag and a
// free-text q over company and role.
func (s *Server) handleListJobPostings(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	q := r.URL.Query()
	postings, err := s.deps.Store.ListJobPostings(r.Context(), db.JobPostingFilter{
		Source: q.Get("source"),
		Tag:    q.Get("tag"),
		Query:  strings.TrimSpace(q.Get("q")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if postings == nil {
		postings = []db.JobPosting{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"job_postings": postings, "count": len(postings)})
}

// handleUnsubscribe verifies a signed link and deactivates the subscriber
func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	if s.deps.Signer == nil {
		s.errorResponse(w, &ErrUnavailable{Feature: "unsubscribe"})
		return
	}
	email, err := s.deps.Signer.Verify(strings.TrimSpace(r.URL.Query().Get("token")))
	if err != nil {
		if errors.Is(err, notify.ErrInvalidToken) {
			s.jsonResponse(w, http.StatusBadRequest, map[string]string{"status": "invalid"})
			return
		}
		s.errorResponse(w, err)
		return
	}

	changed, err := s.deps.Store.Unsubscribe(r.Context(), email)
	if err != nil {
		log.Printf("[unsubscribe] Failed for %s: %v", email, err)
		s.errorResponse(w, err)
		return
	}
	status := "unsubscribed"
	if !changed {
		status = "not_subscribed"
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": status})
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, &ErrValidation{Field: key, Message: "must be a non-negative integer"}
	}
	return n, nil
}
