// Package server provides the HTTP API: cron and sync triggers, stored
// matches, job postings and unsubscribe links.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/internship-radar/internal/db"
	"github.com/jonathan/internship-radar/internal/ingestion"
	"github.com/jonathan/internship-radar/internal/notify"
	"github.com/jonathan/internship-radar/internal/pipeline"
	"github.com/jonathan/internship-radar/internal/server/middleware"
	"github.com/jonathan/internship-radar/internal/server/ratelimit"
)

// Store is the persistence the HTTP handlers read and write
type Store interface {
	Ping(ctx context.Context) error
	ListUserMatches(ctx context.Context, userID uuid.UUID, since time.Time, limit int) ([]db.UserMatch, error)
	ListJobPostings(ctx context.Context, filter db.JobPostingFilter) ([]db.JobPosting, error)
	Unsubscribe(ctx context.Context, email string) (bool, error)
}

// Syncer runs and clears GitHub job syncs
type Syncer interface {
	Sync(ctx context.Context, hour int, opts ingestion.SyncOptions) (*ingestion.SyncResult, error)
	Clear(ctx context.Context) (int64, error)
}

// Refresher recomputes stored match scores
type Refresher interface {
	Refresh(ctx context.Context) (*pipeline.RefreshResult, error)
}

// DigestSender delivers the weekly digest
type DigestSender interface {
	Send(ctx context.Context) (*pipeline.DigestResult, error)
}

// Config holds server configuration
type Config struct {
	Port       int
	CronSecret string
	SyncSecret string
	// APIKey, when set, is required as a Bearer token on read endpoints
	APIKey    string
	RateLimit *ratelimit.Config
}

// Deps are the services behind the handlers. A nil Signer disables
// unsubscribe links.
type Deps struct {
	Store     Store
	Syncer    Syncer
	Refresher Refresher
	Digest    DigestSender
	Signer    *notify.TokenSigner
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	cfg         Config
	deps        Deps
	rateLimiter *ratelimit.Limiter
	now         func() time.Time
}

// New creates a new server instance
func New(cfg Config, deps Deps) *Server {
	s := &Server{
		cfg:         cfg,
		deps:        deps,
		rateLimiter: ratelimit.NewLimiter(cfg.RateLimit),
		now:         time.Now,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Long timeout for scrape runs
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the routed handler wrapped in rate limiting, logging and CORS
func (s *Server) Handler() http.Handler {
	cron := middleware.RequireBearer(s.cfg.CronSecret)
	sync := middleware.RequireHeader(middleware.SyncSecretHeader, s.cfg.SyncSecret)
	read := func(h http.Handler) http.Handler {
		if s.cfg.APIKey == "" {
			return h
		}
		return middleware.RequireBearer(s.cfg.APIKey)(h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	// Triggers
	mux.Handle("POST /cron/scrape-jobs", cron(http.HandlerFunc(s.handleScrape)))
	mux.Handle("POST /cron/refresh-matches", cron(http.HandlerFunc(s.handleRefresh)))
	mux.Handle("POST /cron/send-digest", cron(http.HandlerFunc(s.handleDigest)))
	mux.Handle("GET /jobs/sync", cron(http.HandlerFunc(s.handleScrape)))
	mux.Handle("POST /jobs/sync", sync(http.HandlerFunc(s.handleSync)))
	mux.Handle("DELETE /jobs/sync", sync(http.HandlerFunc(s.handleClear)))

	// Reads
	mux.Handle("GET /users/{id}/matches", read(http.HandlerFunc(s.handleUserMatches)))
	mux.Handle("GET /job-postings", read(http.HandlerFunc(s.handleListJobPostings)))

	mux.HandleFunc("GET /unsubscribe", s.handleUnsubscribe)

	return s.withRateLimit(s.withLogging(s.withCORS(mux)))
}

// Start listens until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.rateLimiter.Stop()
	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Sync-Secret, X-Action")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit rejects clients over their per-endpoint budget with 429
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(clientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response with the status mapped from err
func (s *Server) errorResponse(w http.ResponseWriter, err error) {
	s.jsonResponse(w, HTTPStatus(err), map[string]any{"ok": false, "error": err.Error()})
}

// clientID uses the IP from RemoteAddr. Forwarded headers are not trusted.
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	}

	log.Printf("[rate-limit] Rate limit exceeded: Limit=%d Reset=%s",
		info.Limit, info.ResetTime.Format(time.RFC3339))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
