package main

import (
	"context"
	"fmt"
	"log"

	"github.com/jonathan/internship-radar/internal/config"
	"github.com/jonathan/internship-radar/internal/db"
	"github.com/jonathan/internship-radar/internal/enrich"
	"github.com/jonathan/internship-radar/internal/fetch"
	"github.com/jonathan/internship-radar/internal/ingestion"
	"github.com/jonathan/internship-radar/internal/notify"
	"github.com/jonathan/internship-radar/internal/pipeline"
	"github.com/jonathan/internship-radar/internal/scrapers"
)

// loadConfig reads the environment and, with --config, overlays the file on it
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if configPath != "" {
		fileCfg, err := config.LoadFile(configPath)
		if err != nil {
			return nil, err
		}
		merged := fileCfg.MergeWithDefaults(*cfg)
		cfg = &merged
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// services holds everything built from one config
type services struct {
	db        *db.DB
	sync      *ingestion.Service
	refresher *pipeline.Refresher
	digest    *pipeline.Digest
	signer    *notify.TokenSigner
	closers   []func()
}

func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func buildServices(ctx context.Context, cfg *config.Config) (*services, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	svc := &services{db: database, closers: []func(){database.Close}}

	cache := buildCache(ctx, cfg, svc)
	notifier := buildNotifier(cfg)

	signer, err := cfg.Signer()
	if err != nil {
		log.Printf("[radar] Alerts and unsubscribe links disabled: %v", err)
		signer = nil
	}
	svc.signer = signer

	fetcher := fetch.NewFetcher(cfg.UseBrowser)
	ingest := &ingestion.Service{
		Scrapers: scrapers.NewOrchestrator(),
		Store:    database,
		Notifier: notifier,
		Signer:   signer,
		Alerts:   ingestion.AlertOptions{BaseURL: cfg.AppURL},
	}
	if cfg.DateEnrich {
		ingest.DateEnricher = enrich.NewDateEnricher(fetcher, cache, cfg.DateOptions)
	}
	if cfg.DescriptionEnrich {
		ingest.DescEnricher = enrich.NewDescriptionEnricher(fetcher, cache, cfg.DescriptionOptions)
	}
	svc.sync = ingest

	svc.refresher = pipeline.NewRefresher(database)
	svc.digest = pipeline.NewDigest(database, notifier)
	return svc, nil
}

// buildCache prefers Redis when configured and falls back to memory
func buildCache(ctx context.Context, cfg *config.Config, svc *services) enrich.Cache {
	if cfg.RedisURL == "" {
		return enrich.NewMemoryCache()
	}
	ttl := max(cfg.DateOptions.CacheTTL, cfg.DescriptionOptions.CacheTTL)
	rc, err := enrich.NewRedisCache(ctx, cfg.RedisURL, ttl)
	if err != nil {
		log.Printf("[radar] Redis unavailable, using in-memory cache: %v", err)
		return enrich.NewMemoryCache()
	}
	svc.closers = append(svc.closers, func() { _ = rc.Close() })
	return rc
}

// buildNotifier sends through Telegram when a bot token is set and logs
// everything Telegram cannot deliver
func buildNotifier(cfg *config.Config) notify.Notifier {
	if cfg.TelegramToken == "" {
		return notify.LogNotifier{}
	}
	tg, err := notify.NewTelegramNotifier(cfg.TelegramToken)
	if err != nil {
		log.Printf("[radar] Telegram disabled: %v", err)
		return notify.LogNotifier{}
	}
	return notify.Fallback{Primary: tg, Secondary: notify.LogNotifier{}}
}
