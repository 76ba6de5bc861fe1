package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/internship-radar/internal/config"
	"github.com/jonathan/internship-radar/internal/scheduler"
	"github.com/jonathan/internship-radar/internal/server"
	"github.com/jonathan/internship-radar/internal/server/ratelimit"
)

var (
	servePort        int
	serveNoScheduler bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server and the cron scheduler",
	Long:  `Start an HTTP server exposing the cron, sync, matches and unsubscribe endpoints. Unless --no-scheduler is set, scrape, refresh and digest jobs also run in-process on their cron specs.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (defaults to PORT or 8080)")
	serveCmd.Flags().BoolVar(&serveNoScheduler, "no-scheduler", false, "Only serve HTTP; rely on external cron calls")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Port = servePort
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := buildServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	if !serveNoScheduler {
		sched, err := newScheduler(cfg, svc)
		if err != nil {
			return err
		}
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer sched.Stop()
	}

	srv := server.New(server.Config{
		Port:       cfg.Port,
		CronSecret: cfg.CronSecret,
		SyncSecret: cfg.SyncSecret,
		APIKey:     cfg.APIKey,
		RateLimit:  ratelimit.LoadConfig(),
	}, server.Deps{
		Store:     svc.db,
		Syncer:    svc.sync,
		Refresher: svc.refresher,
		Digest:    svc.digest,
		Signer:    svc.signer,
	})
	return srv.Start(ctx)
}

// newScheduler registers the jobs whose cron spec is set
func newScheduler(cfg *config.Config, svc *services) (*scheduler.Scheduler, error) {
	sched := scheduler.New()
	jobs := []scheduler.Job{
		scheduler.SyncJob(cfg.ScrapeCron, svc.sync, time.Now),
		scheduler.RefreshJob(cfg.RefreshCron, svc.refresher),
		scheduler.DigestJob(cfg.DigestCron, svc.digest),
	}
	for _, job := range jobs {
		if err := sched.Register(job); err != nil {
			return nil, err
		}
	}
	return sched, nil
}
