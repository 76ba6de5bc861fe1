package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the cron jobs without the HTTP server",
	Long:  `Run the scrape, refresh and digest jobs on SCRAPE_CRON, REFRESH_CRON and DIGEST_CRON until interrupted. Jobs with an empty spec are not scheduled.`,
	RunE:  runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.ScrapeCron == "" && cfg.RefreshCron == "" && cfg.DigestCron == "" {
		return fmt.Errorf("no cron specs configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := buildServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	sched, err := newScheduler(cfg, svc)
	if err != nil {
		return err
	}
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	<-ctx.Done()
	log.Println("[scheduler] Shutting down...")
	sched.Stop()
	return nil
}
