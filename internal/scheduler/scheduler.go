// Package scheduler drives the tracking engine's periodic jobs from a
// single goroutine. Jobs run to completion inside the loop body, so a job
// never overlaps itself or another job; ticks that fire while a job is
// running are simply dropped.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Jobs is what the scheduler knows about the tracking engine.
type Jobs interface {
	UpdateTrackedPrices(ctx context.Context) error
	CheckAlerts(ctx context.Context) error
	SendWeeklySummaries(ctx context.Context) error
	CleanupOldObservations(ctx context.Context) (int64, error)
}

type Config struct {
	AlertInterval   time.Duration
	ScrapeInterval  time.Duration
	SummaryInterval time.Duration
	CleanupInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		AlertInterval:   time.Hour,
		ScrapeInterval:  6 * time.Hour,
		SummaryInterval: 7 * 24 * time.Hour,
		CleanupInterval: 7 * 24 * time.Hour,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.AlertInterval <= 0 {
		c.AlertInterval = d.AlertInterval
	}
	if c.ScrapeInterval <= 0 {
		c.ScrapeInterval = d.ScrapeInterval
	}
	if c.SummaryInterval <= 0 {
		c.SummaryInterval = d.SummaryInterval
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = d.CleanupInterval
	}
	return c
}

// Run blocks until ctx is cancelled. An initial scrape pass runs before the
// first tick so a fresh deployment has data without waiting out the
// interval.
func Run(ctx context.Context, log *zap.Logger, jobs Jobs, cfg Config) {
	cfg = cfg.withDefaults()
	log = log.Named("scheduler")

	log.Info("started",
		zap.Duration("alert_interval", cfg.AlertInterval),
		zap.Duration("scrape_interval", cfg.ScrapeInterval),
		zap.Duration("summary_interval", cfg.SummaryInterval),
		zap.Duration("cleanup_interval", cfg.CleanupInterval))

	runJob(ctx, log, "scrape", jobs.UpdateTrackedPrices)

	alerts := time.NewTicker(cfg.AlertInterval)
	defer alerts.Stop()
	scrapes := time.NewTicker(cfg.ScrapeInterval)
	defer scrapes.Stop()
	summaries := time.NewTicker(cfg.SummaryInterval)
	defer summaries.Stop()
	cleanups := time.NewTicker(cfg.CleanupInterval)
	defer cleanups.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("stopping, context cancelled")
			return
		case <-alerts.C:
			runJob(ctx, log, "check_alerts", jobs.CheckAlerts)
		case <-scrapes.C:
			runJob(ctx, log, "scrape", jobs.UpdateTrackedPrices)
		case <-summaries.C:
			runJob(ctx, log, "weekly_summaries", jobs.SendWeeklySummaries)
		case <-cleanups.C:
			runJob(ctx, log, "cleanup", func(ctx context.Context) error {
				_, err := jobs.CleanupOldObservations(ctx)
				return err
			})
		}
	}
}

func runJob(ctx context.Context, log *zap.Logger, name string, fn func(context.Context) error) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := fn(ctx); err != nil {
		// Store failures land here; the next tick retries.
		log.Error("job failed", zap.String("job", name), zap.Duration("took", time.Since(start)), zap.Error(err))
		return
	}
	log.Info("job finished", zap.String("job", name), zap.Duration("took", time.Since(start)))
}
