package core

// scheduler.go runs history retention in the background. The job runs once
// on start, then every CheckInterval until the context is cancelled. A
// failed purge is logged and retried on the next tick.

import (
	"context"
	"log/slog"
	"time"
)

// HistoryConfig controls import history retention.
type HistoryConfig struct {
	RetentionDays int           // runs older than this are purged (default: 180)
	CheckInterval time.Duration // how often to purge (default: 24h)
}

func (c HistoryConfig) withDefaults() HistoryConfig {
	if c.RetentionDays <= 0 {
		c.RetentionDays = 180
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = 24 * time.Hour
	}
	return c
}

// StartHistoryScheduler purges old import runs until ctx is cancelled.
func (s *Service) StartHistoryScheduler(ctx context.Context, cfg HistoryConfig) {
	cfg = cfg.withDefaults()
	slog.Info("history scheduler started",
		"retention_days", cfg.RetentionDays,
		"interval", cfg.CheckInterval.String(),
	)

	s.purgeHistory(ctx, cfg, time.Now())

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("history scheduler stopped")
			return
		case now := <-ticker.C:
			s.purgeHistory(ctx, cfg, now)
		}
	}
}

// purgeHistory runs one retention cycle relative to now.
func (s *Service) purgeHistory(ctx context.Context, cfg HistoryConfig, now time.Time) int64 {
	start := time.Now()
	cutoff := now.AddDate(0, 0, -cfg.RetentionDays)

	purged, err := s.store.PurgeImportRuns(ctx, cutoff)
	if err != nil {
		slog.Error("history purge failed", "error", err)
		return 0
	}
	slog.Info("purged import history",
		"runs_purged", purged,
		"cutoff", cutoff.Format(time.DateOnly),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return purged
}
