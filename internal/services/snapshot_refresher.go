package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/planbridge/domain"
)

// DocumentSource loads documents live from the host and stores their
// snapshots.
type DocumentSource interface {
	Refresh(ctx context.Context, name string) (*domain.Document, error)
	DocumentNames(ctx context.Context) ([]string, error)
}

// SnapshotCleaner drops stale snapshots.
type SnapshotCleaner interface {
	Cleanup(olderThan time.Time) (int, error)
}

// RefresherConfig controls how often snapshots are refreshed.
type RefresherConfig struct {
	Interval time.Duration
	// Documents to refresh; empty means every open document.
	Documents []string
	// Retention is the age after which snapshots are removed. Zero keeps them.
	Retention time.Duration
}

// SnapshotRefresher periodically reloads documents from the host so cached
// snapshots stay current.
type SnapshotRefresher struct {
	source  DocumentSource
	cleaner SnapshotCleaner
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     RefresherConfig
}

func NewSnapshotRefresher(
	source DocumentSource,
	cleaner SnapshotCleaner,
	logger *zap.Logger,
	cfg RefresherConfig,
) *SnapshotRefresher {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sr := &SnapshotRefresher{
		source:  source,
		cleaner: cleaner,
		logger:  logger,
		cfg:     cfg,
	}
	sr.cron = cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger})),
	)

	schedule := fmt.Sprintf("@every %ds", max(int(cfg.Interval.Seconds()), 1))
	_, _ = sr.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := sr.RunOnce(ctx); err != nil {
			sr.logger.Error("snapshot refresh failed", zap.Error(err))
		}
	})

	return sr
}

// Start launches the cron scheduler.
func (sr *SnapshotRefresher) Start() {
	if sr == nil || sr.cron == nil {
		return
	}
	sr.cron.Start()
	sr.logger.Info("snapshot refresher started", zap.Duration("interval", sr.cfg.Interval))
}

// Stop waits for a running refresh to finish or ctx to expire.
func (sr *SnapshotRefresher) Stop(ctx context.Context) error {
	if sr == nil || sr.cron == nil {
		return nil
	}
	stopCtx := sr.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	sr.logger.Info("snapshot refresher stopped")
	return nil
}

// RunOnce refreshes every configured document, continuing past failures,
// then drops snapshots past the retention period.
func (sr *SnapshotRefresher) RunOnce(ctx context.Context) error {
	if sr == nil || sr.source == nil {
		return nil
	}

	names := sr.cfg.Documents
	if len(names) == 0 {
		var err error
		if names, err = sr.source.DocumentNames(ctx); err != nil {
			return fmt.Errorf("list open documents: %w", err)
		}
	}

	var errs []error
	refreshed := 0
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		doc, err := sr.source.Refresh(ctx, name)
		if err != nil {
			sr.logger.Warn("document refresh failed", zap.String("document", name), zap.Error(err))
			errs = append(errs, fmt.Errorf("refresh %q: %w", name, err))
			continue
		}
		refreshed++
		sr.logger.Debug("document refreshed",
			zap.String("document", name),
			zap.Int("bytes", len(doc.Raw())))
	}

	if sr.cleaner != nil && sr.cfg.Retention > 0 {
		removed, err := sr.cleaner.Cleanup(time.Now().Add(-sr.cfg.Retention))
		if err != nil {
			errs = append(errs, fmt.Errorf("cleanup snapshots: %w", err))
		} else if removed > 0 {
			sr.logger.Info("stale snapshots removed", zap.Int("count", removed))
		}
	}

	sr.logger.Info("snapshot refresh finished",
		zap.Int("documents", len(names)),
		zap.Int("refreshed", refreshed))
	return errors.Join(errs...)
}

// cronLogger routes scheduler messages through zap.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
