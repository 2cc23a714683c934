package cleanup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Job retires rows nobody will read again: rejected match requests old
// enough that the pair may meet in suggestions once more, and reports
// moderation has already handled.
type Job struct {
	matches         rejectedCleaner
	reports         reportCleaner
	matchRetention  time.Duration
	reportRetention time.Duration
	now             func() time.Time
	logger          *zap.Logger
}

type rejectedCleaner interface {
	DeleteRejectedOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type reportCleaner interface {
	DeleteHandledOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

const (
	defaultMatchRetention  = 90 * 24 * time.Hour
	defaultReportRetention = 180 * 24 * time.Hour
)

func New(matches rejectedCleaner, reports reportCleaner, logger *zap.Logger) *Job {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		matches:         matches,
		reports:         reports,
		matchRetention:  defaultMatchRetention,
		reportRetention: defaultReportRetention,
		now:             time.Now,
		logger:          logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	if j.matches != nil {
		cutoff := j.now().Add(-j.matchRetention)
		rows, err := j.matches.DeleteRejectedOlderThan(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("cleanup rejected matches: %w", err)
		}
		if rows > 0 {
			j.logger.Info("cleanup rejected matches completed", zap.Int64("deleted", rows))
		}
	}

	if j.reports != nil {
		cutoff := j.now().Add(-j.reportRetention)
		rows, err := j.reports.DeleteHandledOlderThan(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("cleanup handled reports: %w", err)
		}
		if rows > 0 {
			j.logger.Info("cleanup handled reports completed", zap.Int64("deleted", rows))
		}
	}

	return nil
}

// Start runs the job on a fixed interval until ctx is cancelled. The
// first run happens after one full interval, not immediately.
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("cleanup run failed", zap.Error(err))
			}
		}
	}
}
