package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/service"
)

// Sweeper runs one pass of the stale-complaint sweep.
type Sweeper interface {
	Run(ctx context.Context, dryRun bool) (*service.SweepReport, error)
}

// RunSweepLoop runs the sweep immediately and then on every tick until ctx
// is cancelled. A failed pass is logged and retried on the next tick.
func RunSweepLoop(ctx context.Context, sweeper Sweeper, interval time.Duration, dryRun bool, logger *zap.Logger, onReport func(*service.SweepReport)) {
	if logger == nil {
		logger = zap.NewNop()
	}
	runOnce := func() {
		report, err := sweeper.Run(ctx, dryRun)
		if err != nil {
			logger.Error("sweep failed", zap.Error(err))
			return
		}
		if onReport != nil {
			onReport(report)
		}
	}

	runOnce()
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
