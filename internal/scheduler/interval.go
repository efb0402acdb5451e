package scheduler

import (
	"context"
	"time"

	"leadflow_backend/platform/logger"
)

const defaultDecayInterval = 24 * time.Hour

// IntervalRunner runs decay in-process on a fixed interval. It is used when no
// Redis is configured, so only one instance of it should run.
type IntervalRunner struct {
	runner   DecayRunner
	log      *logger.Logger
	interval time.Duration
}

func NewIntervalRunner(runner DecayRunner, interval time.Duration, log *logger.Logger) *IntervalRunner {
	if interval <= 0 {
		interval = defaultDecayInterval
	}
	return &IntervalRunner{runner: runner, log: log, interval: interval}
}

func (r *IntervalRunner) Run(ctx context.Context) {
	if r == nil || r.runner == nil {
		return
	}

	r.runOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *IntervalRunner) runOnce(ctx context.Context) {
	started := time.Now()
	outcomes, err := r.runner.RunForAllTenants(ctx)
	if err != nil {
		r.log.Warn("interval decay run failed", "error", err)
		return
	}
	logSummary(r.log, TriggerCron, outcomes, time.Since(started))
}
