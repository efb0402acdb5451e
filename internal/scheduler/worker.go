package scheduler

import (
	"context"
	"fmt"
	"time"

	"leadflow_backend/internal/automation"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// DecayRunner executes one decay batch.
type DecayRunner interface {
	RunForAllTenants(ctx context.Context) ([]automation.TenantOutcome, error)
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	runner DecayRunner
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, runner DecayRunner, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := newWorker(runner, log)
	w.server = server
	return w, nil
}

func newWorker(runner DecayRunner, log *logger.Logger) *Worker {
	mux := asynq.NewServeMux()
	w := &Worker{mux: mux, runner: runner, log: log}
	mux.HandleFunc(TaskTemperatureDecay, w.handleTemperatureDecay)
	return w
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleTemperatureDecay only fails the task when the run itself could not
// start; per-lead errors are reported in the summary.
func (w *Worker) handleTemperatureDecay(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseTemperatureDecayPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	started := time.Now()
	outcomes, err := w.runner.RunForAllTenants(ctx)
	if err != nil {
		return err
	}
	logSummary(w.log, payload.Trigger, outcomes, time.Since(started))
	return nil
}

func logSummary(log *logger.Logger, trigger string, outcomes []automation.TenantOutcome, took time.Duration) {
	var analyzed, transitioned, notified, errs int
	for _, o := range outcomes {
		analyzed += o.Analyzed
		transitioned += o.Transitioned
		notified += o.Notified
		errs += len(o.Errors)
		if len(o.Errors) > 0 {
			log.Warn("decay run tenant errors", "tenant_id", o.TenantID.String(), "errors", o.Errors)
		}
	}
	log.Info("decay run completed",
		"trigger", trigger,
		"tenants", len(outcomes),
		"analyzed", analyzed,
		"transitioned", transitioned,
		"notified", notified,
		"errors", errs,
		"duration_ms", took.Milliseconds(),
	)
}
