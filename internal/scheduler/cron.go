package scheduler

import (
	"context"
	"fmt"

	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"

	"github.com/hibiken/asynq"
)

const defaultDecayCronSpec = "@daily"

// Cron registers the periodic decay task on an asynq scheduler.
type Cron struct {
	scheduler *asynq.Scheduler
	entryID   string
	log       *logger.Logger
}

func NewCron(cfg config.SchedulerConfig, log *logger.Logger) (*Cron, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	spec := cfg.GetDecayCronSpec()
	if spec == "" {
		spec = defaultDecayCronSpec
	}

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				log.Warn("decay task enqueue skipped", "error", err)
				return
			}
			log.Info("decay task enqueued", "task_id", info.ID, "queue", info.Queue)
		},
	})

	task, err := NewTemperatureDecayTask(TemperatureDecayPayload{Trigger: TriggerCron})
	if err != nil {
		return nil, err
	}
	entryID, err := scheduler.Register(spec, task, asynq.Queue(queueName(cfg)), asynq.Unique(decayUniqueTTL))
	if err != nil {
		return nil, fmt.Errorf("register decay cron %q: %w", spec, err)
	}

	log.Info("decay cron registered", "spec", spec, "entry_id", entryID)
	return &Cron{scheduler: scheduler, entryID: entryID, log: log}, nil
}

// Run blocks until ctx is cancelled.
func (c *Cron) Run(ctx context.Context) {
	if c == nil || c.scheduler == nil {
		return
	}

	if err := c.scheduler.Start(); err != nil {
		c.log.Error("decay cron failed to start", "error", err)
		return
	}
	<-ctx.Done()
	c.scheduler.Shutdown()
}
