package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskTemperatureDecay = "leads.temperature_decay"

// Trigger values recorded on decay tasks.
const (
	TriggerCron   = "cron"
	TriggerManual = "manual"
)

type TemperatureDecayPayload struct {
	Trigger string `json:"trigger"`
}

func NewTemperatureDecayTask(payload TemperatureDecayPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTemperatureDecay, data), nil
}

func ParseTemperatureDecayPayload(task *asynq.Task) (TemperatureDecayPayload, error) {
	var payload TemperatureDecayPayload
	if len(task.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return TemperatureDecayPayload{}, err
	}
	return payload, nil
}
