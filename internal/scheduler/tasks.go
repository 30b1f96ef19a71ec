// Package scheduler runs background work for the engine over asynq:
// the periodic external-source refresh.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskSourceRefresh = "leads.source.refresh"

// SourceRefreshPayload carries the reason a refresh was enqueued.
type SourceRefreshPayload struct {
	Trigger string `json:"trigger"` // "periodic" or "startup"
}

func NewSourceRefreshTask(payload SourceRefreshPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSourceRefresh, data), nil
}

func ParseSourceRefreshPayload(task *asynq.Task) (SourceRefreshPayload, error) {
	var payload SourceRefreshPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return SourceRefreshPayload{}, err
	}
	return payload, nil
}
