package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	TaskTypeMuteSweep       = "mutes:sweep"
	TaskTypeReportRedeliver = "reports:redeliver"
)

const (
	QueueDefault = "default"
	QueueLow     = "low"
)

// ReportRedeliverPayload bounds how many stranded reports one run retries.
type ReportRedeliverPayload struct {
	Limit int `json:"limit"`
}

// NewMuteSweepTask builds the task that clears expired mute index rows.
func NewMuteSweepTask() *asynq.Task {
	return asynq.NewTask(TaskTypeMuteSweep, nil, asynq.Queue(QueueLow))
}

// NewReportRedeliverTask builds the task that retries undelivered report cards.
func NewReportRedeliverTask(limit int) (*asynq.Task, error) {
	payload, err := json.Marshal(ReportRedeliverPayload{Limit: limit})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeReportRedeliver, payload, asynq.Queue(QueueDefault)), nil
}
