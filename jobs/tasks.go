package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLotSweep removes drained, expired, unreferenced lots.
	TaskLotSweep = "stock:lot_sweep"
	// TaskDashboardWarmup rebuilds the dashboard cache ahead of reads.
	TaskDashboardWarmup = "dashboard:warmup"
)

// LotSweepPayload carries scheduling metadata for the sweep.
type LotSweepPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewLotSweepTask constructs an Asynq task for the lot sweep.
func NewLotSweepTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(LotSweepPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLotSweep, body, asynq.Queue(QueueDefault)), nil
}

// NewDashboardWarmupTask constructs an Asynq task for the cache warmup.
func NewDashboardWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskDashboardWarmup, nil, asynq.Queue(QueueDefault))
}
