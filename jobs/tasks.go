package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCashflowSync backfills cash-flow entries for completed orders.
	TaskCashflowSync = "cashflow:sync"
	// TaskForecastWarmup precomputes the default cash-flow reports.
	TaskForecastWarmup = "cashflow:forecast_warmup"
)

// CashflowSyncPayload bounds the order dates considered by a sync. Both ends
// are optional.
type CashflowSyncPayload struct {
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
}

// ForecastWarmupPayload lists forecast horizons to precompute.
type ForecastWarmupPayload struct {
	Days []int `json:"days,omitempty"`
}

// NewCashflowSyncTask constructs a sync task.
func NewCashflowSyncTask(payload CashflowSyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCashflowSync, data, asynq.MaxRetry(3), asynq.Timeout(10*time.Minute)), nil
}

// NewForecastWarmupTask constructs a warmup task.
func NewForecastWarmupTask(payload ForecastWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskForecastWarmup, data, asynq.MaxRetry(1), asynq.Timeout(2*time.Minute)), nil
}
