package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-commerce/internal/cashflow"
	jobmetrics "github.com/odyssey-erp/odyssey-commerce/internal/jobs"
)

// Reports is the subset of cashflow.Service the warmup touches.
type Reports interface {
	Window(periodDays int, start, end *time.Time) (cashflow.Window, error)
	Dashboard(ctx context.Context, w cashflow.Window) (cashflow.Dashboard, error)
	History(ctx context.Context, w cashflow.Window) ([]cashflow.DailyFlow, error)
	ByCategory(ctx context.Context, w cashflow.Window) (cashflow.CategoryBreakdown, error)
	Forecast(ctx context.Context, days int) (cashflow.Forecast, error)
}

// WarmupForecastDays are the horizons warmed when a payload names none.
var WarmupForecastDays = []int{30, cashflow.DefaultForecastDays}

// ScheduledForecastWarmup is the payload the worker cron enqueues.
func ScheduledForecastWarmup() ForecastWarmupPayload {
	return ForecastWarmupPayload{Days: append([]int(nil), WarmupForecastDays...)}
}

// ForecastWarmupJob fills the report cache for the default window.
type ForecastWarmupJob struct {
	Reports Reports
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewForecastWarmupJob wires dependencies for the warmup handler.
func NewForecastWarmupJob(reports Reports, logger *slog.Logger, metrics *jobmetrics.Metrics) *ForecastWarmupJob {
	return &ForecastWarmupJob{Reports: reports, Logger: logger, Metrics: metrics}
}

// Handle processes TaskForecastWarmup tasks.
func (j *ForecastWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Reports == nil {
		return errors.New("forecast warmup: handler not configured")
	}
	var payload ForecastWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if len(payload.Days) == 0 {
		payload.Days = WarmupForecastDays
	}

	metrics := j.Metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	tracker := metrics.Track(TaskForecastWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	win, err := j.Reports.Window(cashflow.DefaultPeriodDays, nil, nil)
	if err != nil {
		return err
	}
	if _, err := j.Reports.Dashboard(ctx, win); err != nil {
		return err
	}
	if _, err := j.Reports.History(ctx, win); err != nil {
		return err
	}
	if _, err := j.Reports.ByCategory(ctx, win); err != nil {
		return err
	}
	for _, days := range payload.Days {
		if _, err := j.Reports.Forecast(ctx, days); err != nil {
			return err
		}
	}
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("cashflow reports warmed", slog.String("job", TaskForecastWarmup), slog.Any("forecast_days", payload.Days))
	return nil
}
