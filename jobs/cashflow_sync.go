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

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// Syncer is implemented by cashflow.Engine.
type Syncer interface {
	Sync(ctx context.Context, from, to *time.Time) (cashflow.SyncReport, error)
}

// CashflowSyncJob runs the idempotent backfill of cash-flow entries.
type CashflowSyncJob struct {
	Syncer  Syncer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewCashflowSyncJob wires dependencies for the sync handler.
func NewCashflowSyncJob(syncer Syncer, logger *slog.Logger, metrics *jobmetrics.Metrics) *CashflowSyncJob {
	return &CashflowSyncJob{Syncer: syncer, Logger: logger, Metrics: metrics}
}

// Handle processes TaskCashflowSync tasks.
func (j *CashflowSyncJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Syncer == nil {
		return errors.New("cashflow sync: handler not configured")
	}
	var payload CashflowSyncPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.StartDate != nil && payload.EndDate != nil && payload.EndDate.Before(*payload.StartDate) {
		return asynq.SkipRetry
	}

	metrics := j.Metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	tracker := metrics.Track(TaskCashflowSync)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("job", TaskCashflowSync))

	start := time.Now()
	report, err := j.Syncer.Sync(ctx, payload.StartDate, payload.EndDate)
	metrics.AddSynced(report.Count, report.Skipped, report.Failed)
	if err != nil {
		logger.Error("cashflow sync aborted", slog.Any("error", err))
		return err
	}
	logger.Info("cashflow sync completed",
		slog.Int("synced", report.Count),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed),
		slog.Duration("duration", time.Since(start)))
	if report.Failed > 0 {
		return errors.New("cashflow sync: some orders failed to derive")
	}
	return nil
}
