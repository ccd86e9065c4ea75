package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-commerce/internal/cashflow"
	"github.com/odyssey-erp/odyssey-commerce/jobs"
)

type fakeBackend struct {
	from, to *time.Time
	days     int
	report   cashflow.SyncReport
	closed   bool
}

func (f *fakeBackend) Sync(_ context.Context, from, to *time.Time) (cashflow.SyncReport, error) {
	f.from, f.to = from, to
	return f.report, nil
}

func (f *fakeBackend) Forecast(_ context.Context, days int) (cashflow.Forecast, error) {
	f.days = days
	return cashflow.Project(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), 100, 10, 4, days), nil
}

func (f *fakeBackend) Close() { f.closed = true }

type fakeQueue struct {
	triggered []string
}

func (f *fakeQueue) Trigger(_ context.Context, name string) (*asynq.TaskInfo, error) {
	f.triggered = append(f.triggered, name)
	return &asynq.TaskInfo{ID: "t-1", Queue: jobs.QueueDefault, Type: name}, nil
}

func (f *fakeQueue) InspectQueue(context.Context) (QueueStats, error) {
	return QueueStats{Queue: jobs.QueueDefault, Pending: 2}, nil
}

func (f *fakeQueue) Close() error { return nil }

func run(t *testing.T, backend *fakeBackend, queue *fakeQueue, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(Factory{
		Backend: func(context.Context) (Backend, error) { return backend, nil },
		Queue:   func() (Queue, error) { return queue, nil },
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand(Factory{})
	for _, path := range [][]string{{"sync"}, {"forecast"}, {"jobs", "trigger"}, {"jobs", "inspect"}} {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, &fakeBackend{}, &fakeQueue{}, "--format", "xml", "forecast")
	require.ErrorContains(t, err, "invalid format")
}

func TestSyncParsesRange(t *testing.T) {
	backend := &fakeBackend{report: cashflow.SyncReport{Count: 2, Skipped: 1}}
	out, err := run(t, backend, &fakeQueue{}, "sync", "--start", "2024-03-01", "--end", "2024-03-31")
	require.NoError(t, err)
	assert.Contains(t, out, "synced 2, skipped 1, failed 0")
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *backend.from)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond), *backend.to)
	assert.True(t, backend.closed)
}

func TestSyncRejectsInvertedRange(t *testing.T) {
	_, err := run(t, &fakeBackend{}, &fakeQueue{}, "sync", "--start", "2024-03-02", "--end", "2024-03-01")
	require.Error(t, err)
}

func TestSyncReportsFailures(t *testing.T) {
	backend := &fakeBackend{report: cashflow.SyncReport{Failed: 1}}
	_, err := run(t, backend, &fakeQueue{}, "sync")
	require.ErrorContains(t, err, "1 orders failed")
}

func TestSyncEnqueue(t *testing.T) {
	queue := &fakeQueue{}
	out, err := run(t, &fakeBackend{}, queue, "sync", "--enqueue")
	require.NoError(t, err)
	assert.Equal(t, []string{jobs.TaskCashflowSync}, queue.triggered)
	assert.Contains(t, out, "enqueued cashflow:sync")
}

func TestForecastJSON(t *testing.T) {
	backend := &fakeBackend{}
	out, err := run(t, backend, &fakeQueue{}, "--format", "json", "forecast", "--days", "3")
	require.NoError(t, err)
	assert.Equal(t, 3, backend.days)

	var got cashflow.Forecast
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Days, 3)
	assert.Equal(t, "2024-03-11", got.Days[0].Date)
	assert.InDelta(t, 106.0, got.Days[0].ProjectedBalance, 1e-9)
	assert.InDelta(t, 118.0, got.Summary.EndingBalance, 1e-9)
}

func TestJobsTriggerRejectsUnknown(t *testing.T) {
	queue := &fakeQueue{}
	_, err := run(t, &fakeBackend{}, queue, "jobs", "trigger", "mail:send")
	require.Error(t, err)
	assert.Empty(t, queue.triggered)
}

func TestJobsInspect(t *testing.T) {
	out, err := run(t, &fakeBackend{}, &fakeQueue{}, "jobs", "inspect")
	require.NoError(t, err)
	assert.Contains(t, out, "pending=2")
}

func TestBackendErrorPropagates(t *testing.T) {
	boom := errors.New("no database")
	cmd := NewRootCommand(Factory{Backend: func(context.Context) (Backend, error) { return nil, boom }})
	cmd.SetArgs([]string{"forecast"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	require.ErrorIs(t, cmd.ExecuteContext(context.Background()), boom)
}
