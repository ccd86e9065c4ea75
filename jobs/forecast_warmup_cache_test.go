package jobs

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-commerce/internal/cashflow"
	"github.com/odyssey-erp/odyssey-commerce/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-commerce/internal/store/memory"
)

func TestWarmedReportsServeLaterRequestsThatDay(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := memory.NewStore()
	txs := store.Transactions()
	warmedAt := time.Date(2024, 5, 11, 9, 0, 0, 0, time.UTC)
	require.NoError(t, txs.Insert(ctx, cashflow.Transaction{
		ID: "t-1", Type: cashflow.TypeInflow, Category: "product_sales", Amount: 100, Date: warmedAt.AddDate(0, 0, -1),
	}))

	now := warmedAt
	svc := cashflow.NewService(txs, cache.NewVersioned(client, "test:warmup", 35*time.Minute), discard)
	svc.WithNow(func() time.Time { return now })

	job := NewForecastWarmupJob(svc, discard, nil)
	require.NoError(t, job.Handle(ctx, asynq.NewTask(TaskForecastWarmup, nil)))

	// Written behind the service, so only a cache miss can observe it.
	require.NoError(t, txs.Insert(ctx, cashflow.Transaction{
		ID: "t-2", Type: cashflow.TypeInflow, Category: "grants", Amount: 1000, Date: warmedAt.Add(-time.Hour),
	}))

	now = warmedAt.Add(5 * time.Minute)
	w, err := svc.Window(0, nil, nil)
	require.NoError(t, err)
	dash, err := svc.Dashboard(ctx, w)
	require.NoError(t, err)
	require.Equal(t, 100.0, dash.TotalInflows)

	history, err := svc.History(ctx, w)
	require.NoError(t, err)
	var inflows float64
	for _, day := range history {
		inflows += day.Inflows
	}
	require.Equal(t, 100.0, inflows)

	for _, days := range []int{30, 90} {
		f, err := svc.Forecast(ctx, days)
		require.NoError(t, err)
		require.Equal(t, 100.0, f.Summary.StartingBalance, "forecast %d", days)
	}

	now = warmedAt.Add(24 * time.Hour)
	w, err = svc.Window(0, nil, nil)
	require.NoError(t, err)
	dash, err = svc.Dashboard(ctx, w)
	require.NoError(t, err)
	require.Equal(t, 1100.0, dash.TotalInflows)
}
