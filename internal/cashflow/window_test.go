package cashflow

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-commerce/internal/shared"
)

func TestResolveWindow(t *testing.T) {
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

	w, err := ResolveWindow(now, 0, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultPeriodDays, w.PeriodDays)
	assert.True(t, w.End.Equal(now))
	assert.True(t, w.Start.Equal(now.AddDate(0, 0, -30)))
	assert.True(t, w.Rolling)

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 10, 6, 0, 0, 0, time.UTC)
	w, err = ResolveWindow(now, 7, &start, &end)
	require.NoError(t, err)
	assert.True(t, w.Start.Equal(start))
	assert.True(t, w.End.Equal(end))
	assert.Equal(t, 10, w.PeriodDays)
	assert.False(t, w.Rolling)

	w, err = ResolveWindow(now, 7, nil, &end)
	require.NoError(t, err)
	assert.True(t, w.Start.Equal(end.AddDate(0, 0, -7)))
	assert.Equal(t, 7, w.PeriodDays)

	w, err = ResolveWindow(now, 0, &start, nil)
	require.NoError(t, err)
	assert.True(t, w.End.Equal(now))

	_, err = ResolveWindow(now, 0, &end, &start)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	_, err = ResolveWindow(now, -3, nil, nil)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestFillDaysCoversEveryCalendarDay(t *testing.T) {
	w := Window{
		Start:      time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		End:        time.Date(2024, 3, 3, 9, 0, 0, 0, time.UTC),
		PeriodDays: 2,
	}
	history := fillDays(w, []DailyTotal{
		{Day: "2024-03-02", Type: TypeInflow, Amount: 100},
		{Day: "2024-03-02", Type: TypeOutflow, Amount: 30},
		{Day: "2024-02-27", Type: TypeInflow, Amount: 999},
	})

	require.Len(t, history, 3)
	assert.Equal(t, DailyFlow{Date: "2024-03-01"}, history[0])
	assert.Equal(t, DailyFlow{Date: "2024-03-02", Inflows: 100, Outflows: 30, NetFlow: 70}, history[1])
	assert.Equal(t, DailyFlow{Date: "2024-03-03"}, history[2])
}

func TestSummarize(t *testing.T) {
	w := Window{PeriodDays: 30}

	d := summarize(w, Totals{Inflows: 300, Outflows: 150}, Totals{Inflows: 1000, Outflows: 400})
	assert.Equal(t, 300.0, d.TotalInflows)
	assert.Equal(t, 150.0, d.TotalOutflows)
	assert.Equal(t, 150.0, d.NetCashFlow)
	assert.Equal(t, 600.0, d.CurrentBalance)
	assert.Equal(t, 5.0, d.CashBurnRate)
	require.NotNil(t, d.Runway)
	assert.EqualValues(t, 120, *d.Runway)

	d = summarize(w, Totals{Inflows: 50}, Totals{Inflows: 50})
	assert.Zero(t, d.CashBurnRate)
	assert.Nil(t, d.Runway)

	d = summarize(Window{PeriodDays: 10}, Totals{Outflows: 100}, Totals{Inflows: 20, Outflows: 100})
	require.NotNil(t, d.Runway)
	assert.EqualValues(t, -8, *d.Runway)
}

func TestReshapeCategories(t *testing.T) {
	w := Window{PeriodDays: 30}
	b := reshapeCategories(w, []CategoryTotal{
		{Category: CategoryProductSales, Type: TypeInflow, Amount: 500, Count: 2},
		{Category: CategoryCOGS, Type: TypeOutflow, Amount: 200, Count: 2},
		{Category: CategoryShipping, Type: TypeOutflow, Amount: 20, Count: 2},
		{Category: "refunds", Type: TypeOutflow, Amount: 0, Count: 1},
	})

	assert.Equal(t, []CategoryAmount{{Category: CategoryProductSales, Amount: 500, Count: 2}}, b.Inflows)
	assert.Len(t, b.Outflows, 2)
	assert.Equal(t, 500.0, b.TotalInflows)
	assert.Equal(t, 220.0, b.TotalOutflows)
	assert.Equal(t, 30, b.Period.Days)

	empty := reshapeCategories(w, nil)
	assert.NotNil(t, empty.Inflows)
	assert.NotNil(t, empty.Outflows)
}

func TestWindowDays(t *testing.T) {
	w := Window{Start: time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC), End: time.Date(2024, 2, 1, 1, 0, 0, 0, time.UTC)}
	assert.Equal(t, []string{"2024-01-31", "2024-02-01"}, w.Days())
}

func TestWindowKeyRollingIsStableWithinDay(t *testing.T) {
	morning := time.Date(2024, 5, 11, 0, 10, 0, 0, time.UTC)
	a, err := ResolveWindow(morning, 30, nil, nil)
	require.NoError(t, err)
	b, err := ResolveWindow(morning.Add(23*time.Hour), 30, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"dashboard", "period=30", "2024-05-11"}, windowKey("dashboard", a))
	assert.Equal(t, windowKey("dashboard", a), windowKey("dashboard", b))

	c, err := ResolveWindow(morning.Add(24*time.Hour), 30, nil, nil)
	require.NoError(t, err)
	assert.NotEqual(t, windowKey("dashboard", a), windowKey("dashboard", c))

	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	later := end.Add(time.Second)
	x, err := ResolveWindow(morning, 0, &start, &end)
	require.NoError(t, err)
	y, err := ResolveWindow(morning, 0, &start, &later)
	require.NoError(t, err)
	assert.NotEqual(t, windowKey("history", x), windowKey("history", y))
}

func TestRunwaySaturates(t *testing.T) {
	d := summarize(Window{PeriodDays: 1}, Totals{Outflows: 1e-300}, Totals{Inflows: 1e300})
	require.NotNil(t, d.Runway)
	assert.Equal(t, int64(math.MaxInt64), *d.Runway)

	d = summarize(Window{PeriodDays: 1}, Totals{Outflows: 1e-300}, Totals{Outflows: 1e300})
	require.NotNil(t, d.Runway)
	assert.Equal(t, int64(math.MinInt64), *d.Runway)

	assert.EqualValues(t, 7, runwayDays(7.9))
	assert.EqualValues(t, -8, runwayDays(-7.1))
}
