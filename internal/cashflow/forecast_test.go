package cashflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectAppliesNetFlowDaily(t *testing.T) {
	from := time.Date(2024, 4, 30, 17, 45, 0, 0, time.UTC)
	f := Project(from, 100, 10, 4, 2)

	require.Len(t, f.Days, 2)
	assert.Equal(t, ForecastDay{Date: "2024-05-01", ProjectedBalance: 106, ProjectedInflow: 10, ProjectedOutflow: 4, NetProjectedFlow: 6}, f.Days[0])
	assert.Equal(t, "2024-05-02", f.Days[1].Date)
	assert.Equal(t, 112.0, f.Days[1].ProjectedBalance)

	assert.Equal(t, 100.0, f.Summary.StartingBalance)
	assert.Equal(t, 112.0, f.Summary.EndingBalance)
	assert.Equal(t, 20.0, f.Summary.TotalProjectedInflow)
	assert.Equal(t, 8.0, f.Summary.TotalProjectedOutflow)
	assert.Equal(t, 2, f.Summary.ForecastDays)
	assert.Equal(t, ForecastHistoryDays, f.Summary.HistoryDays)
}

func TestProjectRoundsToCents(t *testing.T) {
	f := Project(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 0, 1.0/3, 0, 3)
	assert.Equal(t, 0.33, f.Days[0].ProjectedBalance)
	assert.Equal(t, 1.0, f.Days[2].ProjectedBalance)
	assert.Equal(t, 0.33, f.Summary.AvgDailyInflow)
}

func TestProjectShrinkingBalanceGoesNegative(t *testing.T) {
	f := Project(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 5, 0, 10, 1)
	assert.Equal(t, -5.0, f.Summary.EndingBalance)
}
