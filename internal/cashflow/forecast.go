package cashflow

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/odyssey-erp/odyssey-commerce/internal/shared"
)

const (
	// DefaultForecastDays is the projection length when none is requested.
	DefaultForecastDays = 90
	// ForecastHistoryDays is the trailing window the daily averages come from.
	ForecastHistoryDays = 30
	maxForecastDays     = 730
)

// ForecastDay is one projected day.
type ForecastDay struct {
	Date             string  `json:"date"`
	ProjectedBalance float64 `json:"projectedBalance"`
	ProjectedInflow  float64 `json:"projectedInflow"`
	ProjectedOutflow float64 `json:"projectedOutflow"`
	NetProjectedFlow float64 `json:"netProjectedFlow"`
}

// ForecastSummary aggregates a projection.
type ForecastSummary struct {
	StartingBalance       float64 `json:"startingBalance"`
	EndingBalance         float64 `json:"endingBalance"`
	TotalProjectedInflow  float64 `json:"totalProjectedInflow"`
	TotalProjectedOutflow float64 `json:"totalProjectedOutflow"`
	AvgDailyInflow        float64 `json:"avgDailyInflow"`
	AvgDailyOutflow       float64 `json:"avgDailyOutflow"`
	ForecastDays          int     `json:"forecastDays"`
	HistoryDays           int     `json:"historyDays"`
}

// Forecast is a daily balance projection.
type Forecast struct {
	Summary ForecastSummary `json:"summary"`
	Days    []ForecastDay   `json:"forecast"`
}

// Project extrapolates balance forward by days, applying the same net daily
// flow each day starting the day after from.
func Project(from time.Time, balance, avgIn, avgOut float64, days int) Forecast {
	f := Forecast{
		Summary: ForecastSummary{
			StartingBalance:       round2(balance),
			EndingBalance:         round2(balance),
			TotalProjectedInflow:  round2(avgIn * float64(days)),
			TotalProjectedOutflow: round2(avgOut * float64(days)),
			AvgDailyInflow:        round2(avgIn),
			AvgDailyOutflow:       round2(avgOut),
			ForecastDays:          days,
			HistoryDays:           ForecastHistoryDays,
		},
		Days: make([]ForecastDay, 0, days),
	}
	day := truncateDay(from)
	net := avgIn - avgOut
	running := balance
	for i := 1; i <= days; i++ {
		running += net
		f.Days = append(f.Days, ForecastDay{
			Date:             day.AddDate(0, 0, i).Format(dayLayout),
			ProjectedBalance: round2(running),
			ProjectedInflow:  round2(avgIn),
			ProjectedOutflow: round2(avgOut),
			NetProjectedFlow: round2(net),
		})
	}
	if len(f.Days) > 0 {
		f.Summary.EndingBalance = f.Days[len(f.Days)-1].ProjectedBalance
	}
	return f
}

// Forecast averages the trailing history window and projects days forward
// from the all-time balance.
func (s *Service) Forecast(ctx context.Context, days int) (Forecast, error) {
	if days == 0 {
		days = DefaultForecastDays
	}
	if days < 1 || days > maxForecastDays {
		return Forecast{}, fmt.Errorf("%w: days must be between 1 and %d", shared.ErrInvalidInput, maxForecastDays)
	}
	now := s.now()
	history, err := ResolveWindow(now, ForecastHistoryDays, nil, nil)
	if err != nil {
		return Forecast{}, err
	}
	parts := append(windowKey("forecast", history), "days="+strconv.Itoa(days))
	var out Forecast
	err = s.cached(ctx, parts, &out, func(ctx context.Context) (any, error) {
		dash, err := s.buildDashboard(ctx, history)
		if err != nil {
			return nil, err
		}
		avgIn := dash.TotalInflows / ForecastHistoryDays
		avgOut := dash.TotalOutflows / ForecastHistoryDays
		return Project(now, dash.CurrentBalance, avgIn, avgOut, days), nil
	})
	return out, err
}
