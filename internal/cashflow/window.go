package cashflow

import (
	"fmt"
	"math"
	"time"

	"github.com/odyssey-erp/odyssey-commerce/internal/shared"
)

const (
	// DefaultPeriodDays is the window length used when none is requested.
	DefaultPeriodDays = 30
	maxPeriodDays     = 3660
	dayLayout         = "2006-01-02"
)

// Window is an inclusive reporting range. Rolling windows were resolved from a
// period alone and end at the clock reading.
type Window struct {
	Start      time.Time
	End        time.Time
	PeriodDays int
	Rolling    bool
}

// Period returns the JSON echo of w.
func (w Window) Period() Period {
	return Period{StartDate: w.Start, EndDate: w.End, Days: w.PeriodDays}
}

// ResolveWindow builds a window either from explicit bounds or from a period
// in days ending now. A missing start is derived from the period; a missing
// end defaults to now.
func ResolveWindow(now time.Time, periodDays int, start, end *time.Time) (Window, error) {
	if periodDays == 0 {
		periodDays = DefaultPeriodDays
	}
	if periodDays < 0 || periodDays > maxPeriodDays {
		return Window{}, fmt.Errorf("%w: period must be between 1 and %d days", shared.ErrInvalidInput, maxPeriodDays)
	}
	now = now.UTC()
	if start == nil && end == nil {
		return Window{Start: now.AddDate(0, 0, -periodDays), End: now, PeriodDays: periodDays, Rolling: true}, nil
	}
	w := Window{End: now}
	if end != nil {
		w.End = end.UTC()
	}
	if start == nil {
		w.Start = w.End.AddDate(0, 0, -periodDays)
		w.PeriodDays = periodDays
		return w, nil
	}
	w.Start = start.UTC()
	if w.End.Before(w.Start) {
		return Window{}, fmt.Errorf("%w: endDate precedes startDate", shared.ErrInvalidInput)
	}
	days := int(math.Ceil(w.End.Sub(w.Start).Hours() / 24))
	if days < 1 {
		days = 1
	}
	w.PeriodDays = days
	return w, nil
}

// Days lists every UTC calendar day touched by w, both ends included.
func (w Window) Days() []string {
	first := truncateDay(w.Start)
	last := truncateDay(w.End)
	var out []string
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(dayLayout))
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
