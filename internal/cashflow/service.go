package cashflow

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/odyssey-commerce/internal/shared"
)

// Cache is the versioned report cache.
type Cache interface {
	BuildKey(ctx context.Context, parts ...string) (string, error)
	FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error
	Invalidator
}

// Invalidator drops every cached report.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// Service serves cash-flow reports and manual transaction maintenance.
type Service struct {
	repo   Repository
	cache  Cache
	logger *slog.Logger
	now    func() time.Time
}

// NewService wires a Repository with the report cache. cache may be nil.
func NewService(repo Repository, cache Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// WithNow overrides the service clock.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Now returns the service clock reading.
func (s *Service) Now() time.Time {
	return s.now()
}

// Window resolves request parameters against the service clock.
func (s *Service) Window(periodDays int, start, end *time.Time) (Window, error) {
	return ResolveWindow(s.now(), periodDays, start, end)
}

// windowKey keys rolling windows by period and UTC day so a report warmed
// earlier in the day is reused until the cache TTL or a write expires it.
func windowKey(kind string, w Window) []string {
	if w.Rolling {
		return []string{kind, "period=" + strconv.Itoa(w.PeriodDays), w.End.UTC().Format(dayLayout)}
	}
	return []string{kind,
		w.Start.UTC().Format(time.RFC3339Nano),
		w.End.UTC().Format(time.RFC3339Nano),
		strconv.Itoa(w.PeriodDays)}
}

func (s *Service) cached(ctx context.Context, parts []string, dest any, loader func(context.Context) (any, error)) error {
	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return err
		}
		return assign(value, dest)
	}
	key, err := s.cache.BuildKey(ctx, parts...)
	if err != nil {
		return err
	}
	return s.cache.FetchJSON(ctx, key, dest, loader)
}

func assign(value, dest any) error {
	switch d := dest.(type) {
	case *Dashboard:
		*d = value.(Dashboard)
	case *[]DailyFlow:
		*d = value.([]DailyFlow)
	case *CategoryBreakdown:
		*d = value.(CategoryBreakdown)
	case *Forecast:
		*d = value.(Forecast)
	default:
		return fmt.Errorf("cashflow: unsupported cache destination %T", dest)
	}
	return nil
}

// Dashboard sums the window and the all-time balance and derives burn rate
// and runway.
func (s *Service) Dashboard(ctx context.Context, w Window) (Dashboard, error) {
	var out Dashboard
	err := s.cached(ctx, windowKey("dashboard", w), &out, func(ctx context.Context) (any, error) {
		return s.buildDashboard(ctx, w)
	})
	return out, err
}

func (s *Service) buildDashboard(ctx context.Context, w Window) (Dashboard, error) {
	var windowed, allTime Totals
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.repo.SumByType(gctx, &w.Start, &w.End)
		if err != nil {
			return fmt.Errorf("window totals: %w", err)
		}
		windowed = t
		return nil
	})
	g.Go(func() error {
		t, err := s.repo.SumByType(gctx, nil, nil)
		if err != nil {
			return fmt.Errorf("all-time totals: %w", err)
		}
		allTime = t
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return summarize(w, windowed, allTime), nil
}

func summarize(w Window, windowed, allTime Totals) Dashboard {
	d := Dashboard{
		Period:         w.Period(),
		TotalInflows:   windowed.Inflows,
		TotalOutflows:  windowed.Outflows,
		NetCashFlow:    windowed.Inflows - windowed.Outflows,
		CurrentBalance: allTime.Inflows - allTime.Outflows,
	}
	if w.PeriodDays > 0 {
		d.CashBurnRate = windowed.Outflows / float64(w.PeriodDays)
	}
	if d.CashBurnRate > 0 {
		runway := runwayDays(d.CurrentBalance / d.CashBurnRate)
		d.Runway = &runway
	}
	return d
}

// runwayDays floors q and saturates at the int64 range.
func runwayDays(q float64) int64 {
	q = math.Floor(q)
	switch {
	case q >= math.MaxInt64:
		return math.MaxInt64
	case q <= math.MinInt64:
		return math.MinInt64
	}
	return int64(q)
}

// History returns one record per calendar day in the window, zero filled.
func (s *Service) History(ctx context.Context, w Window) ([]DailyFlow, error) {
	var out []DailyFlow
	err := s.cached(ctx, windowKey("history", w), &out, func(ctx context.Context) (any, error) {
		totals, err := s.repo.DailyTotals(ctx, w.Start, w.End)
		if err != nil {
			return nil, err
		}
		return fillDays(w, totals), nil
	})
	return out, err
}

func fillDays(w Window, totals []DailyTotal) []DailyFlow {
	days := w.Days()
	index := make(map[string]int, len(days))
	out := make([]DailyFlow, len(days))
	for i, day := range days {
		index[day] = i
		out[i] = DailyFlow{Date: day}
	}
	for _, t := range totals {
		i, ok := index[t.Day]
		if !ok {
			continue
		}
		switch t.Type {
		case TypeInflow:
			out[i].Inflows += t.Amount
		case TypeOutflow:
			out[i].Outflows += t.Amount
		}
	}
	for i := range out {
		out[i].NetFlow = out[i].Inflows - out[i].Outflows
	}
	return out
}

// ByCategory groups the window by category for each direction.
func (s *Service) ByCategory(ctx context.Context, w Window) (CategoryBreakdown, error) {
	var out CategoryBreakdown
	err := s.cached(ctx, windowKey("by_category", w), &out, func(ctx context.Context) (any, error) {
		totals, err := s.repo.CategoryTotals(ctx, w.Start, w.End)
		if err != nil {
			return nil, err
		}
		return reshapeCategories(w, totals), nil
	})
	return out, err
}

func reshapeCategories(w Window, totals []CategoryTotal) CategoryBreakdown {
	b := CategoryBreakdown{
		Period:   w.Period(),
		Inflows:  []CategoryAmount{},
		Outflows: []CategoryAmount{},
	}
	for _, t := range totals {
		if t.Amount <= 0 {
			continue
		}
		row := CategoryAmount{Category: t.Category, Amount: t.Amount, Count: t.Count}
		switch t.Type {
		case TypeInflow:
			b.Inflows = append(b.Inflows, row)
			b.TotalInflows += t.Amount
		case TypeOutflow:
			b.Outflows = append(b.Outflows, row)
			b.TotalOutflows += t.Amount
		}
	}
	return b
}

// CreateTransactionRequest is the body for manual transaction entry.
type CreateTransactionRequest struct {
	Type        Type       `json:"type" validate:"required,oneof=inflow outflow"`
	Category    string     `json:"category" validate:"required,max=64"`
	Amount      float64    `json:"amount" validate:"gt=0"`
	Description string     `json:"description" validate:"max=500"`
	Date        *time.Time `json:"date,omitempty"`
}

// UpdateTransactionRequest carries optional changes for a manual transaction.
type UpdateTransactionRequest struct {
	Type        *Type      `json:"type,omitempty" validate:"omitempty,oneof=inflow outflow"`
	Category    *string    `json:"category,omitempty" validate:"omitempty,min=1,max=64"`
	Amount      *float64   `json:"amount,omitempty" validate:"omitempty,gt=0"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=500"`
	Date        *time.Time `json:"date,omitempty"`
}

// CreateTransaction records a manual entry.
func (s *Service) CreateTransaction(ctx context.Context, req CreateTransactionRequest) (Transaction, error) {
	if !req.Type.Valid() {
		return Transaction{}, fmt.Errorf("%w: type must be inflow or outflow", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Category) == "" || req.Amount <= 0 {
		return Transaction{}, fmt.Errorf("%w: category and a positive amount are required", shared.ErrInvalidInput)
	}
	now := s.now()
	t := Transaction{
		ID:          uuid.NewString(),
		Type:        req.Type,
		Category:    strings.TrimSpace(req.Category),
		Amount:      req.Amount,
		Description: req.Description,
		Date:        now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Date != nil && !req.Date.IsZero() {
		t.Date = req.Date.UTC()
	}
	if err := s.repo.Insert(ctx, t); err != nil {
		return Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	s.invalidate(ctx)
	return t, nil
}

// GetTransaction loads one transaction.
func (s *Service) GetTransaction(ctx context.Context, id string) (Transaction, error) {
	return s.repo.Get(ctx, id)
}

// ListTransactions pages through transactions newest first.
func (s *Service) ListTransactions(ctx context.Context, f Filter) ([]Transaction, shared.Pagination, error) {
	if f.Type != "" && !f.Type.Valid() {
		return nil, shared.Pagination{}, fmt.Errorf("%w: type must be inflow or outflow", shared.ErrInvalidInput)
	}
	page, limit := shared.NormalizePage(f.Page, f.Limit)
	txs, total, err := s.repo.List(ctx, f, limit, (page-1)*limit)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	if txs == nil {
		txs = []Transaction{}
	}
	return txs, shared.NewPagination(page, limit, total), nil
}

// UpdateTransaction edits a manual transaction. Automated ones are read only.
func (s *Service) UpdateTransaction(ctx context.Context, id string, req UpdateTransactionRequest) (Transaction, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return Transaction{}, err
	}
	if t.Automated {
		return Transaction{}, ErrAutomatedReadOnly
	}
	if req.Type != nil {
		if !req.Type.Valid() {
			return Transaction{}, fmt.Errorf("%w: type must be inflow or outflow", shared.ErrInvalidInput)
		}
		t.Type = *req.Type
	}
	if req.Category != nil {
		if strings.TrimSpace(*req.Category) == "" {
			return Transaction{}, fmt.Errorf("%w: category cannot be blank", shared.ErrInvalidInput)
		}
		t.Category = strings.TrimSpace(*req.Category)
	}
	if req.Amount != nil {
		if *req.Amount <= 0 {
			return Transaction{}, fmt.Errorf("%w: amount must be positive", shared.ErrInvalidInput)
		}
		t.Amount = *req.Amount
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Date != nil && !req.Date.IsZero() {
		t.Date = req.Date.UTC()
	}
	t.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, t); err != nil {
		return Transaction{}, err
	}
	s.invalidate(ctx)
	return t, nil
}

// DeleteTransaction removes any transaction, derived ones included.
func (s *Service) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// EachTransaction streams the window to fn, oldest first.
func (s *Service) EachTransaction(ctx context.Context, w Window, fn func(Transaction) error) error {
	return s.repo.Each(ctx, w.Start, w.End, fn)
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("cashflow cache bump failed", slog.Any("error", err))
	}
}
