package cashflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-commerce/internal/orders"
)

const (
	// COGSRatio is the fixed share of order value booked as cost of goods sold.
	COGSRatio = "0.4"
	// ShippingCost is booked once per completed order.
	ShippingCost = 10.0
)

// Derive maps a completed order onto its revenue, COGS and shipping entries.
// It has no side effects.
func Derive(order orders.Order, newID func() string, now time.Time) []Transaction {
	orderID := order.ID
	mk := func(t Type, category string, amount float64, desc string) Transaction {
		return Transaction{
			ID:          newID(),
			Type:        t,
			Category:    category,
			Amount:      amount,
			Description: desc,
			Date:        order.OrderDate,
			OrderID:     &orderID,
			Automated:   true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}
	return []Transaction{
		mk(TypeInflow, CategoryProductSales, order.TotalPrice, fmt.Sprintf("Revenue from order %s", order.ID)),
		mk(TypeOutflow, CategoryCOGS, mul(order.TotalPrice, COGSRatio), fmt.Sprintf("Cost of goods sold for order %s", order.ID)),
		mk(TypeOutflow, CategoryShipping, ShippingCost, fmt.Sprintf("Shipping for order %s", order.ID)),
	}
}

// OrderSource lists completed orders for reconciliation.
type OrderSource interface {
	ListCompleted(ctx context.Context, from, to *time.Time) ([]orders.Order, error)
}

// Recorder receives derivation outcomes.
type Recorder interface {
	Derivation(result string)
}

// Sync result states.
const (
	SyncCreated = "created"
	SyncSkipped = "skipped"
	SyncFailed  = "failed"
)

// SyncResult is the outcome for one order in a reconciliation run.
type SyncResult struct {
	OrderID      string `json:"orderId"`
	Status       string `json:"status"`
	Transactions int    `json:"transactions"`
	Error        string `json:"error,omitempty"`
}

// SyncReport summarises a reconciliation run.
type SyncReport struct {
	Results []SyncResult `json:"results"`
	Count   int          `json:"count"`
	Skipped int          `json:"skipped"`
	Failed  int          `json:"failed"`
}

// Engine persists derived transactions.
type Engine struct {
	repo    Repository
	orders  OrderSource
	inval   Invalidator
	metrics Recorder
	logger  *slog.Logger
	newID   func() string
	now     func() time.Time
}

// NewEngine constructs Engine. orders may be nil when only the per-order path
// is used.
func NewEngine(repo Repository, orders OrderSource, inval Invalidator, metrics Recorder, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		repo:    repo,
		orders:  orders,
		inval:   inval,
		metrics: metrics,
		logger:  logger,
		newID:   uuid.NewString,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// OnOrderCompleted derives and stores transactions for order. It does not
// check for existing entries, so repeated completion derives again.
func (e *Engine) OnOrderCompleted(ctx context.Context, order orders.Order) error {
	_, err := e.record(ctx, order)
	return err
}

func (e *Engine) record(ctx context.Context, order orders.Order) ([]Transaction, error) {
	if order.Status != orders.StatusCompleted {
		return nil, fmt.Errorf("cashflow: order %s is %s, not completed", order.ID, order.Status)
	}
	txs := Derive(order, e.newID, e.now())
	if err := e.repo.InsertBatch(ctx, txs); err != nil {
		e.observe(SyncFailed)
		return nil, fmt.Errorf("cashflow: record order %s: %w", order.ID, err)
	}
	e.observe(SyncCreated)
	if e.inval == nil {
		return txs, nil
	}
	if err := e.inval.Bump(ctx); err != nil {
		e.logger.Warn("cashflow cache bump failed", slog.Any("error", err))
	}
	return txs, nil
}

// Sync derives transactions for every completed order in the optional range
// that has none yet.
func (e *Engine) Sync(ctx context.Context, from, to *time.Time) (SyncReport, error) {
	if e.orders == nil {
		return SyncReport{}, fmt.Errorf("cashflow: no order source configured")
	}
	completed, err := e.orders.ListCompleted(ctx, from, to)
	if err != nil {
		return SyncReport{}, fmt.Errorf("cashflow: list completed orders: %w", err)
	}
	report := SyncReport{Results: make([]SyncResult, 0, len(completed))}
	for _, order := range completed {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		exists, err := e.repo.ExistsForOrder(ctx, order.ID)
		if err != nil {
			return report, fmt.Errorf("cashflow: check order %s: %w", order.ID, err)
		}
		if exists {
			e.observe(SyncSkipped)
			report.Skipped++
			report.Results = append(report.Results, SyncResult{OrderID: order.ID, Status: SyncSkipped})
			continue
		}
		txs, err := e.record(ctx, order)
		if err != nil {
			e.logger.Error("cashflow sync order failed", slog.String("order_id", order.ID), slog.Any("error", err))
			report.Failed++
			report.Results = append(report.Results, SyncResult{OrderID: order.ID, Status: SyncFailed, Error: err.Error()})
			continue
		}
		report.Count++
		report.Results = append(report.Results, SyncResult{OrderID: order.ID, Status: SyncCreated, Transactions: len(txs)})
	}
	e.logger.Info("cashflow sync finished",
		slog.Int("orders", len(completed)),
		slog.Int("synced", report.Count),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed))
	return report, nil
}

func (e *Engine) observe(result string) {
	if e.metrics != nil {
		e.metrics.Derivation(result)
	}
}
