package cashflowhttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-commerce/internal/cashflow"
	"github.com/odyssey-erp/odyssey-commerce/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-commerce/internal/rbac"
	"github.com/odyssey-erp/odyssey-commerce/internal/shared"
)

const requestTimeout = 5 * time.Second

// ReportService is the reporting and transaction contract used by the handler.
type ReportService interface {
	Window(periodDays int, start, end *time.Time) (cashflow.Window, error)
	Dashboard(ctx context.Context, w cashflow.Window) (cashflow.Dashboard, error)
	History(ctx context.Context, w cashflow.Window) ([]cashflow.DailyFlow, error)
	ByCategory(ctx context.Context, w cashflow.Window) (cashflow.CategoryBreakdown, error)
	Forecast(ctx context.Context, days int) (cashflow.Forecast, error)
	ListTransactions(ctx context.Context, f cashflow.Filter) ([]cashflow.Transaction, shared.Pagination, error)
	GetTransaction(ctx context.Context, id string) (cashflow.Transaction, error)
	CreateTransaction(ctx context.Context, req cashflow.CreateTransactionRequest) (cashflow.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, req cashflow.UpdateTransactionRequest) (cashflow.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	WriteCSV(ctx context.Context, w io.Writer, win cashflow.Window) error
}

// Syncer runs order reconciliation.
type Syncer interface {
	Sync(ctx context.Context, from, to *time.Time) (cashflow.SyncReport, error)
}

// Handler coordinates HTTP requests for cash-flow reporting.
type Handler struct {
	logger  *slog.Logger
	service ReportService
	syncer  Syncer
	rbac    rbac.Middleware
}

// NewHandler constructs the cash-flow HTTP handler.
func NewHandler(logger *slog.Logger, service ReportService, syncer Syncer, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, syncer: syncer, rbac: rbac}
}

func (h *Handler) parseWindow(r *http.Request) (cashflow.Window, error) {
	period, err := httpx.QueryInt(r, "period", cashflow.DefaultPeriodDays)
	if err != nil {
		return cashflow.Window{}, err
	}
	start, err := httpx.QueryTime(r, "startDate")
	if err != nil {
		return cashflow.Window{}, err
	}
	end, err := httpx.QueryEndTime(r, "endDate")
	if err != nil {
		return cashflow.Window{}, err
	}
	return h.service.Window(period, start, end)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	win, err := h.parseWindow(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	dash, err := h.service.Dashboard(ctx, win)
	if err != nil {
		h.fail(w, "load dashboard", err)
		return
	}
	httpx.JSON(w, http.StatusOK, dash)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	win, err := h.parseWindow(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	days, err := h.service.History(ctx, win)
	if err != nil {
		h.fail(w, "load history", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"period": win.Period(), "history": days})
}

func (h *Handler) handleByCategory(w http.ResponseWriter, r *http.Request) {
	win, err := h.parseWindow(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	breakdown, err := h.service.ByCategory(ctx, win)
	if err != nil {
		h.fail(w, "load categories", err)
		return
	}
	httpx.JSON(w, http.StatusOK, breakdown)
}

func (h *Handler) handleForecast(w http.ResponseWriter, r *http.Request) {
	days, err := httpx.QueryInt(r, "days", cashflow.DefaultForecastDays)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	forecast, err := h.service.Forecast(ctx, days)
	if err != nil {
		h.fail(w, "build forecast", err)
		return
	}
	httpx.JSON(w, http.StatusOK, forecast)
}

func (h *Handler) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := cashflow.Filter{Type: cashflow.Type(q.Get("type")), Category: q.Get("category")}
	var err error
	if f.Automated, err = httpx.QueryBool(r, "automated"); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if f.From, err = httpx.QueryTime(r, "startDate"); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if f.To, err = httpx.QueryEndTime(r, "endDate"); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if f.Page, err = httpx.QueryInt(r, "page", 1); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if f.Limit, err = httpx.QueryInt(r, "limit", 20); err != nil {
		httpx.RespondError(w, err)
		return
	}
	txs, pagination, err := h.service.ListTransactions(r.Context(), f)
	if err != nil {
		h.fail(w, "list transactions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"transactions": txs, "pagination": pagination})
}

func (h *Handler) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.GetTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get transaction", err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req cashflow.CreateTransactionRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	t, err := h.service.CreateTransaction(r.Context(), req)
	if err != nil {
		h.fail(w, "create transaction", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, t)
}

func (h *Handler) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req cashflow.UpdateTransactionRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	t, err := h.service.UpdateTransaction(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, "update transaction", err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteTransaction(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete transaction", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	win, err := h.parseWindow(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	filename := fmt.Sprintf("cashflow-%s-%s.csv", win.Start.Format("20060102"), win.End.Format("20060102"))
	out := &csvResponse{w: w, filename: filename}
	if err := h.service.WriteCSV(r.Context(), out, win); err != nil {
		if !out.started {
			h.fail(w, "write transactions csv", err)
			return
		}
		h.logger.Error("stream csv failed", slog.Any("error", err))
	}
}

// csvResponse sends the CSV headers with the first chunk so an error raised
// before any row is flushed can still become a problem response.
type csvResponse struct {
	w        http.ResponseWriter
	filename string
	started  bool
}

func (c *csvResponse) Write(p []byte) (int, error) {
	if !c.started {
		c.started = true
		c.w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		c.w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", c.filename))
		c.w.WriteHeader(http.StatusOK)
	}
	return c.w.Write(p)
}

type syncRequest struct {
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if r.Body != nil && r.Body != http.NoBody {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			httpx.RespondError(w, fmt.Errorf("%w: malformed json body: %v", shared.ErrInvalidInput, err))
			return
		}
	}
	from, err := httpx.ParseTime("startDate", req.StartDate)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	to, err := httpx.ParseEndTime("endDate", req.EndDate)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if from != nil && to != nil && to.Before(*from) {
		httpx.RespondError(w, fmt.Errorf("%w: endDate precedes startDate", shared.ErrInvalidInput))
		return
	}
	report, err := h.syncer.Sync(r.Context(), from, to)
	if err != nil {
		h.fail(w, "sync orders", err)
		return
	}
	h.logger.Info("cashflow sync requested",
		slog.String("actor", rbac.Principal(r).ID),
		slog.Int("synced", report.Count))
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.StatusFor(err) >= http.StatusInternalServerError {
		h.logger.Error(op+" failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
