package orders

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-commerce/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-commerce/internal/rbac"
)

// Handler exposes order endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

func (h *Handler) listFilter(r *http.Request) (ListFilter, error) {
	page, err := httpx.QueryInt(r, "page", 1)
	if err != nil {
		return ListFilter{}, err
	}
	limit, err := httpx.QueryInt(r, "limit", 20)
	if err != nil {
		return ListFilter{}, err
	}
	return ListFilter{Status: Status(r.URL.Query().Get("status")), Page: page, Limit: limit}, nil
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := h.listFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	views, pagination, err := h.service.List(r.Context(), rbac.Principal(r), filter)
	if err != nil {
		h.fail(w, "list orders", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"orders": views, "pagination": pagination})
}

func (h *Handler) ListByUser(w http.ResponseWriter, r *http.Request) {
	filter, err := h.listFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	views, pagination, err := h.service.ListByUser(r.Context(), rbac.Principal(r), chi.URLParam(r, "id"), filter)
	if err != nil {
		h.fail(w, "list user orders", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"orders": views, "pagination": pagination})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Get(r.Context(), rbac.Principal(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.Create(r.Context(), rbac.Principal(r), req)
	if err != nil {
		h.fail(w, "create order", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.UpdateStatus(r.Context(), rbac.Principal(r), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.fail(w, "update order status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), rbac.Principal(r), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete order", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.StatusFor(err) >= http.StatusInternalServerError {
		h.logger.Error(op+" failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
