package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-commerce/internal/catalog"
	"github.com/odyssey-erp/odyssey-commerce/internal/inventory"
	"github.com/odyssey-erp/odyssey-commerce/internal/rbac"
	"github.com/odyssey-erp/odyssey-commerce/internal/shared"
	"github.com/odyssey-erp/odyssey-commerce/internal/users"
)

// UserResolver resolves order owners.
type UserResolver interface {
	Resolve(ctx context.Context, idOrUsername string) (users.User, error)
	Refs(ctx context.Context, ids []string) (map[string]users.Ref, error)
}

// ProductResolver resolves order line products.
type ProductResolver interface {
	Refs(ctx context.Context, ids []string) (map[string]catalog.Ref, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service implements the order lifecycle.
type Service struct {
	repo     Repository
	reserver *inventory.Reserver
	users    UserResolver
	products ProductResolver
	effect   CompletionEffect
	audit    AuditPort
	metrics  Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// Option customises Service.
type Option func(*Service)

// WithCompletionEffect registers the effect run when an order completes.
func WithCompletionEffect(effect CompletionEffect) Option {
	return func(s *Service) { s.effect = effect }
}

// WithAudit records lifecycle changes in the audit log.
func WithAudit(audit AuditPort) Option {
	return func(s *Service) { s.audit = audit }
}

// WithRecorder reports lifecycle counters.
func WithRecorder(rec Recorder) Option {
	return func(s *Service) {
		if rec != nil {
			s.metrics = rec
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds Service.
func NewService(repo Repository, reserver *inventory.Reserver, users UserResolver, products ProductResolver, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		repo:     repo,
		reserver: reserver,
		users:    users,
		products: products,
		metrics:  nopRecorder{},
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create reserves stock for every line and persists the order. Either every
// line is decremented and the order exists, or nothing changes.
func (s *Service) Create(ctx context.Context, caller shared.Principal, req CreateOrderRequest) (Order, error) {
	if caller.Anonymous() {
		return Order{}, shared.ErrUnauthorized
	}
	if !req.PaymentMethod.Valid() {
		return Order{}, fmt.Errorf("%w: unknown payment method %q", shared.ErrInvalidInput, req.PaymentMethod)
	}
	if req.TotalPrice <= 0 {
		return Order{}, fmt.Errorf("%w: totalPrice must be positive", shared.ErrInvalidInput)
	}
	status := req.Status
	if status == "" {
		status = StatusPending
	}
	if status != StatusPending && status != StatusProcessing {
		return Order{}, fmt.Errorf("%w: new orders start as pending or processing", ErrInvalidStatus)
	}
	if _, err := s.reserver.Check(ctx, req.Products); err != nil {
		return Order{}, err
	}

	now := s.now()
	order := Order{
		ID:            uuid.NewString(),
		UserID:        caller.ID,
		Products:      append([]inventory.Line(nil), req.Products...),
		PaymentMethod: req.PaymentMethod,
		Status:        status,
		TotalPrice:    req.TotalPrice,
		OrderDate:     now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.OrderDate != nil && !req.OrderDate.IsZero() {
		order.OrderDate = req.OrderDate.UTC()
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := s.reserver.Commit(ctx, tx, order.Products); err != nil {
			return err
		}
		if err := tx.Insert(ctx, order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, shared.ErrConflict) {
			s.metrics.StockConflict()
			s.logger.Warn("order stock conflict", slog.String("user_id", caller.ID), slog.Any("error", err))
		}
		return Order{}, err
	}
	s.metrics.OrderCreated()
	s.record(ctx, caller, "orders:create", order.ID, map[string]any{"total_price": order.TotalPrice, "lines": len(order.Products)})
	return order, nil
}

// List returns every order for admins and the caller's own orders otherwise.
func (s *Service) List(ctx context.Context, caller shared.Principal, filter ListFilter) ([]OrderView, shared.Pagination, error) {
	if caller.Anonymous() {
		return nil, shared.Pagination{}, shared.ErrUnauthorized
	}
	if !caller.IsAdmin() {
		filter.UserID = caller.ID
	}
	return s.list(ctx, filter)
}

// ListByUser lists orders of a user addressed by id or username. Non-admins
// may only address themselves.
func (s *Service) ListByUser(ctx context.Context, caller shared.Principal, idOrUsername string, filter ListFilter) ([]OrderView, shared.Pagination, error) {
	u, err := s.users.Resolve(ctx, idOrUsername)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	if err := rbac.RequireOwnerOrAdmin(caller, u.ID); err != nil {
		return nil, shared.Pagination{}, err
	}
	filter.UserID = u.ID
	return s.list(ctx, filter)
}

func (s *Service) list(ctx context.Context, filter ListFilter) ([]OrderView, shared.Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, shared.Pagination{}, fmt.Errorf("%w: unknown status %q", shared.ErrInvalidInput, filter.Status)
	}
	page, limit := shared.NormalizePage(filter.Page, filter.Limit)
	orders, total, err := s.repo.List(ctx, filter, limit, (page-1)*limit)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	views, err := s.resolve(ctx, orders)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return views, shared.NewPagination(page, limit, total), nil
}

// Get returns a single order visible to the caller.
func (s *Service) Get(ctx context.Context, caller shared.Principal, id string) (OrderView, error) {
	order, err := s.scoped(ctx, caller, id)
	if err != nil {
		return OrderView{}, err
	}
	views, err := s.resolve(ctx, []Order{order})
	if err != nil {
		return OrderView{}, err
	}
	return views[0], nil
}

// UpdateStatus moves an order to a new status. Completing an order runs the
// completion effect synchronously; its failure is logged and swallowed.
func (s *Service) UpdateStatus(ctx context.Context, caller shared.Principal, id string, next Status) (Order, error) {
	if !next.Valid() {
		return Order{}, fmt.Errorf("%w: unknown status %q", ErrInvalidStatus, next)
	}
	current, err := s.scoped(ctx, caller, id)
	if err != nil {
		return Order{}, err
	}
	if !current.Status.CanTransition(next) {
		return Order{}, fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, current.Status, next)
	}
	updated, err := s.repo.UpdateStatus(ctx, id, current.Status, next)
	if err != nil {
		return Order{}, err
	}
	s.record(ctx, caller, "orders:status", id, map[string]any{"from": current.Status, "to": next})

	if next == StatusCompleted && s.effect != nil {
		s.runCompletionEffect(ctx, updated)
	}
	return updated, nil
}

func (s *Service) runCompletionEffect(ctx context.Context, order Order) {
	err := s.effect.OnOrderCompleted(ctx, order)
	s.metrics.CompletionEffect(err)
	if err != nil {
		s.logger.Error("order completion effect failed",
			slog.String("order_id", order.ID),
			slog.Any("error", err))
	}
}

// Delete removes an order. Customers only reach their own orders. Reserved
// stock is not restored.
func (s *Service) Delete(ctx context.Context, caller shared.Principal, id string) error {
	if caller.Anonymous() {
		return shared.ErrUnauthorized
	}
	owner := caller.ID
	if caller.IsAdmin() {
		owner = ""
	}
	if err := s.repo.Delete(ctx, id, owner); err != nil {
		return err
	}
	s.record(ctx, caller, "orders:delete", id, nil)
	return nil
}

// ListCompleted returns completed orders dated inside the optional window.
func (s *Service) ListCompleted(ctx context.Context, from, to *time.Time) ([]Order, error) {
	return s.repo.ListCompleted(ctx, from, to)
}

// scoped loads an order and hides it from non-admin callers who do not own it.
func (s *Service) scoped(ctx context.Context, caller shared.Principal, id string) (Order, error) {
	if caller.Anonymous() {
		return Order{}, shared.ErrUnauthorized
	}
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !caller.IsAdmin() && order.UserID != caller.ID {
		return Order{}, ErrNotFound
	}
	return order, nil
}

func (s *Service) resolve(ctx context.Context, orders []Order) ([]OrderView, error) {
	userIDs := make([]string, 0, len(orders))
	var productIDs []string
	for _, o := range orders {
		userIDs = append(userIDs, o.UserID)
		productIDs = append(productIDs, o.ProductIDs()...)
	}
	userRefs, err := s.users.Refs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve users: %w", err)
	}
	productRefs, err := s.products.Refs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve products: %w", err)
	}
	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		v := OrderView{
			ID:            o.ID,
			UserID:        o.UserID,
			PaymentMethod: o.PaymentMethod,
			Status:        o.Status,
			TotalPrice:    o.TotalPrice,
			OrderDate:     o.OrderDate,
			CreatedAt:     o.CreatedAt,
			UpdatedAt:     o.UpdatedAt,
			Products:      make([]LineView, 0, len(o.Products)),
		}
		if ref, ok := userRefs[o.UserID]; ok {
			v.User = &ref
		}
		for _, l := range o.Products {
			lv := LineView{ProductID: l.ProductID, Quantity: l.Quantity}
			if ref, ok := productRefs[l.ProductID]; ok {
				lv.Product = &ref
			}
			v.Products = append(v.Products, lv)
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *Service) record(ctx context.Context, caller shared.Principal, action, id string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  caller.ID,
		Action:   action,
		Entity:   "order",
		EntityID: id,
		Meta:     meta,
		At:       s.now(),
	}); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
