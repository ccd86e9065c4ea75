package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/odyssey-erp/odyssey-commerce/internal/catalog"
	"github.com/odyssey-erp/odyssey-commerce/internal/rbac"
	"github.com/odyssey-erp/odyssey-commerce/internal/shared"
)

// Store abstracts stock maintenance outside of order placement.
type Store interface {
	IncrementStock(ctx context.Context, productID string, qty int) (catalog.Product, error)
	ListLowStock(ctx context.Context, threshold int) ([]catalog.Product, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// DefaultLowStockThreshold is used when callers do not pass one.
const DefaultLowStockThreshold = 5

// Service coordinates stock maintenance.
type Service struct {
	store Store
	audit AuditPort
}

// NewService builds Service.
func NewService(store Store, audit AuditPort) *Service {
	return &Service{store: store, audit: audit}
}

// Restock atomically increases stock for a product.
func (s *Service) Restock(ctx context.Context, caller shared.Principal, productID string, qty int) (catalog.Product, error) {
	if err := rbac.RequireAnyRole(caller, shared.RoleAdmin); err != nil {
		return catalog.Product{}, err
	}
	if qty < 1 {
		return catalog.Product{}, ErrInvalidQuantity
	}
	p, err := s.store.IncrementStock(ctx, productID, qty)
	if err != nil {
		return catalog.Product{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  caller.ID,
			Action:   "inventory:restock",
			Entity:   "product",
			EntityID: productID,
			Meta:     map[string]any{"qty": qty, "stock_quantity": p.StockQuantity},
			At:       time.Now().UTC(),
		})
	}
	return p, nil
}

// LowStock lists products whose stock is strictly below threshold.
func (s *Service) LowStock(ctx context.Context, caller shared.Principal, threshold int) ([]catalog.Product, error) {
	if err := rbac.RequireAnyRole(caller, shared.RoleAdmin); err != nil {
		return nil, err
	}
	if threshold < 0 {
		return nil, fmt.Errorf("%w: threshold must be non-negative", shared.ErrInvalidInput)
	}
	if threshold == 0 {
		threshold = DefaultLowStockThreshold
	}
	return s.store.ListLowStock(ctx, threshold)
}
