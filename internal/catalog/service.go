package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-commerce/internal/rbac"
	"github.com/odyssey-erp/odyssey-commerce/internal/shared"
)

// Store is the persistence contract for products.
type Store interface {
	CreateProduct(ctx context.Context, p Product) error
	GetProduct(ctx context.Context, id string) (Product, error)
	GetProducts(ctx context.Context, ids []string) ([]Product, error)
	ListProducts(ctx context.Context, filter ListFilter, limit, offset int) ([]Product, int, error)
	UpdateProduct(ctx context.Context, p Product) error
	DeleteProduct(ctx context.Context, id string) error
}

// Service coordinates product management.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService builds Service.
func NewService(store Store) *Service {
	return &Service{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Create registers a new product with its opening stock.
func (s *Service) Create(ctx context.Context, caller shared.Principal, req CreateProductRequest) (Product, error) {
	if err := rbac.RequireAnyRole(caller, shared.RoleAdmin); err != nil {
		return Product{}, err
	}
	if err := req.Name.Validate(); err != nil {
		return Product{}, err
	}
	if strings.TrimSpace(req.CategoryID) == "" {
		return Product{}, fmt.Errorf("%w: category is required", shared.ErrInvalidInput)
	}
	if req.Price < 0 || req.StockQuantity < 0 {
		return Product{}, fmt.Errorf("%w: price and stock must be non-negative", shared.ErrInvalidInput)
	}
	now := s.now()
	p := Product{
		ID:            uuid.NewString(),
		Name:          req.Name,
		CategoryID:    strings.TrimSpace(req.CategoryID),
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateProduct(ctx, p); err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

// Get returns a single product.
func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	if strings.TrimSpace(id) == "" {
		return Product{}, fmt.Errorf("%w: product id required", shared.ErrInvalidInput)
	}
	return s.store.GetProduct(ctx, id)
}

// List returns a page of products.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Product, shared.Pagination, error) {
	page, limit := shared.NormalizePage(filter.Page, filter.Limit)
	products, total, err := s.store.ListProducts(ctx, filter, limit, (page-1)*limit)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return products, shared.NewPagination(page, limit, total), nil
}

// Refs resolves product projections keyed by id.
func (s *Service) Refs(ctx context.Context, ids []string) (map[string]Ref, error) {
	products, err := s.store.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Ref, len(products))
	for _, p := range products {
		out[p.ID] = p.Ref()
	}
	return out, nil
}

// Update changes descriptive fields of a product.
func (s *Service) Update(ctx context.Context, caller shared.Principal, id string, req UpdateProductRequest) (Product, error) {
	if err := rbac.RequireAnyRole(caller, shared.RoleAdmin); err != nil {
		return Product{}, err
	}
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if req.Name != nil {
		if err := req.Name.Validate(); err != nil {
			return Product{}, err
		}
		p.Name = req.Name
	}
	if req.CategoryID != nil {
		if strings.TrimSpace(*req.CategoryID) == "" {
			return Product{}, fmt.Errorf("%w: category cannot be blank", shared.ErrInvalidInput)
		}
		p.CategoryID = strings.TrimSpace(*req.CategoryID)
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return Product{}, fmt.Errorf("%w: price must be non-negative", shared.ErrInvalidInput)
		}
		p.Price = *req.Price
	}
	if err := s.store.UpdateProduct(ctx, p); err != nil {
		return Product{}, err
	}
	p.UpdatedAt = s.now()
	return p, nil
}

// Delete removes a product.
func (s *Service) Delete(ctx context.Context, caller shared.Principal, id string) error {
	if err := rbac.RequireAnyRole(caller, shared.RoleAdmin); err != nil {
		return err
	}
	return s.store.DeleteProduct(ctx, id)
}
