// Package memory provides an in-memory implementation of every repository
// used by the services, for tests and ephemeral environments.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/odyssey-erp/odyssey-commerce/internal/catalog"
	"github.com/odyssey-erp/odyssey-commerce/internal/cashflow"
	"github.com/odyssey-erp/odyssey-commerce/internal/hr"
	"github.com/odyssey-erp/odyssey-commerce/internal/inventory"
	"github.com/odyssey-erp/odyssey-commerce/internal/orders"
	"github.com/odyssey-erp/odyssey-commerce/internal/users"
)

var (
	_ users.Store           = (*Store)(nil)
	_ catalog.Store         = (*Store)(nil)
	_ inventory.Store       = (*Store)(nil)
	_ inventory.StockReader = (*Store)(nil)
	_ hr.Store              = (*Store)(nil)
	_ orders.Repository     = (*OrderRepository)(nil)
	_ cashflow.Repository   = (*TransactionRepository)(nil)
)

type memoryState struct {
	users        map[string]users.User
	products     map[string]catalog.Product
	orders       map[string]orders.Order
	transactions map[string]cashflow.Transaction
	employees    map[string]hr.Employee
}

func newMemoryState() memoryState {
	return memoryState{
		users:        map[string]users.User{},
		products:     map[string]catalog.Product{},
		orders:       map[string]orders.Order{},
		transactions: map[string]cashflow.Transaction{},
		employees:    map[string]hr.Employee{},
	}
}

// Store holds every collection behind one lock.
type Store struct {
	mu    sync.RWMutex
	state memoryState
	nowFn func() time.Time
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{state: newMemoryState(), nowFn: func() time.Time { return time.Now().UTC() }}
}

// Orders returns the order repository view.
func (s *Store) Orders() *OrderRepository {
	return &OrderRepository{store: s}
}

// Transactions returns the cash-flow repository view.
func (s *Store) Transactions() *TransactionRepository {
	return &TransactionRepository{store: s}
}

// PutUser inserts or replaces a directory entry.
func (s *Store) PutUser(u users.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.users[u.ID] = u
}

// GetUser implements users.Store.
func (s *Store) GetUser(_ context.Context, id string) (users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.state.users[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

// FindUser implements users.Store; an id match wins over a username match.
func (s *Store) FindUser(_ context.Context, idOrUsername string) (users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.state.users[idOrUsername]; ok {
		return u, nil
	}
	for _, u := range s.state.users {
		if u.Username == idOrUsername {
			return u, nil
		}
	}
	return users.User{}, users.ErrNotFound
}

// GetUsers implements users.Store.
func (s *Store) GetUsers(_ context.Context, ids []string) ([]users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]users.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.state.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func cloneName(n catalog.LocalizedName) catalog.LocalizedName {
	out := make(catalog.LocalizedName, len(n))
	for k, v := range n {
		out[k] = v
	}
	return out
}

func cloneProduct(p catalog.Product) catalog.Product {
	p.Name = cloneName(p.Name)
	return p
}

// CreateProduct implements catalog.Store.
func (s *Store) CreateProduct(_ context.Context, p catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.products[p.ID] = cloneProduct(p)
	return nil
}

// GetProduct implements catalog.Store and inventory.StockReader.
func (s *Store) GetProduct(_ context.Context, id string) (catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return cloneProduct(p), nil
}

// GetProducts implements catalog.Store.
func (s *Store) GetProducts(_ context.Context, ids []string) ([]catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]struct{}{}
	var out []catalog.Product
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := s.state.products[id]; ok {
			out = append(out, cloneProduct(p))
		}
	}
	return out, nil
}

// ListProducts implements catalog.Store.
func (s *Store) ListProducts(_ context.Context, f catalog.ListFilter, limit, offset int) ([]catalog.Product, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []catalog.Product
	for _, p := range s.state.products {
		if f.CategoryID != "" && p.CategoryID != f.CategoryID {
			continue
		}
		all = append(all, cloneProduct(p))
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	return page(all, limit, offset), len(all), nil
}

// UpdateProduct implements catalog.Store. Stock is left untouched.
func (s *Store) UpdateProduct(_ context.Context, p catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.state.products[p.ID]
	if !ok {
		return catalog.ErrNotFound
	}
	cur.Name = cloneName(p.Name)
	cur.CategoryID = p.CategoryID
	cur.Price = p.Price
	cur.UpdatedAt = s.nowFn()
	s.state.products[p.ID] = cur
	return nil
}

// DeleteProduct implements catalog.Store.
func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.products[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(s.state.products, id)
	return nil
}

// IncrementStock implements inventory.Store.
func (s *Store) IncrementStock(_ context.Context, productID string, qty int) (catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.state.products[productID]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	p.StockQuantity += qty
	p.UpdatedAt = s.nowFn()
	s.state.products[productID] = p
	return cloneProduct(p), nil
}

// ListLowStock implements inventory.Store.
func (s *Store) ListLowStock(_ context.Context, threshold int) ([]catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []catalog.Product
	for _, p := range s.state.products {
		if p.StockQuantity < threshold {
			out = append(out, cloneProduct(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StockQuantity != out[j].StockQuantity {
			return out[i].StockQuantity < out[j].StockQuantity
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func decrement(products map[string]catalog.Product, id string, qty int, now time.Time) bool {
	p, ok := products[id]
	if !ok || p.StockQuantity < qty {
		return false
	}
	p.StockQuantity -= qty
	p.UpdatedAt = now
	products[id] = p
	return true
}
