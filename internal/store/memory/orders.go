package memory

import (
	"context"
	"sort"
	"time"

	"github.com/odyssey-erp/odyssey-commerce/internal/catalog"
	"github.com/odyssey-erp/odyssey-commerce/internal/inventory"
	"github.com/odyssey-erp/odyssey-commerce/internal/orders"
)

// OrderRepository implements orders.Repository on the shared store.
type OrderRepository struct {
	store *Store
}

type orderTx struct {
	products map[string]catalog.Product
	orders   map[string]orders.Order
	now      time.Time
}

func cloneOrder(o orders.Order) orders.Order {
	o.Products = append([]inventory.Line(nil), o.Products...)
	return o
}

// WithTx runs fn against a copy of the product and order collections and
// publishes the copy only when fn succeeds.
func (r *OrderRepository) WithTx(ctx context.Context, fn func(context.Context, orders.TxRepository) error) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &orderTx{
		products: make(map[string]catalog.Product, len(s.state.products)),
		orders:   make(map[string]orders.Order, len(s.state.orders)+1),
		now:      s.nowFn(),
	}
	for k, v := range s.state.products {
		tx.products[k] = v
	}
	for k, v := range s.state.orders {
		tx.orders[k] = v
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.state.products = tx.products
	s.state.orders = tx.orders
	return nil
}

func (tx *orderTx) DecrementStock(_ context.Context, productID string, qty int) (bool, error) {
	return decrement(tx.products, productID, qty, tx.now), nil
}

func (tx *orderTx) Insert(_ context.Context, o orders.Order) error {
	tx.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r *OrderRepository) Get(_ context.Context, id string) (orders.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	o, ok := r.store.state.orders[id]
	if !ok {
		return orders.Order{}, orders.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (r *OrderRepository) List(_ context.Context, f orders.ListFilter, limit, offset int) ([]orders.Order, int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var all []orders.Order
	for _, o := range r.store.state.orders {
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		all = append(all, cloneOrder(o))
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].OrderDate.Equal(all[j].OrderDate) {
			return all[i].OrderDate.After(all[j].OrderDate)
		}
		return all[i].ID < all[j].ID
	})
	return page(all, limit, offset), len(all), nil
}

func (r *OrderRepository) UpdateStatus(_ context.Context, id string, from, to orders.Status) (orders.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o, ok := r.store.state.orders[id]
	if !ok || o.Status != from {
		return orders.Order{}, orders.ErrStatusChanged
	}
	o.Status = to
	o.UpdatedAt = r.store.nowFn()
	r.store.state.orders[id] = o
	return cloneOrder(o), nil
}

func (r *OrderRepository) Delete(_ context.Context, id, ownerID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o, ok := r.store.state.orders[id]
	if !ok || (ownerID != "" && o.UserID != ownerID) {
		return orders.ErrNotFound
	}
	delete(r.store.state.orders, id)
	return nil
}

func (r *OrderRepository) ListCompleted(_ context.Context, from, to *time.Time) ([]orders.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []orders.Order
	for _, o := range r.store.state.orders {
		if o.Status != orders.StatusCompleted {
			continue
		}
		if from != nil && o.OrderDate.Before(*from) {
			continue
		}
		if to != nil && o.OrderDate.After(*to) {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OrderDate.Equal(out[j].OrderDate) {
			return out[i].OrderDate.Before(out[j].OrderDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
