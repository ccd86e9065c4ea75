package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-commerce/internal/cashflow"
)

// TransactionRepository implements cashflow.Repository on the shared store.
// Sums are accumulated in decimal to match database aggregation.
type TransactionRepository struct {
	store *Store
}

func cloneTx(t cashflow.Transaction) cashflow.Transaction {
	if t.OrderID != nil {
		id := *t.OrderID
		t.OrderID = &id
	}
	return t
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}

func (r *TransactionRepository) Insert(_ context.Context, t cashflow.Transaction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.state.transactions[t.ID] = cloneTx(t)
	return nil
}

func (r *TransactionRepository) InsertBatch(_ context.Context, txs []cashflow.Transaction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, t := range txs {
		r.store.state.transactions[t.ID] = cloneTx(t)
	}
	return nil
}

func (r *TransactionRepository) Get(_ context.Context, id string) (cashflow.Transaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	t, ok := r.store.state.transactions[id]
	if !ok {
		return cashflow.Transaction{}, cashflow.ErrNotFound
	}
	return cloneTx(t), nil
}

func (r *TransactionRepository) matching(from, to *time.Time, keep func(cashflow.Transaction) bool) []cashflow.Transaction {
	var out []cashflow.Transaction
	for _, t := range r.store.state.transactions {
		if !inRange(t.Date, from, to) {
			continue
		}
		if keep != nil && !keep(t) {
			continue
		}
		out = append(out, cloneTx(t))
	}
	return out
}

func (r *TransactionRepository) List(_ context.Context, f cashflow.Filter, limit, offset int) ([]cashflow.Transaction, int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	all := r.matching(f.From, f.To, func(t cashflow.Transaction) bool {
		if f.Type != "" && t.Type != f.Type {
			return false
		}
		if f.Category != "" && t.Category != f.Category {
			return false
		}
		return f.Automated == nil || t.Automated == *f.Automated
	})
	sort.Slice(all, func(i, j int) bool {
		if !all[i].Date.Equal(all[j].Date) {
			return all[i].Date.After(all[j].Date)
		}
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	return page(all, limit, offset), len(all), nil
}

func (r *TransactionRepository) Update(_ context.Context, t cashflow.Transaction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cur, ok := r.store.state.transactions[t.ID]
	if !ok || cur.Automated {
		return cashflow.ErrNotFound
	}
	t.Automated = false
	t.OrderID = cur.OrderID
	t.CreatedAt = cur.CreatedAt
	r.store.state.transactions[t.ID] = cloneTx(t)
	return nil
}

func (r *TransactionRepository) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.state.transactions[id]; !ok {
		return cashflow.ErrNotFound
	}
	delete(r.store.state.transactions, id)
	return nil
}

func (r *TransactionRepository) ExistsForOrder(_ context.Context, orderID string) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, t := range r.store.state.transactions {
		if t.OrderID != nil && *t.OrderID == orderID {
			return true, nil
		}
	}
	return false, nil
}

// Count returns the number of stored transactions.
func (r *TransactionRepository) Count() int {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return len(r.store.state.transactions)
}

func (r *TransactionRepository) SumByType(_ context.Context, from, to *time.Time) (cashflow.Totals, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	in, out := decimal.Zero, decimal.Zero
	for _, t := range r.matching(from, to, nil) {
		switch t.Type {
		case cashflow.TypeInflow:
			in = in.Add(decimal.NewFromFloat(t.Amount))
		case cashflow.TypeOutflow:
			out = out.Add(decimal.NewFromFloat(t.Amount))
		}
	}
	return cashflow.Totals{Inflows: in.InexactFloat64(), Outflows: out.InexactFloat64()}, nil
}

func (r *TransactionRepository) DailyTotals(_ context.Context, from, to time.Time) ([]cashflow.DailyTotal, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	type key struct {
		day string
		typ cashflow.Type
	}
	sums := map[key]decimal.Decimal{}
	for _, t := range r.matching(&from, &to, nil) {
		k := key{day: t.Date.UTC().Format("2006-01-02"), typ: t.Type}
		sums[k] = sums[k].Add(decimal.NewFromFloat(t.Amount))
	}
	out := make([]cashflow.DailyTotal, 0, len(sums))
	for k, v := range sums {
		out = append(out, cashflow.DailyTotal{Day: k.day, Type: k.typ, Amount: v.InexactFloat64()})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].Type < out[j].Type
	})
	return out, nil
}

func (r *TransactionRepository) CategoryTotals(_ context.Context, from, to time.Time) ([]cashflow.CategoryTotal, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	type key struct {
		category string
		typ      cashflow.Type
	}
	sums := map[key]decimal.Decimal{}
	counts := map[key]int{}
	for _, t := range r.matching(&from, &to, nil) {
		k := key{category: t.Category, typ: t.Type}
		sums[k] = sums[k].Add(decimal.NewFromFloat(t.Amount))
		counts[k]++
	}
	out := make([]cashflow.CategoryTotal, 0, len(sums))
	for k, v := range sums {
		out = append(out, cashflow.CategoryTotal{Category: k.category, Type: k.typ, Amount: v.InexactFloat64(), Count: counts[k]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

func (r *TransactionRepository) Each(_ context.Context, from, to time.Time, fn func(cashflow.Transaction) error) error {
	r.store.mu.RLock()
	all := r.matching(&from, &to, nil)
	r.store.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool {
		if !all[i].Date.Equal(all[j].Date) {
			return all[i].Date.Before(all[j].Date)
		}
		return all[i].ID < all[j].ID
	})
	for _, t := range all {
		if err := fn(t); err != nil {
			return err
		}
	}
	return nil
}
