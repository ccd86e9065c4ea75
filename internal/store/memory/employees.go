package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-commerce/internal/hr"
)

func cloneEmployee(e hr.Employee) hr.Employee {
	e.Reviews = append([]hr.Review{}, e.Reviews...)
	e.Documents = append([]hr.Document{}, e.Documents...)
	leaves := make(map[string]float64, len(e.LeaveBalances))
	for k, v := range e.LeaveBalances {
		leaves[k] = v
	}
	e.LeaveBalances = leaves
	if e.ManagerID != nil {
		id := *e.ManagerID
		e.ManagerID = &id
	}
	return e
}

// CreateEmployee implements hr.Store.
func (s *Store) CreateEmployee(_ context.Context, e hr.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.employees[e.ID] = cloneEmployee(e)
	return nil
}

// GetEmployee implements hr.Store.
func (s *Store) GetEmployee(_ context.Context, id string) (hr.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.state.employees[id]
	if !ok {
		return hr.Employee{}, hr.ErrNotFound
	}
	return cloneEmployee(e), nil
}

// ListEmployees implements hr.Store.
func (s *Store) ListEmployees(_ context.Context, f hr.ListFilter, limit, offset int) ([]hr.Employee, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []hr.Employee
	for _, e := range s.state.employees {
		if f.Department != "" && e.Department != f.Department {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		all = append(all, cloneEmployee(e))
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].ID < all[j].ID
	})
	return page(all, limit, offset), len(all), nil
}

// UpdateEmployee implements hr.Store.
func (s *Store) UpdateEmployee(_ context.Context, e hr.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.state.employees[e.ID]
	if !ok {
		return hr.ErrNotFound
	}
	e.CreatedAt = cur.CreatedAt
	e.StartDate = cur.StartDate
	s.state.employees[e.ID] = cloneEmployee(e)
	return nil
}

// DeleteEmployee implements hr.Store.
func (s *Store) DeleteEmployee(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.employees[id]; !ok {
		return hr.ErrNotFound
	}
	delete(s.state.employees, id)
	return nil
}

// CountBy implements hr.Store.
func (s *Store) CountBy(_ context.Context, dim hr.Dimension) ([]hr.Count, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := map[string]int{}
	for _, e := range s.state.employees {
		var key string
		switch dim {
		case hr.ByDepartment:
			key = e.Department
		case hr.ByEmploymentType:
			key = string(e.EmploymentType)
		case hr.ByStatus:
			key = string(e.Status)
		}
		counts[key]++
	}
	out := make([]hr.Count, 0, len(counts))
	for k, v := range counts {
		out = append(out, hr.Count{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

// SalaryByDepartment implements hr.Store.
func (s *Store) SalaryByDepartment(_ context.Context) ([]hr.SalaryCost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	totals := map[string]decimal.Decimal{}
	heads := map[string]int{}
	for _, e := range s.state.employees {
		totals[e.Department] = totals[e.Department].Add(decimal.NewFromFloat(e.Salary.Annualized()))
		heads[e.Department]++
	}
	out := make([]hr.SalaryCost, 0, len(totals))
	for dept, total := range totals {
		c := hr.SalaryCost{Department: dept, Total: total.InexactFloat64(), Headcount: heads[dept]}
		c.Average = total.Div(decimal.NewFromInt(int64(heads[dept]))).InexactFloat64()
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Department < out[j].Department
	})
	return out, nil
}
