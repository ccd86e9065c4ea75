package hr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/odyssey-commerce/internal/rbac"
	"github.com/odyssey-erp/odyssey-commerce/internal/shared"
)

// Service manages employee records.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService builds Service.
func NewService(store Store) *Service {
	return &Service{store: store, now: func() time.Time { return time.Now().UTC() }}
}

func authorize(caller shared.Principal) error {
	return rbac.RequireAnyRole(caller, shared.RoleAdmin, shared.RoleHR)
}

func validSalary(s Salary) error {
	switch s.Frequency {
	case PayYearly, PayMonthly, PayHourly:
	default:
		return fmt.Errorf("%w: unknown pay frequency %q", shared.ErrInvalidInput, s.Frequency)
	}
	if s.Amount < 0 {
		return fmt.Errorf("%w: salary must be non-negative", shared.ErrInvalidInput)
	}
	return nil
}

// Create adds an employee. New employees are active unless stated otherwise.
func (s *Service) Create(ctx context.Context, caller shared.Principal, req CreateEmployeeRequest) (Employee, error) {
	if err := authorize(caller); err != nil {
		return Employee{}, err
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Department) == "" {
		return Employee{}, fmt.Errorf("%w: name and department are required", shared.ErrInvalidInput)
	}
	if err := validSalary(req.Salary); err != nil {
		return Employee{}, err
	}
	if req.ManagerID != nil {
		if _, err := s.store.GetEmployee(ctx, *req.ManagerID); err != nil {
			return Employee{}, fmt.Errorf("%w: manager %s not found", shared.ErrInvalidInput, *req.ManagerID)
		}
	}
	status := req.Status
	if status == "" {
		status = StatusActive
	}
	now := s.now()
	e := Employee{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(req.Name),
		Email:          req.Email,
		Department:     strings.TrimSpace(req.Department),
		Position:       req.Position,
		EmploymentType: req.EmploymentType,
		Salary:         req.Salary,
		Status:         status,
		StartDate:      req.StartDate.UTC(),
		ManagerID:      req.ManagerID,
		Reviews:        []Review{},
		LeaveBalances:  req.LeaveBalances,
		Documents:      nonNil(req.Documents),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if e.LeaveBalances == nil {
		e.LeaveBalances = map[string]float64{}
	}
	if err := s.store.CreateEmployee(ctx, e); err != nil {
		return Employee{}, fmt.Errorf("create employee: %w", err)
	}
	return e, nil
}

// Get returns one employee.
func (s *Service) Get(ctx context.Context, caller shared.Principal, id string) (Employee, error) {
	if err := authorize(caller); err != nil {
		return Employee{}, err
	}
	return s.store.GetEmployee(ctx, id)
}

// List pages employees.
func (s *Service) List(ctx context.Context, caller shared.Principal, f ListFilter) ([]Employee, shared.Pagination, error) {
	if err := authorize(caller); err != nil {
		return nil, shared.Pagination{}, err
	}
	page, limit := shared.NormalizePage(f.Page, f.Limit)
	out, total, err := s.store.ListEmployees(ctx, f, limit, (page-1)*limit)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return nonNil(out), shared.NewPagination(page, limit, total), nil
}

// Update applies the provided changes.
func (s *Service) Update(ctx context.Context, caller shared.Principal, id string, req UpdateEmployeeRequest) (Employee, error) {
	if err := authorize(caller); err != nil {
		return Employee{}, err
	}
	e, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return Employee{}, err
	}
	if req.Name != nil {
		e.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		e.Email = *req.Email
	}
	if req.Department != nil {
		e.Department = strings.TrimSpace(*req.Department)
	}
	if req.Position != nil {
		e.Position = *req.Position
	}
	if req.EmploymentType != nil {
		e.EmploymentType = *req.EmploymentType
	}
	if req.Salary != nil {
		if err := validSalary(*req.Salary); err != nil {
			return Employee{}, err
		}
		e.Salary = *req.Salary
	}
	if req.Status != nil {
		e.Status = *req.Status
	}
	if req.ManagerID != nil {
		if *req.ManagerID == e.ID {
			return Employee{}, fmt.Errorf("%w: an employee cannot manage themselves", shared.ErrInvalidInput)
		}
		if _, err := s.store.GetEmployee(ctx, *req.ManagerID); err != nil {
			return Employee{}, fmt.Errorf("%w: manager %s not found", shared.ErrInvalidInput, *req.ManagerID)
		}
		e.ManagerID = req.ManagerID
	}
	for kind, days := range req.LeaveBalances {
		if e.LeaveBalances == nil {
			e.LeaveBalances = map[string]float64{}
		}
		e.LeaveBalances[kind] = days
	}
	e.UpdatedAt = s.now()
	if err := s.store.UpdateEmployee(ctx, e); err != nil {
		return Employee{}, err
	}
	return e, nil
}

// AddReview appends a performance review.
func (s *Service) AddReview(ctx context.Context, caller shared.Principal, id string, review Review) (Employee, error) {
	if err := authorize(caller); err != nil {
		return Employee{}, err
	}
	if review.Rating < 1 || review.Rating > 5 {
		return Employee{}, fmt.Errorf("%w: rating must be between 1 and 5", shared.ErrInvalidInput)
	}
	e, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return Employee{}, err
	}
	if review.Date.IsZero() {
		review.Date = s.now()
	}
	if review.Reviewer == "" {
		review.Reviewer = caller.ID
	}
	e.Reviews = append(e.Reviews, review)
	e.UpdatedAt = s.now()
	if err := s.store.UpdateEmployee(ctx, e); err != nil {
		return Employee{}, err
	}
	return e, nil
}

// Delete removes an employee.
func (s *Service) Delete(ctx context.Context, caller shared.Principal, id string) error {
	if err := authorize(caller); err != nil {
		return err
	}
	return s.store.DeleteEmployee(ctx, id)
}

// Stats groups headcount and annualised payroll.
func (s *Service) Stats(ctx context.Context, caller shared.Principal) (Stats, error) {
	if err := authorize(caller); err != nil {
		return Stats{}, err
	}
	var st Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		st.ByDepartment, err = s.store.CountBy(gctx, ByDepartment)
		return err
	})
	g.Go(func() (err error) {
		st.ByEmploymentType, err = s.store.CountBy(gctx, ByEmploymentType)
		return err
	})
	g.Go(func() (err error) {
		st.ByStatus, err = s.store.CountBy(gctx, ByStatus)
		return err
	})
	g.Go(func() (err error) {
		st.SalaryCost, err = s.store.SalaryByDepartment(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, fmt.Errorf("employee stats: %w", err)
	}
	st.ByDepartment = nonNil(st.ByDepartment)
	st.ByEmploymentType = nonNil(st.ByEmploymentType)
	st.ByStatus = nonNil(st.ByStatus)
	st.SalaryCost = nonNil(st.SalaryCost)
	for _, c := range st.ByStatus {
		st.Total += c.Count
	}
	for i := range st.SalaryCost {
		st.SalaryCost[i].Total = decimal.NewFromFloat(st.SalaryCost[i].Total).Round(2).InexactFloat64()
		st.SalaryCost[i].Average = decimal.NewFromFloat(st.SalaryCost[i].Average).Round(2).InexactFloat64()
	}
	return st, nil
}
