package hr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Dimension names a column employees can be grouped by.
type Dimension string

const (
	ByDepartment     Dimension = "department"
	ByEmploymentType Dimension = "employment_type"
	ByStatus         Dimension = "status"
)

// Store is the persistence contract for employees.
type Store interface {
	CreateEmployee(ctx context.Context, e Employee) error
	GetEmployee(ctx context.Context, id string) (Employee, error)
	ListEmployees(ctx context.Context, filter ListFilter, limit, offset int) ([]Employee, int, error)
	UpdateEmployee(ctx context.Context, e Employee) error
	DeleteEmployee(ctx context.Context, id string) error
	CountBy(ctx context.Context, dim Dimension) ([]Count, error)
	SalaryByDepartment(ctx context.Context) ([]SalaryCost, error)
}

// Repository implements Store on PostgreSQL. Salary, reviews, leave balances
// and documents are JSONB sub-documents.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const employeeColumns = `id, name, email, department, position, employment_type, salary, status, start_date,
	manager_id, reviews, leave_balances, documents, created_at, updated_at`

func scanEmployee(row pgx.Row) (Employee, error) {
	var (
		e                                  Employee
		salary, reviews, leaves, documents []byte
	)
	err := row.Scan(&e.ID, &e.Name, &e.Email, &e.Department, &e.Position, &e.EmploymentType, &salary, &e.Status,
		&e.StartDate, &e.ManagerID, &reviews, &leaves, &documents, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Employee{}, ErrNotFound
		}
		return Employee{}, err
	}
	for _, doc := range []struct {
		raw  []byte
		dest any
	}{{salary, &e.Salary}, {reviews, &e.Reviews}, {leaves, &e.LeaveBalances}, {documents, &e.Documents}} {
		if err := json.Unmarshal(doc.raw, doc.dest); err != nil {
			return Employee{}, fmt.Errorf("hr: decode employee %s: %w", e.ID, err)
		}
	}
	return e, nil
}

func documents(e Employee) (salary, reviews, leaves, docs []byte, err error) {
	if salary, err = json.Marshal(e.Salary); err != nil {
		return
	}
	if reviews, err = json.Marshal(nonNil(e.Reviews)); err != nil {
		return
	}
	if e.LeaveBalances == nil {
		e.LeaveBalances = map[string]float64{}
	}
	if leaves, err = json.Marshal(e.LeaveBalances); err != nil {
		return
	}
	docs, err = json.Marshal(nonNil(e.Documents))
	return
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

// CreateEmployee inserts e.
func (r *Repository) CreateEmployee(ctx context.Context, e Employee) error {
	salary, reviews, leaves, docs, err := documents(e)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO employees (`+employeeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		e.ID, e.Name, e.Email, e.Department, e.Position, e.EmploymentType, salary, e.Status, e.StartDate,
		e.ManagerID, reviews, leaves, docs, e.CreatedAt, e.UpdatedAt)
	return err
}

// GetEmployee loads one employee.
func (r *Repository) GetEmployee(ctx context.Context, id string) (Employee, error) {
	return scanEmployee(r.pool.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id))
}

// ListEmployees pages employees by name.
func (r *Repository) ListEmployees(ctx context.Context, f ListFilter, limit, offset int) ([]Employee, int, error) {
	const where = `WHERE ($1 = '' OR department = $1) AND ($2 = '' OR status = $2)`
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM employees `+where, f.Department, string(f.Status)).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+employeeColumns+` FROM employees `+where+`
		ORDER BY name, id LIMIT $3 OFFSET $4`, f.Department, string(f.Status), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

// UpdateEmployee overwrites every mutable field of e.
func (r *Repository) UpdateEmployee(ctx context.Context, e Employee) error {
	salary, reviews, leaves, docs, err := documents(e)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `UPDATE employees SET name = $2, email = $3, department = $4, position = $5,
		employment_type = $6, salary = $7, status = $8, manager_id = $9, reviews = $10, leave_balances = $11,
		documents = $12, updated_at = $13
		WHERE id = $1`,
		e.ID, e.Name, e.Email, e.Department, e.Position, e.EmploymentType, salary, e.Status, e.ManagerID,
		reviews, leaves, docs, e.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteEmployee removes an employee.
func (r *Repository) DeleteEmployee(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountBy groups headcount by dim.
func (r *Repository) CountBy(ctx context.Context, dim Dimension) ([]Count, error) {
	switch dim {
	case ByDepartment, ByEmploymentType, ByStatus:
	default:
		return nil, fmt.Errorf("hr: unknown dimension %q", dim)
	}
	rows, err := r.pool.Query(ctx, `SELECT `+string(dim)+`, COUNT(*) FROM employees GROUP BY 1 ORDER BY 2 DESC, 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Count
	for rows.Next() {
		var c Count
		if err := rows.Scan(&c.Key, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SalaryByDepartment sums annualised salary per department.
func (r *Repository) SalaryByDepartment(ctx context.Context) ([]SalaryCost, error) {
	rows, err := r.pool.Query(ctx, `SELECT department,
			SUM(CASE salary->>'frequency'
				WHEN 'hourly' THEN (salary->>'amount')::float8 * $1
				ELSE (salary->>'amount')::float8 END),
			COUNT(*)
		FROM employees
		GROUP BY department
		ORDER BY 2 DESC, department`, HoursPerYear)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SalaryCost
	for rows.Next() {
		var c SalaryCost
		if err := rows.Scan(&c.Department, &c.Total, &c.Headcount); err != nil {
			return nil, err
		}
		if c.Headcount > 0 {
			c.Average = c.Total / float64(c.Headcount)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
