package hr

import (
	"fmt"
	"time"

	"github.com/odyssey-erp/odyssey-commerce/internal/shared"
)

// EmploymentType enumerates contract kinds.
type EmploymentType string

const (
	EmploymentFullTime  EmploymentType = "full_time"
	EmploymentPartTime  EmploymentType = "part_time"
	EmploymentContract  EmploymentType = "contract"
	EmploymentIntern    EmploymentType = "intern"
	EmploymentTemporary EmploymentType = "temporary"
)

// Status enumerates employment states.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// PayFrequency enumerates salary bases.
type PayFrequency string

const (
	PayYearly  PayFrequency = "yearly"
	PayMonthly PayFrequency = "monthly"
	PayHourly  PayFrequency = "hourly"
)

// HoursPerYear converts hourly pay into an annual figure.
const HoursPerYear = 2080

// Salary is a pay amount with its basis.
type Salary struct {
	Amount    float64      `json:"amount" validate:"gte=0"`
	Frequency PayFrequency `json:"frequency" validate:"required"`
}

// Annualized returns the yearly cost. Frequencies other than yearly and
// hourly count as their raw amount.
func (s Salary) Annualized() float64 {
	switch s.Frequency {
	case PayHourly:
		return s.Amount * HoursPerYear
	default:
		return s.Amount
	}
}

// Review is one performance review.
type Review struct {
	Date     time.Time `json:"date"`
	Reviewer string    `json:"reviewer"`
	Rating   int       `json:"rating" validate:"gte=1,lte=5"`
	Comments string    `json:"comments,omitempty"`
}

// Document is metadata about a stored HR file. Upload handling lives elsewhere.
type Document struct {
	Name       string    `json:"name" validate:"required"`
	URL        string    `json:"url" validate:"required"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Employee is an HR record.
type Employee struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Email          string             `json:"email"`
	Department     string             `json:"department"`
	Position       string             `json:"position"`
	EmploymentType EmploymentType     `json:"employmentType"`
	Salary         Salary             `json:"salary"`
	Status         Status             `json:"status"`
	StartDate      time.Time          `json:"startDate"`
	ManagerID      *string            `json:"managerId,omitempty"`
	Reviews        []Review           `json:"performanceReviews"`
	LeaveBalances  map[string]float64 `json:"leaveBalances"`
	Documents      []Document         `json:"documents"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// ListFilter narrows employee listings.
type ListFilter struct {
	Department string
	Status     Status
	Page       int
	Limit      int
}

// Count is a grouped headcount.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// SalaryCost is annualised payroll for one department.
type SalaryCost struct {
	Department string  `json:"department"`
	Total      float64 `json:"totalAnnualSalary"`
	Average    float64 `json:"averageAnnualSalary"`
	Headcount  int     `json:"headcount"`
}

// Stats is the HR headcount and payroll summary.
type Stats struct {
	Total            int          `json:"totalEmployees"`
	ByDepartment     []Count      `json:"byDepartment"`
	ByEmploymentType []Count      `json:"byEmploymentType"`
	ByStatus         []Count      `json:"byStatus"`
	SalaryCost       []SalaryCost `json:"salaryByDepartment"`
}

// ErrNotFound indicates the employee does not exist.
var ErrNotFound = fmt.Errorf("employee %w", shared.ErrNotFound)
