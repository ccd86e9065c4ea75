package hr

import "time"

// CreateEmployeeRequest is the body of POST /employees.
type CreateEmployeeRequest struct {
	Name           string             `json:"name" validate:"required,max=200"`
	Email          string             `json:"email" validate:"omitempty,email"`
	Department     string             `json:"department" validate:"required,max=100"`
	Position       string             `json:"position" validate:"max=100"`
	EmploymentType EmploymentType     `json:"employmentType" validate:"required,oneof=full_time part_time contract intern temporary"`
	Salary         Salary             `json:"salary"`
	Status         Status             `json:"status" validate:"omitempty,oneof=active inactive"`
	StartDate      time.Time          `json:"startDate" validate:"required"`
	ManagerID      *string            `json:"managerId,omitempty"`
	LeaveBalances  map[string]float64 `json:"leaveBalances,omitempty"`
	Documents      []Document         `json:"documents,omitempty" validate:"omitempty,dive"`
}

// UpdateEmployeeRequest carries optional changes.
type UpdateEmployeeRequest struct {
	Name           *string            `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Email          *string            `json:"email,omitempty" validate:"omitempty,email"`
	Department     *string            `json:"department,omitempty" validate:"omitempty,min=1,max=100"`
	Position       *string            `json:"position,omitempty" validate:"omitempty,max=100"`
	EmploymentType *EmploymentType    `json:"employmentType,omitempty" validate:"omitempty,oneof=full_time part_time contract intern temporary"`
	Salary         *Salary            `json:"salary,omitempty"`
	Status         *Status            `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
	ManagerID      *string            `json:"managerId,omitempty"`
	LeaveBalances  map[string]float64 `json:"leaveBalances,omitempty"`
}
