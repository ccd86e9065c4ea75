package cashflow

import (
	"fmt"
	"time"

	"github.com/odyssey-erp/odyssey-commerce/internal/shared"
)

// Type is the direction of a cash movement.
type Type string

const (
	TypeInflow  Type = "inflow"
	TypeOutflow Type = "outflow"
)

// Valid reports whether t is a known direction.
func (t Type) Valid() bool {
	return t == TypeInflow || t == TypeOutflow
}

// Categories used by derived transactions.
const (
	CategoryProductSales = "product_sales"
	CategoryCOGS         = "cost_of_goods_sold"
	CategoryShipping     = "shipping_costs"
)

// Transaction is a single cash movement. Amount is unsigned; Type carries the
// direction.
type Transaction struct {
	ID          string    `json:"id"`
	Type        Type      `json:"type"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	OrderID     *string   `json:"orderId,omitempty"`
	Automated   bool      `json:"automated"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Filter narrows transaction listings.
type Filter struct {
	Type      Type
	Category  string
	Automated *bool
	From      *time.Time
	To        *time.Time
	Page      int
	Limit     int
}

// Totals are summed amounts per direction.
type Totals struct {
	Inflows  float64
	Outflows float64
}

// DailyTotal is the summed amount of one direction on one UTC calendar day.
type DailyTotal struct {
	Day    string
	Type   Type
	Amount float64
}

// CategoryTotal is the summed amount and count for a category and direction.
type CategoryTotal struct {
	Category string
	Type     Type
	Amount   float64
	Count    int
}

// Period echoes the resolved reporting window.
type Period struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Days      int       `json:"days"`
}

// Dashboard summarises cash movement inside a window plus the all-time balance.
type Dashboard struct {
	Period         Period  `json:"period"`
	TotalInflows   float64 `json:"totalInflows"`
	TotalOutflows  float64 `json:"totalOutflows"`
	NetCashFlow    float64 `json:"netCashFlow"`
	CurrentBalance float64 `json:"currentBalance"`
	CashBurnRate   float64 `json:"cashBurnRate"`
	// Runway is nil when nothing was spent in the window.
	Runway *int64 `json:"runway"`
}

// DailyFlow is one calendar day of history.
type DailyFlow struct {
	Date     string  `json:"date"`
	Inflows  float64 `json:"inflows"`
	Outflows float64 `json:"outflows"`
	NetFlow  float64 `json:"netFlow"`
}

// CategoryAmount is one row of a category breakdown.
type CategoryAmount struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Count    int     `json:"count"`
}

// CategoryBreakdown splits window totals by category per direction.
type CategoryBreakdown struct {
	Period        Period           `json:"period"`
	Inflows       []CategoryAmount `json:"inflows"`
	Outflows      []CategoryAmount `json:"outflows"`
	TotalInflows  float64          `json:"totalInflows"`
	TotalOutflows float64          `json:"totalOutflows"`
}

var (
	// ErrNotFound indicates the transaction does not exist.
	ErrNotFound = fmt.Errorf("transaction %w", shared.ErrNotFound)
	// ErrAutomatedReadOnly indicates an attempt to edit a derived transaction.
	ErrAutomatedReadOnly = fmt.Errorf("%w: automated transactions cannot be edited", shared.ErrInvalidInput)
)
