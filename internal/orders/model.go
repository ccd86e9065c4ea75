package orders

import (
	"fmt"
	"time"

	"github.com/odyssey-erp/odyssey-commerce/internal/catalog"
	"github.com/odyssey-erp/odyssey-commerce/internal/inventory"
	"github.com/odyssey-erp/odyssey-commerce/internal/shared"
	"github.com/odyssey-erp/odyssey-commerce/internal/users"
)

// Status enumerates the order lifecycle states.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	// StatusCompleted is the accounting terminal state. Moving an order here
	// triggers transaction derivation.
	StatusCompleted Status = "completed"
)

// Valid reports whether s is a recognised status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether s ends the lifecycle.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCompleted
}

// CanTransition reports whether an order may move from s to next. Any
// recognised status is reachable from a non-terminal one; delivered orders
// may only be completed and completed orders are final.
func (s Status) CanTransition(next Status) bool {
	if !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	switch s {
	case StatusCompleted:
		return false
	case StatusDelivered:
		return next == StatusCompleted
	}
	return true
}

// PaymentMethod enumerates accepted payment methods.
type PaymentMethod string

const (
	PaymentCash       PaymentMethod = "cash"
	PaymentCreditCard PaymentMethod = "credit_card"
	PaymentPayPal     PaymentMethod = "paypal"
)

// Valid reports whether m is accepted.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCreditCard, PaymentPayPal:
		return true
	}
	return false
}

// Order is a customer purchase. Its product lines are owned by the order.
type Order struct {
	ID            string           `json:"id"`
	UserID        string           `json:"userId"`
	Products      []inventory.Line `json:"products"`
	PaymentMethod PaymentMethod    `json:"paymentMethod"`
	Status        Status           `json:"status"`
	TotalPrice    float64          `json:"totalPrice"`
	OrderDate     time.Time        `json:"orderDate"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// ProductIDs returns the product ids referenced by the order lines.
func (o Order) ProductIDs() []string {
	ids := make([]string, 0, len(o.Products))
	for _, l := range o.Products {
		ids = append(ids, l.ProductID)
	}
	return ids
}

// LineView is an order line with its product resolved.
type LineView struct {
	ProductID string       `json:"productId"`
	Quantity  int          `json:"quantity"`
	Product   *catalog.Ref `json:"product,omitempty"`
}

// OrderView is an order with user and product references resolved.
type OrderView struct {
	ID            string        `json:"id"`
	User          *users.Ref    `json:"user,omitempty"`
	UserID        string        `json:"userId"`
	Products      []LineView    `json:"products"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Status        Status        `json:"status"`
	TotalPrice    float64       `json:"totalPrice"`
	OrderDate     time.Time     `json:"orderDate"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// ListFilter narrows order listings. An empty UserID lists every order.
type ListFilter struct {
	UserID string
	Status Status
	Page   int
	Limit  int
}

var (
	// ErrNotFound indicates the order does not exist or is not visible to the caller.
	ErrNotFound = fmt.Errorf("order %w", shared.ErrNotFound)
	// ErrInvalidStatus indicates an unknown status or a move out of a terminal state.
	ErrInvalidStatus = fmt.Errorf("%w: invalid status transition", shared.ErrInvalidInput)
	// ErrStatusChanged indicates the order moved while the update was in flight.
	ErrStatusChanged = fmt.Errorf("%w: order status changed concurrently", shared.ErrConflict)
)
