package orders

import (
	"time"

	"github.com/odyssey-erp/odyssey-commerce/internal/inventory"
)

// CreateOrderRequest is the body of POST /orders.
type CreateOrderRequest struct {
	Products      []inventory.Line `json:"products" validate:"required,min=1,dive"`
	PaymentMethod PaymentMethod    `json:"paymentMethod" validate:"required,oneof=cash credit_card paypal"`
	TotalPrice    float64          `json:"totalPrice" validate:"gt=0"`
	Status        Status           `json:"status,omitempty" validate:"omitempty,oneof=pending processing"`
	OrderDate     *time.Time       `json:"orderDate,omitempty"`
}

// UpdateStatusRequest is the body of PUT /orders/{id}.
type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required"`
}
