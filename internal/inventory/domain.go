package inventory

import (
	"fmt"

	"github.com/odyssey-erp/odyssey-commerce/internal/shared"
)

// Line is one requested product quantity.
type Line struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
}

var (
	// ErrInvalidQuantity indicates a non-positive line quantity.
	ErrInvalidQuantity = fmt.Errorf("%w: quantity must be a positive integer", shared.ErrInvalidInput)
	// ErrUnknownProduct indicates a line references a product that does not
	// exist. It is an input problem for the order, not a missing resource.
	ErrUnknownProduct = fmt.Errorf("%w: product not found", shared.ErrInvalidInput)
	// ErrInsufficientStock indicates current stock cannot satisfy a line.
	ErrInsufficientStock = shared.ErrInsufficientStock
	// ErrStockConflict indicates stock changed between check and commit.
	ErrStockConflict = fmt.Errorf("%w: stock changed concurrently, retry the order", shared.ErrConflict)
)

// Shortage describes a line that failed the availability check.
type Shortage struct {
	ProductID string
	Requested int
	Available int
}

func (s Shortage) Error() string {
	return fmt.Sprintf("product %s: requested %d, available %d", s.ProductID, s.Requested, s.Available)
}

func (s Shortage) Unwrap() error { return ErrInsufficientStock }
