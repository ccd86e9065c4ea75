package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/odyssey-erp/odyssey-commerce/internal/catalog"
)

// StockReader loads the product a line refers to.
type StockReader interface {
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
}

// StockWriter applies a conditional decrement. It reports false when the
// stored quantity was already below qty at write time.
type StockWriter interface {
	DecrementStock(ctx context.Context, productID string, qty int) (bool, error)
}

// Reserver validates and commits stock reservations for order lines.
type Reserver struct {
	reader StockReader
}

// NewReserver constructs Reserver.
func NewReserver(reader StockReader) *Reserver {
	return &Reserver{reader: reader}
}

// ValidateLines checks the shape of lines without touching stock.
func ValidateLines(lines []Line) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: at least one product line is required", ErrInvalidQuantity)
	}
	for i, line := range lines {
		if line.ProductID == "" {
			return fmt.Errorf("%w: line %d has no product", ErrUnknownProduct, i+1)
		}
		if line.Quantity < 1 {
			return fmt.Errorf("line %d: %w", i+1, ErrInvalidQuantity)
		}
	}
	return nil
}

// Check runs the availability pass over every line in request order. No
// stock is mutated and no lock is held afterwards.
func (r *Reserver) Check(ctx context.Context, lines []Line) ([]catalog.Product, error) {
	if err := ValidateLines(lines); err != nil {
		return nil, err
	}
	products := make([]catalog.Product, 0, len(lines))
	for _, line := range lines {
		p, err := r.reader.GetProduct(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, line.ProductID)
			}
			return nil, err
		}
		if p.StockQuantity < line.Quantity {
			return nil, Shortage{ProductID: p.ID, Requested: line.Quantity, Available: p.StockQuantity}
		}
		products = append(products, p)
	}
	return products, nil
}

// Commit performs the conditional decrement for each line through w. Callers
// run it inside a transaction so a conflicting line rolls back the lines
// already applied.
func (r *Reserver) Commit(ctx context.Context, w StockWriter, lines []Line) error {
	for _, line := range lines {
		ok, err := w.DecrementStock(ctx, line.ProductID, line.Quantity)
		if err != nil {
			return fmt.Errorf("inventory: decrement %s: %w", line.ProductID, err)
		}
		if !ok {
			return fmt.Errorf("%w: product %s", ErrStockConflict, line.ProductID)
		}
	}
	return nil
}
