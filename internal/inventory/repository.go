package inventory

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-commerce/internal/catalog"
	"github.com/odyssey-erp/odyssey-commerce/internal/platform/db"
)

// Repository implements Store on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// IncrementStock adds qty to a product's stock and returns the updated row.
func (r *Repository) IncrementStock(ctx context.Context, productID string, qty int) (catalog.Product, error) {
	return catalog.ScanProduct(r.pool.QueryRow(ctx, `UPDATE products
		SET stock_quantity = stock_quantity + $2, updated_at = $3
		WHERE id = $1
		RETURNING `+catalog.ProductColumns, productID, qty, time.Now().UTC()))
}

// ListLowStock returns products below threshold, scarcest first.
func (r *Repository) ListLowStock(ctx context.Context, threshold int) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+catalog.ProductColumns+` FROM products
		WHERE stock_quantity < $1
		ORDER BY stock_quantity, id`, threshold)
	if err != nil {
		return nil, err
	}
	return catalog.CollectProducts(rows)
}

// StockWriterSQL performs conditional decrements on any connection or open
// transaction.
type StockWriterSQL struct {
	db db.DBTX
}

// NewStockWriter binds a StockWriterSQL to conn.
func NewStockWriter(conn db.DBTX) StockWriterSQL {
	return StockWriterSQL{db: conn}
}

// DecrementStock subtracts qty only while enough stock remains.
func (w StockWriterSQL) DecrementStock(ctx context.Context, productID string, qty int) (bool, error) {
	tag, err := w.db.Exec(ctx, `UPDATE products
		SET stock_quantity = stock_quantity - $2, updated_at = NOW()
		WHERE id = $1 AND stock_quantity >= $2`, productID, qty)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
