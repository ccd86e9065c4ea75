package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists products in PostgreSQL. Localized names are stored as a
// JSONB document.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ProductColumns is the column list ScanProduct expects.
const ProductColumns = `id, name, category_id, price, stock_quantity, created_at, updated_at`

// ScanProduct decodes a products row selected with ProductColumns.
func ScanProduct(row pgx.Row) (Product, error) {
	var (
		p   Product
		raw []byte
	)
	if err := row.Scan(&p.ID, &raw, &p.CategoryID, &p.Price, &p.StockQuantity, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	if err := json.Unmarshal(raw, &p.Name); err != nil {
		return Product{}, fmt.Errorf("catalog: decode name: %w", err)
	}
	return p, nil
}

// CreateProduct inserts a product.
func (r *Repository) CreateProduct(ctx context.Context, p Product) error {
	name, err := json.Marshal(p.Name)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO products (id, name, category_id, price, stock_quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, name, p.CategoryID, p.Price, p.StockQuantity, p.CreatedAt, p.UpdatedAt)
	return err
}

// GetProduct loads a product by id.
func (r *Repository) GetProduct(ctx context.Context, id string) (Product, error) {
	return ScanProduct(r.pool.QueryRow(ctx, `SELECT `+ProductColumns+` FROM products WHERE id = $1`, id))
}

// GetProducts loads every product whose id is in ids.
func (r *Repository) GetProducts(ctx context.Context, ids []string) ([]Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+ProductColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	return CollectProducts(rows)
}

// ListProducts lists products, optionally by category.
func (r *Repository) ListProducts(ctx context.Context, filter ListFilter, limit, offset int) ([]Product, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE ($1 = '' OR category_id = $1)`, filter.CategoryID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+ProductColumns+` FROM products
		WHERE ($1 = '' OR category_id = $1)
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`, filter.CategoryID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	products, err := CollectProducts(rows)
	return products, total, err
}

// UpdateProduct overwrites the mutable descriptive fields. Stock is untouched.
func (r *Repository) UpdateProduct(ctx context.Context, p Product) error {
	name, err := json.Marshal(p.Name)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `UPDATE products SET name = $2, category_id = $3, price = $4, updated_at = $5 WHERE id = $1`,
		p.ID, name, p.CategoryID, p.Price, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProduct removes a product.
func (r *Repository) DeleteProduct(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CollectProducts drains rows into products and closes them.
func CollectProducts(rows pgx.Rows) ([]Product, error) {
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := ScanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
