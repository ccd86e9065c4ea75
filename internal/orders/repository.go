package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-commerce/internal/inventory"
	"github.com/odyssey-erp/odyssey-commerce/internal/platform/db"
)

// Repository is the persistence contract for orders.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id string) (Order, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]Order, int, error)
	UpdateStatus(ctx context.Context, id string, from, to Status) (Order, error)
	Delete(ctx context.Context, id, ownerID string) error
	ListCompleted(ctx context.Context, from, to *time.Time) ([]Order, error)
}

// TxRepository is the view of the store available inside WithTx. Stock
// decrements and the order insert commit or roll back together.
type TxRepository interface {
	inventory.StockWriter
	Insert(ctx context.Context, order Order) error
}

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

type txRepository struct {
	inventory.StockWriterSQL
	db db.DBTX
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{StockWriterSQL: inventory.NewStockWriter(tx), db: tx})
	})
}

func (r *txRepository) Insert(ctx context.Context, o Order) error {
	lines, err := json.Marshal(o.Products)
	if err != nil {
		return fmt.Errorf("orders: encode lines: %w", err)
	}
	_, err = r.db.Exec(ctx, `INSERT INTO orders (id, user_id, products, payment_method, status, total_price, order_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		o.ID, o.UserID, lines, o.PaymentMethod, o.Status, o.TotalPrice, o.OrderDate, o.CreatedAt, o.UpdatedAt)
	return err
}

const orderColumns = `id, user_id, products, payment_method, status, total_price, order_date, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o   Order
		raw []byte
	)
	err := row.Scan(&o.ID, &o.UserID, &raw, &o.PaymentMethod, &o.Status, &o.TotalPrice, &o.OrderDate, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	if err := json.Unmarshal(raw, &o.Products); err != nil {
		return Order{}, fmt.Errorf("orders: decode lines: %w", err)
	}
	return o, nil
}

func collectOrders(rows pgx.Rows) ([]Order, error) {
	defer rows.Close()
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id string) (Order, error) {
	return scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
}

func (r *repository) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Order, int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders
		WHERE ($1 = '' OR user_id = $1) AND ($2 = '' OR status = $2)`,
		filter.UserID, string(filter.Status)).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE ($1 = '' OR user_id = $1) AND ($2 = '' OR status = $2)
		ORDER BY order_date DESC, id
		LIMIT $3 OFFSET $4`, filter.UserID, string(filter.Status), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	out, err := collectOrders(rows)
	return out, total, err
}

// UpdateStatus moves the order only while it is still in from.
func (r *repository) UpdateStatus(ctx context.Context, id string, from, to Status) (Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `UPDATE orders SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
		RETURNING `+orderColumns, id, from, to, time.Now().UTC()))
	if errors.Is(err, ErrNotFound) {
		return Order{}, ErrStatusChanged
	}
	return o, err
}

func (r *repository) Delete(ctx context.Context, id, ownerID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id = $1 AND ($2 = '' OR user_id = $2)`, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ListCompleted(ctx context.Context, from, to *time.Time) ([]Order, error) {
	rows, err := r.db.Query(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE status = $1
		  AND ($2::timestamptz IS NULL OR order_date >= $2)
		  AND ($3::timestamptz IS NULL OR order_date <= $3)
		ORDER BY order_date, id`, StatusCompleted, from, to)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}
