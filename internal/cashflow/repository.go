package cashflow

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-commerce/internal/platform/db"
)

// Repository is the persistence and aggregation contract for transactions.
type Repository interface {
	Insert(ctx context.Context, tx Transaction) error
	// InsertBatch stores every transaction or none.
	InsertBatch(ctx context.Context, txs []Transaction) error
	Get(ctx context.Context, id string) (Transaction, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]Transaction, int, error)
	Update(ctx context.Context, tx Transaction) error
	Delete(ctx context.Context, id string) error
	ExistsForOrder(ctx context.Context, orderID string) (bool, error)
	// SumByType sums amounts per direction; nil bounds are open.
	SumByType(ctx context.Context, from, to *time.Time) (Totals, error)
	DailyTotals(ctx context.Context, from, to time.Time) ([]DailyTotal, error)
	CategoryTotals(ctx context.Context, from, to time.Time) ([]CategoryTotal, error)
	// Each calls fn for every transaction in the window, oldest first.
	Each(ctx context.Context, from, to time.Time, fn func(Transaction) error) error
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const txColumns = `id, type, category, amount, description, date, order_id, automated, created_at, updated_at`

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.Type, &t.Category, &t.Amount, &t.Description, &t.Date, &t.OrderID, &t.Automated, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrNotFound
	}
	return t, err
}

const insertTx = `INSERT INTO cash_flow_transactions (` + txColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

func insertArgs(t Transaction) []any {
	return []any{t.ID, t.Type, t.Category, t.Amount, t.Description, t.Date, t.OrderID, t.Automated, t.CreatedAt, t.UpdatedAt}
}

func (r *pgRepository) Insert(ctx context.Context, t Transaction) error {
	_, err := r.pool.Exec(ctx, insertTx, insertArgs(t)...)
	return err
}

func (r *pgRepository) InsertBatch(ctx context.Context, txs []Transaction) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, t := range txs {
			batch.Queue(insertTx, insertArgs(t)...)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

func (r *pgRepository) Get(ctx context.Context, id string) (Transaction, error) {
	return scanTransaction(r.pool.QueryRow(ctx, `SELECT `+txColumns+` FROM cash_flow_transactions WHERE id = $1`, id))
}

const listWhere = `WHERE ($1 = '' OR type = $1)
	  AND ($2 = '' OR category = $2)
	  AND ($3::boolean IS NULL OR automated = $3)
	  AND ($4::timestamptz IS NULL OR date >= $4)
	  AND ($5::timestamptz IS NULL OR date <= $5)`

func (r *pgRepository) List(ctx context.Context, f Filter, limit, offset int) ([]Transaction, int, error) {
	args := []any{string(f.Type), f.Category, f.Automated, f.From, f.To}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cash_flow_transactions `+listWhere, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+txColumns+` FROM cash_flow_transactions `+listWhere+`
		ORDER BY date DESC, created_at DESC, id
		LIMIT $6 OFFSET $7`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

func (r *pgRepository) Update(ctx context.Context, t Transaction) error {
	tag, err := r.pool.Exec(ctx, `UPDATE cash_flow_transactions
		SET type = $2, category = $3, amount = $4, description = $5, date = $6, updated_at = $7
		WHERE id = $1 AND automated = FALSE`,
		t.ID, t.Type, t.Category, t.Amount, t.Description, t.Date, t.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cash_flow_transactions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRepository) ExistsForOrder(ctx context.Context, orderID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cash_flow_transactions WHERE order_id = $1)`, orderID).Scan(&exists)
	return exists, err
}

func (r *pgRepository) SumByType(ctx context.Context, from, to *time.Time) (Totals, error) {
	var t Totals
	err := r.pool.QueryRow(ctx, `SELECT
			COALESCE(SUM(amount) FILTER (WHERE type = 'inflow'), 0),
			COALESCE(SUM(amount) FILTER (WHERE type = 'outflow'), 0)
		FROM cash_flow_transactions
		WHERE ($1::timestamptz IS NULL OR date >= $1)
		  AND ($2::timestamptz IS NULL OR date <= $2)`, from, to).Scan(&t.Inflows, &t.Outflows)
	return t, err
}

func (r *pgRepository) DailyTotals(ctx context.Context, from, to time.Time) ([]DailyTotal, error) {
	rows, err := r.pool.Query(ctx, `SELECT to_char(date AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, type, SUM(amount)
		FROM cash_flow_transactions
		WHERE date >= $1 AND date <= $2
		GROUP BY day, type
		ORDER BY day, type`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DailyTotal
	for rows.Next() {
		var d DailyTotal
		if err := rows.Scan(&d.Day, &d.Type, &d.Amount); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *pgRepository) CategoryTotals(ctx context.Context, from, to time.Time) ([]CategoryTotal, error) {
	rows, err := r.pool.Query(ctx, `SELECT category, type, SUM(amount), COUNT(*)
		FROM cash_flow_transactions
		WHERE date >= $1 AND date <= $2
		GROUP BY category, type
		ORDER BY SUM(amount) DESC, category`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CategoryTotal
	for rows.Next() {
		var c CategoryTotal
		if err := rows.Scan(&c.Category, &c.Type, &c.Amount, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *pgRepository) Each(ctx context.Context, from, to time.Time, fn func(Transaction) error) error {
	rows, err := r.pool.Query(ctx, `SELECT `+txColumns+` FROM cash_flow_transactions
		WHERE date >= $1 AND date <= $2
		ORDER BY date, id`, from, to)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return err
		}
		if err := fn(t); err != nil {
			return err
		}
	}
	return rows.Err()
}
