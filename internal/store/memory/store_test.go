package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-commerce/internal/cashflow"
	"github.com/odyssey-erp/odyssey-commerce/internal/catalog"
	"github.com/odyssey-erp/odyssey-commerce/internal/inventory"
	"github.com/odyssey-erp/odyssey-commerce/internal/orders"
	"github.com/odyssey-erp/odyssey-commerce/internal/shared"
	"github.com/odyssey-erp/odyssey-commerce/internal/store/memory"
	"github.com/odyssey-erp/odyssey-commerce/internal/users"
)

func TestOrderTxRollsBackOnError(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.CreateProduct(ctx, catalog.Product{ID: "p", StockQuantity: 3}))

	boom := errors.New("boom")
	err := store.Orders().WithTx(ctx, func(ctx context.Context, tx orders.TxRepository) error {
		ok, err := tx.DecrementStock(ctx, "p", 2)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, tx.Insert(ctx, orders.Order{ID: "o"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	p, err := store.GetProduct(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, 3, p.StockQuantity)
	_, err = store.Orders().Get(ctx, "o")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDecrementIsConditional(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.CreateProduct(ctx, catalog.Product{ID: "p", StockQuantity: 1}))

	err := store.Orders().WithTx(ctx, func(ctx context.Context, tx orders.TxRepository) error {
		ok, err := tx.DecrementStock(ctx, "p", 2)
		assert.False(t, ok)
		ok2, _ := tx.DecrementStock(ctx, "missing", 1)
		assert.False(t, ok2)
		return err
	})
	require.NoError(t, err)
}

func TestUpdateStatusRequiresExpectedStatus(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Orders().WithTx(ctx, func(ctx context.Context, tx orders.TxRepository) error {
		return tx.Insert(ctx, orders.Order{ID: "o", Status: orders.StatusPending, Products: []inventory.Line{{ProductID: "p", Quantity: 1}}})
	}))

	_, err := store.Orders().UpdateStatus(ctx, "o", orders.StatusShipped, orders.StatusCompleted)
	assert.ErrorIs(t, err, orders.ErrStatusChanged)
	updated, err := store.Orders().UpdateStatus(ctx, "o", orders.StatusPending, orders.StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusShipped, updated.Status)
}

func TestListCompletedFiltersByOrderDate(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	day := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Orders().WithTx(ctx, func(ctx context.Context, tx orders.TxRepository) error {
		for i, st := range []orders.Status{orders.StatusCompleted, orders.StatusCompleted, orders.StatusShipped} {
			o := orders.Order{ID: string(rune('a' + i)), Status: st, OrderDate: day.AddDate(0, 0, i)}
			if err := tx.Insert(ctx, o); err != nil {
				return err
			}
		}
		return nil
	}))

	all, err := store.Orders().ListCompleted(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)

	from := day.Add(time.Hour)
	later, err := store.Orders().ListCompleted(ctx, &from, nil)
	require.NoError(t, err)
	require.Len(t, later, 1)
	assert.Equal(t, "b", later[0].ID)
}

func TestAutomatedTransactionsCannotBeUpdated(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	orderID := "o"
	repo := store.Transactions()
	require.NoError(t, repo.InsertBatch(ctx, []cashflow.Transaction{
		{ID: "t1", Type: cashflow.TypeInflow, Amount: 10, OrderID: &orderID, Automated: true},
		{ID: "t2", Type: cashflow.TypeOutflow, Amount: 4},
	}))

	exists, err := repo.ExistsForOrder(ctx, orderID)
	require.NoError(t, err)
	assert.True(t, exists)

	assert.ErrorIs(t, repo.Update(ctx, cashflow.Transaction{ID: "t1", Amount: 1}), shared.ErrNotFound)
	require.NoError(t, repo.Update(ctx, cashflow.Transaction{ID: "t2", Type: cashflow.TypeOutflow, Amount: 6}))

	totals, err := repo.SumByType(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, cashflow.Totals{Inflows: 10, Outflows: 6}, totals)
}

func TestFindUserByIDOrUsername(t *testing.T) {
	store := memory.NewStore()
	store.PutUser(users.User{ID: "u-1", Username: "dana"})

	byID, err := store.FindUser(context.Background(), "u-1")
	require.NoError(t, err)
	byName, err := store.FindUser(context.Background(), "dana")
	require.NoError(t, err)
	assert.Equal(t, byID, byName)

	_, err = store.FindUser(context.Background(), "nope")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
