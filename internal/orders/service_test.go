package orders_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-commerce/internal/catalog"
	"github.com/odyssey-erp/odyssey-commerce/internal/inventory"
	"github.com/odyssey-erp/odyssey-commerce/internal/orders"
	"github.com/odyssey-erp/odyssey-commerce/internal/shared"
	"github.com/odyssey-erp/odyssey-commerce/internal/store/memory"
	"github.com/odyssey-erp/odyssey-commerce/internal/users"
)

var (
	alice = shared.Principal{ID: "u-alice", Role: shared.RoleCustomer}
	bob   = shared.Principal{ID: "u-bob", Role: shared.RoleCustomer}
	admin = shared.Principal{ID: "u-admin", Role: shared.RoleAdmin}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingEffect struct {
	calls atomic.Int32
	err   error
}

func (e *recordingEffect) OnOrderCompleted(context.Context, orders.Order) error {
	e.calls.Add(1)
	return e.err
}

type countingRecorder struct {
	created, conflicts, effectFailures atomic.Int32
}

func (r *countingRecorder) OrderCreated()  { r.created.Add(1) }
func (r *countingRecorder) StockConflict() { r.conflicts.Add(1) }
func (r *countingRecorder) CompletionEffect(err error) {
	if err != nil {
		r.effectFailures.Add(1)
	}
}

func seed(t *testing.T, store *memory.Store, stock map[string]int) {
	t.Helper()
	for id, qty := range stock {
		require.NoError(t, store.CreateProduct(context.Background(), catalog.Product{
			ID:            id,
			Name:          catalog.LocalizedName{"en": "Product " + id},
			CategoryID:    "general",
			Price:         10,
			StockQuantity: qty,
		}))
	}
	store.PutUser(users.User{ID: alice.ID, Username: "alice", Email: "alice@example.com", Name: "Alice"})
	store.PutUser(users.User{ID: bob.ID, Username: "bob", Email: "bob@example.com", Name: "Bob"})
}

func newService(store *memory.Store, repo orders.Repository, opts ...orders.Option) *orders.Service {
	if repo == nil {
		repo = store.Orders()
	}
	return orders.NewService(repo, inventory.NewReserver(store), users.NewDirectory(store), catalog.NewService(store), discardLogger(), opts...)
}

func stockOf(t *testing.T, store *memory.Store, id string) int {
	t.Helper()
	p, err := store.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.StockQuantity
}

func orderCount(t *testing.T, store *memory.Store) int {
	t.Helper()
	_, total, err := store.Orders().List(context.Background(), orders.ListFilter{}, 100, 0)
	require.NoError(t, err)
	return total
}

func request(lines ...inventory.Line) orders.CreateOrderRequest {
	return orders.CreateOrderRequest{Products: lines, PaymentMethod: orders.PaymentCash, TotalPrice: 100}
}

func TestCreateDecrementsEveryLine(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, map[string]int{"p-a": 5, "p-b": 1})
	rec := &countingRecorder{}
	svc := newService(store, nil, orders.WithRecorder(rec))

	order, err := svc.Create(context.Background(), alice, request(
		inventory.Line{ProductID: "p-a", Quantity: 2},
		inventory.Line{ProductID: "p-b", Quantity: 1},
	))
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPending, order.Status)
	assert.Equal(t, alice.ID, order.UserID)

	assert.Equal(t, 3, stockOf(t, store, "p-a"))
	assert.Equal(t, 0, stockOf(t, store, "p-b"))
	assert.Equal(t, 1, orderCount(t, store))
	assert.EqualValues(t, 1, rec.created.Load())
}

// conflictRepo makes the commit of one product fail as if another order had
// taken its stock after the availability check.
type conflictRepo struct {
	orders.Repository
	productID string
}

type conflictTx struct {
	orders.TxRepository
	productID string
}

func (r conflictRepo) WithTx(ctx context.Context, fn func(context.Context, orders.TxRepository) error) error {
	return r.Repository.WithTx(ctx, func(ctx context.Context, tx orders.TxRepository) error {
		return fn(ctx, conflictTx{TxRepository: tx, productID: r.productID})
	})
}

func (t conflictTx) DecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	if id == t.productID {
		return false, nil
	}
	return t.TxRepository.DecrementStock(ctx, id, qty)
}

func TestCreateRollsBackEarlierLinesOnConflict(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, map[string]int{"p-a": 5, "p-b": 5})
	rec := &countingRecorder{}
	svc := newService(store, conflictRepo{Repository: store.Orders(), productID: "p-b"}, orders.WithRecorder(rec))

	_, err := svc.Create(context.Background(), alice, request(
		inventory.Line{ProductID: "p-a", Quantity: 2},
		inventory.Line{ProductID: "p-b", Quantity: 1},
	))
	require.ErrorIs(t, err, shared.ErrConflict)
	require.ErrorIs(t, err, inventory.ErrStockConflict)

	assert.Equal(t, 5, stockOf(t, store, "p-a"), "first line must not stay decremented")
	assert.Equal(t, 5, stockOf(t, store, "p-b"))
	assert.Zero(t, orderCount(t, store))
	assert.EqualValues(t, 1, rec.conflicts.Load())
	assert.Zero(t, rec.created.Load())
}

func TestCreateInsufficientStockMutatesNothing(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, map[string]int{"p-a": 5, "p-b": 1})
	svc := newService(store, nil)

	_, err := svc.Create(context.Background(), alice, request(
		inventory.Line{ProductID: "p-a", Quantity: 2},
		inventory.Line{ProductID: "p-b", Quantity: 3},
	))
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	var shortage inventory.Shortage
	require.True(t, errors.As(err, &shortage))
	assert.Equal(t, "p-b", shortage.ProductID)
	assert.Equal(t, 1, shortage.Available)

	assert.Equal(t, 5, stockOf(t, store, "p-a"))
	assert.Equal(t, 1, stockOf(t, store, "p-b"))
	assert.Zero(t, orderCount(t, store))
}

func TestCreateValidation(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, map[string]int{"p-a": 5})
	svc := newService(store, nil)
	ctx := context.Background()

	cases := map[string]orders.CreateOrderRequest{
		"no lines":        {PaymentMethod: orders.PaymentCash, TotalPrice: 10},
		"zero quantity":   request(inventory.Line{ProductID: "p-a", Quantity: 0}),
		"unknown product": request(inventory.Line{ProductID: "p-x", Quantity: 1}),
		"bad payment":     {Products: []inventory.Line{{ProductID: "p-a", Quantity: 1}}, PaymentMethod: "barter", TotalPrice: 10},
		"zero total":      {Products: []inventory.Line{{ProductID: "p-a", Quantity: 1}}, PaymentMethod: orders.PaymentPayPal},
		"shipped status":  {Products: []inventory.Line{{ProductID: "p-a", Quantity: 1}}, PaymentMethod: orders.PaymentPayPal, TotalPrice: 5, Status: orders.StatusShipped},
	}
	for name, req := range cases {
		_, err := svc.Create(ctx, alice, req)
		assert.ErrorIs(t, err, shared.ErrInvalidInput, name)
	}
	assert.Equal(t, 5, stockOf(t, store, "p-a"))

	_, err := svc.Create(ctx, shared.Principal{}, request(inventory.Line{ProductID: "p-a", Quantity: 1}))
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestCreateKeepsSuppliedStatusAndDate(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, map[string]int{"p-a": 5})
	svc := newService(store, nil)

	date := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	req := request(inventory.Line{ProductID: "p-a", Quantity: 1})
	req.Status = orders.StatusProcessing
	req.OrderDate = &date

	order, err := svc.Create(context.Background(), alice, req)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusProcessing, order.Status)
	assert.True(t, order.OrderDate.Equal(date))
}

// barrierRepo holds every caller at WithTx until all of them passed the
// availability check, which forces the check-then-commit race.
type barrierRepo struct {
	orders.Repository
	wg *sync.WaitGroup
}

func (r barrierRepo) WithTx(ctx context.Context, fn func(context.Context, orders.TxRepository) error) error {
	r.wg.Done()
	r.wg.Wait()
	return r.Repository.WithTx(ctx, fn)
}

func TestConcurrentCreateLastUnitOneWins(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, map[string]int{"p-a": 1})
	var barrier sync.WaitGroup
	barrier.Add(2)
	svc := newService(store, barrierRepo{Repository: store.Orders(), wg: &barrier})

	errs := make([]error, 2)
	var done sync.WaitGroup
	for i, caller := range []shared.Principal{alice, bob} {
		done.Add(1)
		go func(i int, caller shared.Principal) {
			defer done.Done()
			_, errs[i] = svc.Create(context.Background(), caller, request(inventory.Line{ProductID: "p-a", Quantity: 1}))
		}(i, caller)
	}
	done.Wait()

	var ok, conflict int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, shared.ErrConflict):
			conflict++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflict)
	assert.Equal(t, 0, stockOf(t, store, "p-a"))
	assert.Equal(t, 1, orderCount(t, store))
}

func TestListScopesCustomers(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, map[string]int{"p-a": 10})
	svc := newService(store, nil)
	ctx := context.Background()

	for _, caller := range []shared.Principal{alice, alice, bob} {
		_, err := svc.Create(ctx, caller, request(inventory.Line{ProductID: "p-a", Quantity: 1}))
		require.NoError(t, err)
	}

	mine, page, err := svc.List(ctx, alice, orders.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	assert.Equal(t, 2, page.Total)
	for _, v := range mine {
		assert.Equal(t, alice.ID, v.UserID)
		require.NotNil(t, v.User)
		assert.Equal(t, "alice", v.User.Username)
		require.Len(t, v.Products, 1)
		require.NotNil(t, v.Products[0].Product)
		assert.Equal(t, "Product p-a", v.Products[0].Product.Name["en"])
	}

	all, _, err := svc.List(ctx, admin, orders.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, _, err = svc.List(ctx, admin, orders.ListFilter{Status: "lost"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestListByUserResolvesUsername(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, map[string]int{"p-a": 10})
	svc := newService(store, nil)
	ctx := context.Background()
	_, err := svc.Create(ctx, bob, request(inventory.Line{ProductID: "p-a", Quantity: 1}))
	require.NoError(t, err)

	views, _, err := svc.ListByUser(ctx, admin, "bob", orders.ListFilter{})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, bob.ID, views[0].UserID)

	views, _, err = svc.ListByUser(ctx, bob, bob.ID, orders.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, views, 1)

	_, _, err = svc.ListByUser(ctx, alice, "bob", orders.ListFilter{})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, _, err = svc.ListByUser(ctx, admin, "nobody", orders.ListFilter{})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGetHidesOtherCustomersOrders(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, map[string]int{"p-a": 10})
	svc := newService(store, nil)
	ctx := context.Background()
	order, err := svc.Create(ctx, alice, request(inventory.Line{ProductID: "p-a", Quantity: 1}))
	require.NoError(t, err)

	_, err = svc.Get(ctx, alice, order.ID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, admin, order.ID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, bob, order.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = svc.Get(ctx, admin, "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateStatusRunsCompletionEffect(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, map[string]int{"p-a": 10})
	effect := &recordingEffect{}
	svc := newService(store, nil, orders.WithCompletionEffect(effect))
	ctx := context.Background()
	order, err := svc.Create(ctx, alice, request(inventory.Line{ProductID: "p-a", Quantity: 1}))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, alice, order.ID, orders.StatusShipped)
	require.NoError(t, err)
	assert.Zero(t, effect.calls.Load())

	updated, err := svc.UpdateStatus(ctx, admin, order.ID, orders.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCompleted, updated.Status)
	assert.EqualValues(t, 1, effect.calls.Load())
}

func TestCompletionEffectFailureDoesNotFailUpdate(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, map[string]int{"p-a": 10})
	effect := &recordingEffect{err: errors.New("ledger offline")}
	rec := &countingRecorder{}
	svc := newService(store, nil, orders.WithCompletionEffect(effect), orders.WithRecorder(rec))
	ctx := context.Background()
	order, err := svc.Create(ctx, alice, request(inventory.Line{ProductID: "p-a", Quantity: 1}))
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, alice, order.ID, orders.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCompleted, updated.Status)
	assert.EqualValues(t, 1, rec.effectFailures.Load())

	stored, err := store.Orders().Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCompleted, stored.Status)
}

func TestUpdateStatusRules(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, map[string]int{"p-a": 10})
	svc := newService(store, nil)
	ctx := context.Background()
	order, err := svc.Create(ctx, alice, request(inventory.Line{ProductID: "p-a", Quantity: 1}))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, alice, order.ID, "cancelled")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = svc.UpdateStatus(ctx, bob, order.ID, orders.StatusShipped)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.UpdateStatus(ctx, alice, order.ID, orders.StatusDelivered)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, alice, order.ID, orders.StatusShipped)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = svc.UpdateStatus(ctx, alice, order.ID, orders.StatusCompleted)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, admin, order.ID, orders.StatusPending)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestDeleteScopingKeepsStock(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, map[string]int{"p-a": 10})
	svc := newService(store, nil)
	ctx := context.Background()
	first, err := svc.Create(ctx, alice, request(inventory.Line{ProductID: "p-a", Quantity: 3}))
	require.NoError(t, err)
	second, err := svc.Create(ctx, alice, request(inventory.Line{ProductID: "p-a", Quantity: 1}))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, bob, first.ID), shared.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, alice, first.ID))
	assert.ErrorIs(t, svc.Delete(ctx, alice, first.ID), shared.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, admin, second.ID))

	assert.Zero(t, orderCount(t, store))
	assert.Equal(t, 6, stockOf(t, store, "p-a"), "deleting an order does not restore stock")
}
