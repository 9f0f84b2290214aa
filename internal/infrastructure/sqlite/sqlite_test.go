package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/eshop-payments/internal/domain/order"
	"github.com/Zhima-Mochi/eshop-payments/internal/domain/payment"
	"github.com/Zhima-Mochi/eshop-payments/internal/domain/product"
	"github.com/Zhima-Mochi/eshop-payments/internal/infrastructure/sqlite"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newOrder(t *testing.T, id string) *order.Order {
	t.Helper()
	o, err := order.New(id, []product.Product{
		{ID: "sku-1", Name: "Mug", Quantity: 2},
		{ID: "sku-2", Name: "Tea", Quantity: 1},
	}, 1700000000, "alice")
	require.NoError(t, err)
	return o
}

func TestOrderRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := sqlite.NewOrderRepository(openDB(t))
	o := newOrder(t, "o-1")

	require.NoError(t, repo.Save(ctx, o))
	assert.ErrorIs(t, repo.Save(ctx, o), order.ErrConflict)

	got, err := repo.Get(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, o, got)

	o.ApplyPaymentOutcome(false)
	require.NoError(t, repo.Update(ctx, o))
	got, err = repo.Get(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusFailed, got.Status)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, order.ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, newOrder(t, "missing")), order.ErrNotFound)
}

func TestPaymentRepositoryInsertsMissingOrder(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	payments := sqlite.NewPaymentRepository(db)
	orders := sqlite.NewOrderRepository(db)

	o := newOrder(t, "o-1")
	p, err := payment.NewVoucherPayment("p-1", o, map[string]string{payment.KeyVoucherCode: "ESHOP1234ABC5678"})
	require.NoError(t, err)

	saved, err := payments.Save(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusSuccess, saved.Status)

	storedOrder, err := orders.Get(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusSuccess, storedOrder.Status)

	found, err := payments.FindByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, payment.MethodVoucher, found.Method)
	assert.Equal(t, "ESHOP1234ABC5678", found.Data[payment.KeyVoucherCode])
	assert.Equal(t, o, found.Order)
}

func TestPaymentSaveNeverRewritesStoredOrderStatus(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	payments := sqlite.NewPaymentRepository(db)
	orders := sqlite.NewOrderRepository(db)
	require.NoError(t, orders.Save(ctx, newOrder(t, "o-1")))

	stale := newOrder(t, "o-1")
	p, err := payment.NewVoucherPayment("p-1", stale, map[string]string{payment.KeyVoucherCode: "ESHOP1234ABC5678"})
	require.NoError(t, err)
	require.Equal(t, order.StatusSuccess, stale.Status)

	_, err = payments.Save(ctx, p)
	require.NoError(t, err)

	stored, err := orders.Get(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, stored.Status)

	found, err := payments.FindByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, found.Order.Status)
}

func TestPaymentRepositoryUpsertKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := sqlite.NewPaymentRepository(openDB(t))
	o := newOrder(t, "o-1")

	for _, id := range []string{"p-b", "p-a", "p-c"} {
		p, err := payment.New(id, payment.MethodCOD, o, map[string]string{})
		require.NoError(t, err)
		_, err = repo.Save(ctx, p)
		require.NoError(t, err)
	}

	p, err := repo.FindByID(ctx, "p-b")
	require.NoError(t, err)
	p.Status = payment.StatusRejected
	_, err = repo.Save(ctx, p)
	require.NoError(t, err)

	all, err := repo.GetAllPayments(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"p-b", "p-a", "p-c"}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, payment.StatusRejected, all[0].Status)
}

func TestPaymentRepositoryNotFoundAndEmpty(t *testing.T) {
	ctx := context.Background()
	repo := sqlite.NewPaymentRepository(openDB(t))

	_, err := repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, payment.ErrNotFound)

	all, err := repo.GetAllPayments(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestOpenPersistsToFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "eshop.db")

	db, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, sqlite.NewOrderRepository(db).Save(ctx, newOrder(t, "o-1")))
	require.NoError(t, db.Close())

	db, err = sqlite.Open(path)
	require.NoError(t, err)
	defer db.Close()
	_, err = sqlite.NewOrderRepository(db).Get(ctx, "o-1")
	assert.NoError(t, err)

	_, err = sqlite.Open("")
	assert.Error(t, err)
}
