package order_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apporder "github.com/Zhima-Mochi/eshop-payments/internal/application/order"
	"github.com/Zhima-Mochi/eshop-payments/internal/domain/order"
	"github.com/Zhima-Mochi/eshop-payments/internal/domain/product"
	"github.com/Zhima-Mochi/eshop-payments/internal/infrastructure/memory"
)

type fixedID string

func (f fixedID) NewID() string { return string(f) }

type failingRepo struct{ err error }

func (f failingRepo) Save(context.Context, *order.Order) error         { return f.err }
func (f failingRepo) Get(context.Context, string) (*order.Order, error) { return nil, f.err }
func (f failingRepo) Update(context.Context, *order.Order) error       { return f.err }

func TestCreateOrderStoresPendingOrder(t *testing.T) {
	repo := memory.NewOrderRepository()
	svc := apporder.NewService(repo, fixedID("order-1"), nil)
	ctx := context.Background()

	o, err := svc.CreateOrder(ctx, apporder.CreateOrderInput{
		Author:    "alice",
		OrderTime: 1700000000,
		Products:  []apporder.ProductInput{{ID: "sku-1", Name: "Mug", Quantity: 2}},
	})

	require.NoError(t, err)
	assert.Equal(t, "order-1", o.ID)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, []product.Product{{ID: "sku-1", Name: "Mug", Quantity: 2}}, o.Products)

	stored, err := svc.Get(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, o, stored)
}

func TestCreateOrderDefaultsOrderTime(t *testing.T) {
	svc := apporder.NewService(memory.NewOrderRepository(), nil, nil)

	o, err := svc.CreateOrder(context.Background(), apporder.CreateOrderInput{
		Products: []apporder.ProductInput{{ID: "sku-1", Quantity: 1}},
	})

	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
	assert.Positive(t, o.OrderTime)
}

func TestCreateOrderValidation(t *testing.T) {
	svc := apporder.NewService(memory.NewOrderRepository(), nil, nil)

	_, err := svc.CreateOrder(context.Background(), apporder.CreateOrderInput{Author: "alice"})
	assert.ErrorIs(t, err, apporder.ErrInvalidInput)
	assert.ErrorIs(t, err, order.ErrNoProducts)

	_, err = svc.CreateOrder(context.Background(), apporder.CreateOrderInput{
		Products: []apporder.ProductInput{{ID: "sku-1", Quantity: -1}},
	})
	assert.ErrorIs(t, err, apporder.ErrInvalidInput)
	assert.ErrorIs(t, err, product.ErrNegativeQuantity)
}

func TestCreateOrderRepositoryFailure(t *testing.T) {
	boom := errors.New("db locked")
	svc := apporder.NewService(failingRepo{err: boom}, nil, nil)

	_, err := svc.CreateOrder(context.Background(), apporder.CreateOrderInput{
		Products: []apporder.ProductInput{{ID: "sku-1", Quantity: 1}},
	})

	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, apporder.ErrRepository)
}

func TestGetOrder(t *testing.T) {
	svc := apporder.NewService(memory.NewOrderRepository(), nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, apporder.ErrNotFound)

	_, err = svc.Get(context.Background(), "")
	assert.ErrorIs(t, err, apporder.ErrInvalidInput)

	boom := errors.New("db locked")
	_, err = apporder.NewService(failingRepo{err: boom}, nil, nil).Get(context.Background(), "o-1")
	assert.ErrorIs(t, err, boom)
}
