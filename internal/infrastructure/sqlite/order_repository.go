package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	domain "github.com/Zhima-Mochi/eshop-payments/internal/domain/order"
	"github.com/Zhima-Mochi/eshop-payments/internal/domain/product"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *OrderRepository) Save(ctx context.Context, o *domain.Order) error {
	if o == nil || o.ID == "" {
		return fmt.Errorf("sqlite: save order: %w", domain.ErrIDRequired)
	}
	products, err := json.Marshal(o.Products)
	if err != nil {
		return fmt.Errorf("sqlite: encode products for %q: %w", o.ID, err)
	}

	const q = `
		INSERT INTO orders (id, author, order_time, status, products)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, q, o.ID, o.Author, o.OrderTime, string(o.Status), string(products))
	if err != nil {
		return fmt.Errorf("sqlite: save order %q: %w", o.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	const q = `SELECT id, author, order_time, status, products FROM orders WHERE id = ?`

	var (
		o        domain.Order
		status   string
		products string
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(&o.ID, &o.Author, &o.OrderTime, &status, &products)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get order %q: %w", id, err)
	}
	o.Status = domain.Status(status)
	if o.Products, err = decodeProducts(products); err != nil {
		return nil, fmt.Errorf("sqlite: decode products for %q: %w", id, err)
	}
	return &o, nil
}

// Update persists the order's status; line items never change after insert.
func (r *OrderRepository) Update(ctx context.Context, o *domain.Order) error {
	if o == nil || o.ID == "" {
		return fmt.Errorf("sqlite: update order: %w", domain.ErrIDRequired)
	}
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, string(o.Status), o.ID)
	if err != nil {
		return fmt.Errorf("sqlite: update order %q: %w", o.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// insertOrderIfMissing stores o when no row has its id. An existing row is
// left untouched; status changes go through Update.
func insertOrderIfMissing(ctx context.Context, ex execer, o *domain.Order) error {
	products, err := json.Marshal(o.Products)
	if err != nil {
		return fmt.Errorf("encode products: %w", err)
	}
	const q = `
		INSERT INTO orders (id, author, order_time, status, products)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`
	_, err = ex.ExecContext(ctx, q, o.ID, o.Author, o.OrderTime, string(o.Status), string(products))
	return err
}

func decodeProducts(raw string) ([]product.Product, error) {
	var products []product.Product
	if err := json.Unmarshal([]byte(raw), &products); err != nil {
		return nil, err
	}
	return products, nil
}
