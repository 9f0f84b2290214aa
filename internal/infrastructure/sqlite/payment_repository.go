package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	domorder "github.com/Zhima-Mochi/eshop-payments/internal/domain/order"
	domain "github.com/Zhima-Mochi/eshop-payments/internal/domain/payment"
)

// PaymentRepository stores payments. A payment whose order has no row yet
// creates it in the same transaction; an existing order row is never
// rewritten from the payment's copy, which may be stale.
type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const selectPayments = `
	SELECT p.id, p.method, p.data, p.status,
	       o.id, o.author, o.order_time, o.status, o.products
	FROM   payments p
	JOIN   orders o ON o.id = p.order_id`

func (r *PaymentRepository) Save(ctx context.Context, p *domain.Payment) (_ *domain.Payment, err error) {
	if p == nil || p.ID == "" {
		return nil, fmt.Errorf("sqlite: save payment: %w", domain.ErrIDRequired)
	}
	if p.Order == nil {
		return nil, fmt.Errorf("sqlite: save payment %q: %w", p.ID, domain.ErrOrderRequired)
	}
	data, err := json.Marshal(p.Data)
	if err != nil {
		return nil, fmt.Errorf("sqlite: encode data for %q: %w", p.ID, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = insertOrderIfMissing(ctx, tx, p.Order); err != nil {
		return nil, fmt.Errorf("sqlite: save order %q for payment %q: %w", p.Order.ID, p.ID, err)
	}

	const q = `
		INSERT INTO payments (id, method, order_id, data, status)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			method   = excluded.method,
			order_id = excluded.order_id,
			data     = excluded.data,
			status   = excluded.status`
	if _, err = tx.ExecContext(ctx, q, p.ID, p.Method, p.Order.ID, string(data), string(p.Status)); err != nil {
		return nil, fmt.Errorf("sqlite: save payment %q: %w", p.ID, err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: commit payment %q: %w", p.ID, err)
	}
	return p.Clone(), nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*domain.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx, selectPayments+` WHERE p.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: find payment %q: %w", id, err)
	}
	return p, nil
}

func (r *PaymentRepository) GetAllPayments(ctx context.Context) ([]*domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx, selectPayments+` ORDER BY p.seq`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list payments: %w", err)
	}
	defer rows.Close()

	payments := make([]*domain.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: list payments: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list payments: %w", err)
	}
	return payments, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPayment(s scanner) (*domain.Payment, error) {
	var (
		p           domain.Payment
		o           domorder.Order
		data        string
		status      string
		orderStatus string
		products    string
	)
	if err := s.Scan(&p.ID, &p.Method, &data, &status,
		&o.ID, &o.Author, &o.OrderTime, &orderStatus, &products); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &p.Data); err != nil {
		return nil, fmt.Errorf("decode data for %q: %w", p.ID, err)
	}
	if p.Data == nil {
		p.Data = map[string]string{}
	}
	var err error
	if o.Products, err = decodeProducts(products); err != nil {
		return nil, fmt.Errorf("decode products for %q: %w", o.ID, err)
	}
	p.Status = domain.Status(status)
	o.Status = domorder.Status(orderStatus)
	p.Order = &o
	return &p, nil
}
