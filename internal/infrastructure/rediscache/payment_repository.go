// Package rediscache puts a Redis read-through cache in front of a payment repository.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domorder "github.com/Zhima-Mochi/eshop-payments/internal/domain/order"
	domain "github.com/Zhima-Mochi/eshop-payments/internal/domain/payment"
	"github.com/Zhima-Mochi/eshop-payments/internal/domain/product"
	"github.com/Zhima-Mochi/eshop-payments/internal/observability"
	"github.com/Zhima-Mochi/eshop-payments/internal/observability/logctx"
)

const (
	peerRedis     = "redis"
	defaultPrefix = "eshop-payments"
	defaultTTL    = 5 * time.Minute
)

var _ domain.Repository = (*PaymentRepository)(nil)

// PaymentRepository serves FindByID from Redis when it can and writes every
// saved payment through. Redis failures are logged and the inner repository
// answers instead; the cache never fails a call on its own.
type PaymentRepository struct {
	inner  domain.Repository
	client redis.UniversalClient
	prefix string
	ttl    time.Duration

	log          observability.Logger
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

type Option func(*PaymentRepository)

// WithTTL bounds how stale a cached order status can get; zero keeps the default.
func WithTTL(ttl time.Duration) Option {
	return func(r *PaymentRepository) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

func WithKeyPrefix(prefix string) Option {
	return func(r *PaymentRepository) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

func NewPaymentRepository(inner domain.Repository, client redis.UniversalClient, tel observability.Observability, opts ...Option) *PaymentRepository {
	if tel == nil {
		tel = observability.Nop()
	}
	r := &PaymentRepository{
		inner:        inner,
		client:       client,
		prefix:       defaultPrefix,
		ttl:          defaultTTL,
		log:          tel.Logger().With(observability.F("component", "payment_cache")),
		extCounter:   tel.Metrics().Counter(observability.MExternalRequests),
		extHistogram: tel.Metrics().Histogram(observability.MExternalRequestDuration),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *PaymentRepository) Save(ctx context.Context, p *domain.Payment) (*domain.Payment, error) {
	saved, err := r.inner.Save(ctx, p)
	if err != nil {
		return nil, err
	}
	r.store(ctx, saved)
	return saved, nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*domain.Payment, error) {
	start := time.Now()
	raw, err := r.client.Get(ctx, r.key(id)).Bytes()
	switch {
	case err == nil:
		p, decodeErr := decode(raw)
		if decodeErr == nil {
			r.observe("get", "hit", start)
			return p, nil
		}
		r.observe("get", "error", start)
		logctx.FromOr(ctx, r.log).Warn("payment_cache_decode_failed",
			observability.F("payment_id", id),
			observability.F("error", decodeErr.Error()),
		)
	case errors.Is(err, redis.Nil):
		r.observe("get", "miss", start)
	default:
		r.observe("get", "error", start)
		logctx.FromOr(ctx, r.log).Warn("payment_cache_get_failed",
			observability.F("payment_id", id),
			observability.F("error", err.Error()),
		)
	}

	p, err := r.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, p)
	return p, nil
}

// GetAllPayments always reads the inner repository.
func (r *PaymentRepository) GetAllPayments(ctx context.Context) ([]*domain.Payment, error) {
	return r.inner.GetAllPayments(ctx)
}

// Invalidate drops the cached copy of a payment.
func (r *PaymentRepository) Invalidate(ctx context.Context, id string) error {
	start := time.Now()
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		r.observe("del", "error", start)
		return fmt.Errorf("rediscache: invalidate %q: %w", id, err)
	}
	r.observe("del", "success", start)
	return nil
}

func (r *PaymentRepository) store(ctx context.Context, p *domain.Payment) {
	raw, err := encode(p)
	if err != nil {
		logctx.FromOr(ctx, r.log).Warn("payment_cache_encode_failed",
			observability.F("payment_id", p.ID),
			observability.F("error", err.Error()),
		)
		return
	}
	start := time.Now()
	if err := r.client.Set(ctx, r.key(p.ID), raw, r.ttl).Err(); err != nil {
		r.observe("set", "error", start)
		logctx.FromOr(ctx, r.log).Warn("payment_cache_set_failed",
			observability.F("payment_id", p.ID),
			observability.F("error", err.Error()),
		)
		return
	}
	r.observe("set", "success", start)
}

func (r *PaymentRepository) key(id string) string {
	return fmt.Sprintf("%s:payment:%s", r.prefix, id)
}

func (r *PaymentRepository) observe(endpoint, outcome string, start time.Time) {
	r.extCounter.Add(1,
		observability.L("peer", peerRedis),
		observability.L("endpoint", endpoint),
		observability.L("outcome", outcome),
	)
	r.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", peerRedis),
		observability.L("endpoint", endpoint),
	)
}

type orderRecord struct {
	ID        string            `json:"id"`
	Author    string            `json:"author"`
	OrderTime int64             `json:"order_time"`
	Status    string            `json:"status"`
	Products  []product.Product `json:"products"`
}

type paymentRecord struct {
	ID     string            `json:"id"`
	Method string            `json:"method"`
	Data   map[string]string `json:"data"`
	Status string            `json:"status"`
	Order  *orderRecord      `json:"order,omitempty"`
}

func encode(p *domain.Payment) ([]byte, error) {
	rec := paymentRecord{
		ID:     p.ID,
		Method: p.Method,
		Data:   p.Data,
		Status: string(p.Status),
	}
	if o := p.Order; o != nil {
		rec.Order = &orderRecord{
			ID:        o.ID,
			Author:    o.Author,
			OrderTime: o.OrderTime,
			Status:    string(o.Status),
			Products:  o.Products,
		}
	}
	return json.Marshal(rec)
}

func decode(raw []byte) (*domain.Payment, error) {
	var rec paymentRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	if rec.ID == "" {
		return nil, fmt.Errorf("rediscache: record has no id")
	}
	p := &domain.Payment{
		ID:     rec.ID,
		Method: rec.Method,
		Data:   rec.Data,
		Status: domain.Status(rec.Status),
	}
	if p.Data == nil {
		p.Data = map[string]string{}
	}
	if o := rec.Order; o != nil {
		p.Order = &domorder.Order{
			ID:        o.ID,
			Author:    o.Author,
			OrderTime: o.OrderTime,
			Status:    domorder.Status(o.Status),
			Products:  o.Products,
		}
	}
	return p, nil
}
