package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apporder "github.com/Zhima-Mochi/eshop-payments/internal/application/order"
	apppayment "github.com/Zhima-Mochi/eshop-payments/internal/application/payment"
	domainOrder "github.com/Zhima-Mochi/eshop-payments/internal/domain/order"
	domainPayment "github.com/Zhima-Mochi/eshop-payments/internal/domain/payment"
	"github.com/Zhima-Mochi/eshop-payments/internal/domain/product"
	"github.com/Zhima-Mochi/eshop-payments/internal/observability"
	"github.com/Zhima-Mochi/eshop-payments/internal/observability/logctx"
)

const (
	componentHTTPHandler = "http_server"
	tracerName           = "eshop-payments.http"
	maxBodyBytes         = 1 << 20
)

type OrderService interface {
	CreateOrder(ctx context.Context, input apporder.CreateOrderInput) (*domainOrder.Order, error)
	Get(ctx context.Context, id string) (*domainOrder.Order, error)
}

type PaymentService interface {
	AddPayment(ctx context.Context, o *domainOrder.Order, method string, data map[string]string) (*domainPayment.Payment, error)
	GetPayment(ctx context.Context, id string) (*domainPayment.Payment, error)
	SetStatus(ctx context.Context, p *domainPayment.Payment, status string) error
	GetAllPayments(ctx context.Context) ([]*domainPayment.Payment, error)
	Methods() []string
}

type Handler struct {
	orderService   OrderService
	paymentService PaymentService
	log            observability.Logger
	tel            observability.Observability
	metrics        http.Handler
}

type Option func(*Handler)

// WithMetricsHandler mounts h (typically promhttp) on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(hd *Handler) { hd.metrics = h }
}

func NewHandler(orderSvc OrderService, paymentSvc PaymentService, tel observability.Observability, opts ...Option) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	h := &Handler{
		orderService:   orderSvc,
		paymentService: paymentSvc,
		log:            tel.Logger().With(observability.F("component", componentHTTPHandler)),
		tel:            tel,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router wires Trace → request logger + metrics → access log → handler.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(withTrace(tracerName))
	r.Use(ObservabilityMiddleware(h.log, h.tel))
	r.Use(withAccessLog(h.log))

	r.Get("/health", h.handleHealth)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics)
	}

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.handleCreateOrder)
		r.Get("/{orderID}", h.handleGetOrder)
	})
	r.Get("/payment-methods", h.handleListMethods)
	r.Route("/payments", func(r chi.Router) {
		r.Post("/", h.handleAddPayment)
		r.Get("/", h.handleListPayments)
		r.Get("/{paymentID}", h.handleGetPayment)
		r.Put("/{paymentID}/status", h.handleSetStatus)
	})

	return r
}

type createOrderRequest struct {
	Author    string            `json:"author"`
	OrderTime int64             `json:"order_time"`
	Products  []product.Product `json:"products"`
}

type orderResponse struct {
	ID        string             `json:"id"`
	Author    string             `json:"author"`
	OrderTime int64              `json:"order_time"`
	Status    domainOrder.Status `json:"status"`
	Products  []product.Product  `json:"products"`
}

func toOrderResponse(o *domainOrder.Order) orderResponse {
	return orderResponse{
		ID:        o.ID,
		Author:    o.Author,
		OrderTime: o.OrderTime,
		Status:    o.Status,
		Products:  o.Products,
	}
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	items := make([]apporder.ProductInput, 0, len(req.Products))
	for _, p := range req.Products {
		items = append(items, apporder.ProductInput{ID: p.ID, Name: p.Name, Quantity: p.Quantity})
	}
	o, err := h.orderService.CreateOrder(r.Context(), apporder.CreateOrderInput{
		Author:    req.Author,
		OrderTime: req.OrderTime,
		Products:  items,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orderService.Get(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

type addPaymentRequest struct {
	OrderID string            `json:"order_id"`
	Method  string            `json:"method"`
	Data    map[string]string `json:"data"`
}

type paymentResponse struct {
	ID          string               `json:"id"`
	Method      string               `json:"method"`
	Status      domainPayment.Status `json:"status"`
	OrderID     string               `json:"order_id"`
	OrderStatus domainOrder.Status   `json:"order_status,omitempty"`
	Data        map[string]string    `json:"data"`
}

func toPaymentResponse(p *domainPayment.Payment) paymentResponse {
	resp := paymentResponse{
		ID:      p.ID,
		Method:  p.Method,
		Status:  p.Status,
		OrderID: p.OrderID(),
		Data:    p.Data,
	}
	if p.Order != nil {
		resp.OrderStatus = p.Order.Status
	}
	return resp
}

func (h *Handler) handleAddPayment(w http.ResponseWriter, r *http.Request) {
	var req addPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	o, err := h.orderService.Get(r.Context(), req.OrderID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	p, err := h.paymentService.AddPayment(r.Context(), o, req.Method, req.Data)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentResponse(p))
}

func (h *Handler) handleListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.paymentService.GetAllPayments(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	out := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadPayment(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(p))
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	p, ok := h.loadPayment(w, r)
	if !ok {
		return
	}
	if err := h.paymentService.SetStatus(r.Context(), p, req.Status); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(p))
}

func (h *Handler) handleListMethods(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"methods": h.paymentService.Methods()})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// loadPayment writes the error response itself and reports whether p is usable.
func (h *Handler) loadPayment(w http.ResponseWriter, r *http.Request) (*domainPayment.Payment, bool) {
	id := chi.URLParam(r, "paymentID")
	p, err := h.paymentService.GetPayment(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return nil, false
	}
	if p == nil {
		writeError(w, http.StatusNotFound, domainPayment.ErrNotFound)
		return nil, false
	}
	return p, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domainOrder.ErrNotFound),
		errors.Is(err, domainPayment.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, apppayment.ErrInvalidArgument),
		errors.Is(err, apporder.ErrInvalidInput),
		errors.Is(err, domainPayment.ErrOrderRequired),
		errors.Is(err, domainPayment.ErrDataRequired),
		errors.Is(err, domainPayment.ErrMethodRequired):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, apppayment.ErrOrderSettled),
		errors.Is(err, domainOrder.ErrConflict):
		writeError(w, http.StatusConflict, err)
	default:
		logctx.FromOr(r.Context(), h.log).Error("http_internal_error",
			observability.F("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}
