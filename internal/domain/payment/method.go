package payment

import (
	"slices"
	"sync"
)

const (
	MethodVoucher = "VOUCHER"
	MethodCOD     = "COD"
)

// Method is one way of paying. It owns the rule that decides whether the
// method-specific data is acceptable.
type Method interface {
	Name() string
	Validate(data map[string]string) bool
}

// Registry resolves method tags to their Method. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	methods map[string]Method
}

func NewRegistry(methods ...Method) *Registry {
	r := &Registry{methods: make(map[string]Method, len(methods))}
	for _, m := range methods {
		r.Register(m)
	}
	return r
}

// DefaultRegistry knows the voucher and cash-on-delivery methods.
func DefaultRegistry() *Registry {
	return NewRegistry(NewVoucher(DefaultVoucherFormat), CashOnDelivery{})
}

// Register adds m, replacing any method with the same name.
func (r *Registry) Register(m Method) {
	if m == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[m.Name()] = m
}

func (r *Registry) Lookup(name string) (Method, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.methods[name]
	return m, ok
}

func (r *Registry) Methods() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
