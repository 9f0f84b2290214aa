package payment_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/eshop-payments/internal/domain/order"
	"github.com/Zhima-Mochi/eshop-payments/internal/domain/payment"
)

type bankTransfer struct{}

func (bankTransfer) Name() string { return "BANK_TRANSFER" }

func (bankTransfer) Validate(data map[string]string) bool {
	return strings.HasPrefix(data["accountNumber"], "ID")
}

func TestDefaultRegistry(t *testing.T) {
	r := payment.DefaultRegistry()
	assert.Equal(t, []string{payment.MethodCOD, payment.MethodVoucher}, r.Methods())

	m, ok := r.Lookup(payment.MethodVoucher)
	require.True(t, ok)
	assert.Equal(t, payment.MethodVoucher, m.Name())

	_, ok = r.Lookup("voucher")
	assert.False(t, ok)
}

func TestRegistry_OpenForNewMethods(t *testing.T) {
	r := payment.DefaultRegistry()
	r.Register(bankTransfer{})
	r.Register(nil)

	m, ok := r.Lookup("BANK_TRANSFER")
	require.True(t, ok)

	o := newOrder(t)
	p, err := payment.Create("p-1", o, map[string]string{"accountNumber": "ID-0042"}, m)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusSuccess, p.Status)
	assert.Equal(t, order.StatusSuccess, o.Status)
	assert.Equal(t, "BANK_TRANSFER", p.Method)
}

type allowList map[string]bool

func (a allowList) Valid(code string) bool { return a[code] }

func TestVoucher_PluggablePolicy(t *testing.T) {
	v := payment.NewVoucher(allowList{"PROMO": true})

	assert.True(t, v.Validate(map[string]string{payment.KeyVoucherCode: "PROMO"}))
	assert.False(t, v.Validate(map[string]string{payment.KeyVoucherCode: "ESHOP1234ABC5678"}))
}

func TestVoucherFormat_Custom(t *testing.T) {
	f := payment.VoucherFormat{Length: 8, Prefix: "GO", MinDigits: 2}

	assert.True(t, f.Valid("GOAB12CD"))
	assert.False(t, f.Valid("GOABC1DE"))
	assert.False(t, f.Valid("XXAB12CD"))
}

func TestVoucher_ZeroValueUsesDefaultFormat(t *testing.T) {
	var v payment.Voucher
	assert.True(t, v.Validate(map[string]string{payment.KeyVoucherCode: "ESHOP1234ABC5678"}))
}
