package payment

import (
	"strings"

	"github.com/Zhima-Mochi/eshop-payments/internal/domain/order"
)

const KeyVoucherCode = "voucherCode"

// VoucherPolicy decides whether a voucher code is redeemable.
type VoucherPolicy interface {
	Valid(code string) bool
}

// VoucherFormat is the structural voucher rule: exact length, required
// prefix, a minimum number of digits, and uppercase letters elsewhere.
type VoucherFormat struct {
	Length    int
	Prefix    string
	MinDigits int
}

// DefaultVoucherFormat accepts codes like ESHOP1234ABC5678.
var DefaultVoucherFormat = VoucherFormat{Length: 16, Prefix: "ESHOP", MinDigits: 8}

func (f VoucherFormat) Valid(code string) bool {
	if len(code) != f.Length || !strings.HasPrefix(code, f.Prefix) {
		return false
	}

	digits := 0
	for _, r := range code[len(f.Prefix):] {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return digits >= f.MinDigits
}

type Voucher struct {
	policy VoucherPolicy
}

func NewVoucher(policy VoucherPolicy) Voucher {
	if policy == nil {
		policy = DefaultVoucherFormat
	}
	return Voucher{policy: policy}
}

func (Voucher) Name() string { return MethodVoucher }

func (v Voucher) Validate(data map[string]string) bool {
	code, ok := data[KeyVoucherCode]
	if !ok {
		return false
	}
	policy := v.policy
	if policy == nil {
		policy = DefaultVoucherFormat
	}
	return policy.Valid(code)
}

// NewVoucherPayment creates a VOUCHER payment under the default voucher format.
func NewVoucherPayment(id string, o *order.Order, data map[string]string) (*Payment, error) {
	return Create(id, o, data, NewVoucher(DefaultVoucherFormat))
}
