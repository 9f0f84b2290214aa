package payment

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/eshop-payments/internal/domain/order"
)

const (
	KeyAddress     = "address"
	KeyDeliveryFee = "deliveryFee"
)

// CashOnDelivery requires a delivery address and a positive delivery fee.
type CashOnDelivery struct{}

func (CashOnDelivery) Name() string { return MethodCOD }

func (CashOnDelivery) Validate(data map[string]string) bool {
	address := strings.TrimSpace(data[KeyAddress])
	fee := strings.TrimSpace(data[KeyDeliveryFee])
	if address == "" || fee == "" {
		return false
	}

	amount, err := decimal.NewFromString(fee)
	if err != nil {
		return false
	}
	return amount.IsPositive()
}

func NewCODPayment(id string, o *order.Order, data map[string]string) (*Payment, error) {
	return Create(id, o, data, CashOnDelivery{})
}
