package product

import "errors"

var ErrNegativeQuantity = errors.New("product: quantity must be zero or greater")

// Product is a line item carried by value inside an order.
type Product struct {
	ID       string `json:"product_id"`
	Name     string `json:"product_name"`
	Quantity int    `json:"product_quantity"`
}

func New(id, name string, quantity int) (Product, error) {
	if quantity < 0 {
		return Product{}, ErrNegativeQuantity
	}
	return Product{ID: id, Name: name, Quantity: quantity}, nil
}
