package domain

import "strings"

// Identifier types are plain string wrappers compared by value.
// Construction goes through the New* helpers so an empty or blank
// identifier never enters an aggregate.

type CartID string
type CustomerID string
type ProductID string
type SKU string
type OrderID string
type PaymentID string

func NewCartID(s string) (CartID, error) {
	if isBlank(s) {
		return "", wrapf(ErrInvalidIdentifier, "cart id must not be blank")
	}
	return CartID(s), nil
}

func NewCustomerID(s string) (CustomerID, error) {
	if isBlank(s) {
		return "", wrapf(ErrInvalidIdentifier, "customer id must not be blank")
	}
	return CustomerID(s), nil
}

func NewProductID(s string) (ProductID, error) {
	if isBlank(s) {
		return "", wrapf(ErrInvalidIdentifier, "product id must not be blank")
	}
	return ProductID(s), nil
}

func NewSKU(s string) (SKU, error) {
	if isBlank(s) {
		return "", wrapf(ErrInvalidIdentifier, "sku must not be blank")
	}
	return SKU(s), nil
}

func NewOrderID(s string) (OrderID, error) {
	if isBlank(s) {
		return "", wrapf(ErrInvalidIdentifier, "order id must not be blank")
	}
	return OrderID(s), nil
}

func NewPaymentID(s string) (PaymentID, error) {
	if isBlank(s) {
		return "", wrapf(ErrInvalidIdentifier, "payment id must not be blank")
	}
	return PaymentID(s), nil
}

func (id CartID) String() string     { return string(id) }
func (id CustomerID) String() string { return string(id) }
func (id ProductID) String() string  { return string(id) }
func (s SKU) String() string         { return string(s) }
func (id OrderID) String() string    { return string(id) }
func (id PaymentID) String() string  { return string(id) }

// Money is an amount in minor currency units (e.g. cents, won).
type Money int64

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
