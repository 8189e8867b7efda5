package service

import (
	"context"
	"errors"

	"github.com/telk/go_shop/internal/domain"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrItemUnavailable   = errors.New("cart contains an unavailable item")
)

// ProductInfo is the catalog's view of a purchasable product, used to
// validate cart additions and to snapshot name and price at order creation.
type ProductInfo struct {
	ID    domain.ProductID
	Name  string
	SKU   domain.SKU
	Price domain.Money
}

// ProductCatalog is the outbound port to the product service.
type ProductCatalog interface {
	GetProduct(ctx context.Context, id domain.ProductID) (*ProductInfo, error)
}

// InventoryChecker is the outbound port to the stock service. CheckStock
// returns ErrInsufficientStock when the requested quantity cannot be served.
type InventoryChecker interface {
	CheckStock(ctx context.Context, id domain.ProductID, quantity int) error
}
