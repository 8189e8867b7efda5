package cache

import (
	"context"
	"errors"

	"github.com/telk/go_shop/internal/domain"
)

type CartCache interface {
	Get(ctx context.Context, cartID domain.CartID) (*domain.Cart, error)
	Set(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, cartID domain.CartID) error
}

var ErrCacheMiss = errors.New("cache miss")
