package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/telk/go_shop/internal/cache"
	"github.com/telk/go_shop/internal/domain"
	"github.com/telk/go_shop/internal/repository"
	"golang.org/x/sync/singleflight"
)

// CartService orchestrates cart use cases: it loads one aggregate, invokes
// one aggregate operation, and persists the result. Cross-cart reads go
// through the cache with singleflight collapsing concurrent misses.
type CartService struct {
	repo      repository.CartRepository
	cache     cache.CartCache
	catalog   ProductCatalog
	inventory InventoryChecker
	clock     domain.TimeProvider
	sfg       singleflight.Group // Prevents cache stampede
}

func NewCartService(repo repository.CartRepository, cartCache cache.CartCache, catalog ProductCatalog, inventory InventoryChecker, clock domain.TimeProvider) *CartService {
	return &CartService{
		repo:      repo,
		cache:     cartCache,
		catalog:   catalog,
		inventory: inventory,
		clock:     clock,
	}
}

// CreateCart returns the customer's active cart, creating one when none
// exists. A customer has at most one unconverted cart at a time.
func (s *CartService) CreateCart(ctx context.Context, customerID string) (*domain.Cart, error) {
	cid, err := domain.NewCustomerID(customerID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindActiveByCustomerID(ctx, cid)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrCartNotFound) {
		return nil, err
	}

	cart, err := domain.NewCart(s.clock, cid)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	id, err := domain.NewCartID(cartID)
	if err != nil {
		return nil, err
	}

	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(string(id), func() (interface{}, error) {
		cart, cacheErr := s.cache.Get(ctx, id)
		if cacheErr == nil {
			return cart, nil
		}
		if !errors.Is(cacheErr, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", cacheErr) // log cache error but continue
		}

		cart, repoErr := s.repo.FindByID(ctx, id)
		if repoErr != nil {
			return nil, repoErr
		}

		go func() {
			if errSet := s.cache.Set(context.Background(), cart); errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// AddItem validates the product against the catalog and stock levels, then
// applies the cart's own add semantics and persists the result.
func (s *CartService) AddItem(ctx context.Context, cartID, productID, sku string, options map[string]string, quantity int) (*domain.Cart, error) {
	pid, err := domain.NewProductID(productID)
	if err != nil {
		return nil, err
	}

	product, err := s.catalog.GetProduct(ctx, pid)
	if err != nil {
		return nil, err
	}
	if err := s.inventory.CheckStock(ctx, pid, quantity); err != nil {
		return nil, err
	}

	itemSKU := domain.SKU(sku)
	if sku == "" {
		itemSKU = product.SKU
	}

	cart, err := s.loadCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if err := cart.AddItem(s.clock, pid, itemSKU, options, quantity); err != nil {
		return nil, err
	}
	return cart, s.save(ctx, cart)
}

func (s *CartService) UpdateItemQuantity(ctx context.Context, cartID, cartItemID string, quantity int) (*domain.Cart, error) {
	cart, err := s.loadCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if err := cart.UpdateQuantity(s.clock, cartItemID, quantity); err != nil {
		return nil, err
	}
	return cart, s.save(ctx, cart)
}

func (s *CartService) RemoveItem(ctx context.Context, cartID, cartItemID string) (*domain.Cart, error) {
	cart, err := s.loadCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if err := cart.RemoveItem(s.clock, cartItemID); err != nil {
		return nil, err
	}
	return cart, s.save(ctx, cart)
}

// MergeCarts folds the source cart into the target. With deleteSource the
// source cart is removed once the merged target is safely persisted.
func (s *CartService) MergeCarts(ctx context.Context, targetCartID, sourceCartID string, deleteSource bool) (*domain.Cart, error) {
	if targetCartID == sourceCartID {
		return nil, fmt.Errorf("%w: cart cannot be merged into itself", domain.ErrInvalidCartState)
	}
	target, err := s.loadCart(ctx, targetCartID)
	if err != nil {
		return nil, err
	}
	source, err := s.loadCart(ctx, sourceCartID)
	if err != nil {
		return nil, err
	}

	if err := target.Merge(s.clock, source); err != nil {
		return nil, err
	}
	if err := s.save(ctx, target); err != nil {
		return nil, err
	}

	if deleteSource {
		if err := s.repo.DeleteByID(ctx, source.ID); err != nil && !errors.Is(err, repository.ErrCartNotFound) {
			log.Printf("failed to delete merged source cart %s: %v", source.ID, err)
		}
		s.invalidateCache(source.ID)
	}
	return target, nil
}

func (s *CartService) MarkItemUnavailable(ctx context.Context, cartID domain.CartID, cartItemID, reason string) error {
	cart, err := s.repo.FindByID(ctx, cartID)
	if err != nil {
		return err
	}
	if err := cart.MarkItemUnavailable(s.clock, cartItemID, reason); err != nil {
		return err
	}
	return s.save(ctx, cart)
}

func (s *CartService) MarkItemAvailable(ctx context.Context, cartID domain.CartID, cartItemID string) error {
	cart, err := s.repo.FindByID(ctx, cartID)
	if err != nil {
		return err
	}
	if err := cart.MarkItemAvailable(s.clock, cartItemID); err != nil {
		return err
	}
	return s.save(ctx, cart)
}

func (s *CartService) loadCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	id, err := domain.NewCartID(cartID)
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

func (s *CartService) save(ctx context.Context, cart *domain.Cart) error {
	if err := s.repo.Save(ctx, cart); err != nil {
		log.Printf("repo save cart error: %v", err)
		return err
	}
	s.invalidateCache(cart.ID)
	return nil
}

func (s *CartService) invalidateCache(cartID domain.CartID) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, cartID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}
