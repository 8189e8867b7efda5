package poller

import (
	"context"
	"errors"
	"log"
	"time"

	c "github.com/telk/go_shop/internal/cache"
	"github.com/telk/go_shop/internal/domain"
	r "github.com/telk/go_shop/internal/repository"
)

// ExpirySweeper deletes carts whose last activity is older than maxIdle.
// Conversion to an order does not shield a cart; only activity does.
type ExpirySweeper struct {
	repo    r.CartRepository
	cache   c.CartCache
	clock   domain.TimeProvider
	maxIdle time.Duration
	tick    time.Duration
}

func NewExpirySweeper(repo r.CartRepository, cache c.CartCache, clock domain.TimeProvider, maxIdle time.Duration) *ExpirySweeper {
	return &ExpirySweeper{
		repo:    repo,
		cache:   cache,
		clock:   clock,
		maxIdle: maxIdle,
		tick:    time.Minute,
	}
}

func (s *ExpirySweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *ExpirySweeper) sweep(ctx context.Context) {
	threshold := s.clock.Now().Add(-s.maxIdle)
	carts, err := s.repo.FindExpiredCarts(ctx, threshold)
	if err != nil {
		log.Printf("failed to find expired carts: %v", err)
		return
	}

	for _, cart := range carts {
		if errDelete := s.repo.DeleteByID(ctx, cart.ID); errDelete != nil {
			if errors.Is(errDelete, r.ErrCartNotFound) {
				continue // someone else already swept it
			}
			log.Printf("failed to delete expired cart %s: %v", cart.ID, errDelete)
			continue
		}

		if errCache := s.cache.Delete(ctx, cart.ID); errCache != nil {
			log.Printf("failed to delete cache for cart %s: %v", cart.ID, errCache)
		}
	}
}
