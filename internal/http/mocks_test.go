package http

import (
	"context"
	"sync"
	"time"

	"github.com/telk/go_shop/internal/cache"
	"github.com/telk/go_shop/internal/domain"
	"github.com/telk/go_shop/internal/repository"
	"github.com/telk/go_shop/internal/service"
)

type testClock struct{}

func (testClock) Now() time.Time { return time.Now().UTC() }

type memCartRepo struct {
	mu    sync.Mutex
	carts map[domain.CartID]domain.Cart
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{carts: make(map[domain.CartID]domain.Cart)}
}

func (m *memCartRepo) Save(_ context.Context, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[cart.ID] = *cart
	return nil
}

func (m *memCartRepo) FindByID(_ context.Context, id domain.CartID) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[id]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return &cart, nil
}

func (m *memCartRepo) ExistsByID(_ context.Context, id domain.CartID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.carts[id]
	return ok, nil
}

func (m *memCartRepo) DeleteByID(_ context.Context, id domain.CartID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.carts[id]; !ok {
		return repository.ErrCartNotFound
	}
	delete(m.carts, id)
	return nil
}

func (m *memCartRepo) FindActiveByCustomerID(_ context.Context, customerID domain.CustomerID) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cart := range m.carts {
		if cart.CustomerID == customerID && !cart.Converted {
			c := cart
			return &c, nil
		}
	}
	return nil, repository.ErrCartNotFound
}

func (m *memCartRepo) FindActiveByProductID(context.Context, domain.ProductID) ([]domain.Cart, error) {
	return nil, nil
}

func (m *memCartRepo) FindExpiredCarts(context.Context, time.Time) ([]domain.Cart, error) {
	return nil, nil
}

type memOrderRepo struct {
	mu     sync.Mutex
	orders map[domain.OrderID]domain.Order
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[domain.OrderID]domain.Order)}
}

func (m *memOrderRepo) Create(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.ID]; ok {
		return repository.ErrDuplicateOrder
	}
	m.orders[order.ID] = *order
	return nil
}

func (m *memOrderRepo) Update(_ context.Context, order *domain.Order, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.ID]; !ok {
		return repository.ErrOrderNotFound
	}
	m.orders[order.ID] = *order
	return nil
}

func (m *memOrderRepo) FindByID(_ context.Context, id domain.OrderID) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return &order, nil
}

func (m *memOrderRepo) ListByCustomerID(_ context.Context, customerID domain.CustomerID) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Order
	for _, order := range m.orders {
		if order.CustomerID == customerID {
			o := order
			out = append(out, &o)
		}
	}
	return out, nil
}

func (m *memOrderRepo) GetUnprocessedEvents(context.Context, int) ([]repository.OutboxEvent, error) {
	return nil, nil
}

func (m *memOrderRepo) MarkEventAsProcessed(context.Context, int64) error { return nil }
func (m *memOrderRepo) RunMigrations(*repository.Credentials) error       { return nil }
func (m *memOrderRepo) Close() error                                      { return nil }

type noopCache struct{}

func (noopCache) Get(context.Context, domain.CartID) (*domain.Cart, error) {
	return nil, cache.ErrCacheMiss
}
func (noopCache) Set(context.Context, *domain.Cart) error     { return nil }
func (noopCache) Delete(context.Context, domain.CartID) error { return nil }

type stubCatalog struct {
	products map[domain.ProductID]*service.ProductInfo
}

func (s *stubCatalog) GetProduct(_ context.Context, id domain.ProductID) (*service.ProductInfo, error) {
	if p, ok := s.products[id]; ok {
		return p, nil
	}
	return nil, service.ErrProductNotFound
}

type stubInventory struct {
	stock map[domain.ProductID]int
}

func (s *stubInventory) CheckStock(_ context.Context, id domain.ProductID, quantity int) error {
	if s.stock[id] < quantity {
		return service.ErrInsufficientStock
	}
	return nil
}
