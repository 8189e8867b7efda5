package service

import (
	"context"
	"sync"
	"time"

	"github.com/telk/go_shop/internal/cache"
	"github.com/telk/go_shop/internal/domain"
	"github.com/telk/go_shop/internal/repository"
)

// fixedClock is the deterministic TimeProvider for service tests.
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func newFixedClock() *fixedClock {
	return &fixedClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

// mockCartRepository implements repository.CartRepository in memory.
type mockCartRepository struct {
	mu      sync.Mutex
	carts   map[domain.CartID]*domain.Cart
	err     error
	saveErr error
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{carts: make(map[domain.CartID]*domain.Cart)}
}

func (m *mockCartRepository) Save(_ context.Context, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.saveErr != nil {
		return m.saveErr
	}
	copied := *cart
	m.carts[cart.ID] = &copied
	return nil
}

func (m *mockCartRepository) FindByID(_ context.Context, id domain.CartID) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	cart, ok := m.carts[id]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	copied := *cart
	return &copied, nil
}

func (m *mockCartRepository) ExistsByID(_ context.Context, id domain.CartID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.carts[id]
	return ok, m.err
}

func (m *mockCartRepository) DeleteByID(_ context.Context, id domain.CartID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.carts[id]; !ok {
		return repository.ErrCartNotFound
	}
	delete(m.carts, id)
	return nil
}

func (m *mockCartRepository) FindActiveByCustomerID(_ context.Context, customerID domain.CustomerID) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, cart := range m.carts {
		if cart.CustomerID == customerID && !cart.Converted {
			copied := *cart
			return &copied, nil
		}
	}
	return nil, repository.ErrCartNotFound
}

func (m *mockCartRepository) FindActiveByProductID(_ context.Context, productID domain.ProductID) ([]domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.Cart
	for _, cart := range m.carts {
		if cart.Converted {
			continue
		}
		for _, item := range cart.Items {
			if item.ProductID == productID {
				result = append(result, *cart)
				break
			}
		}
	}
	return result, m.err
}

func (m *mockCartRepository) FindExpiredCarts(_ context.Context, threshold time.Time) ([]domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.Cart
	for _, cart := range m.carts {
		if cart.UpdatedAt.Before(threshold) {
			result = append(result, *cart)
		}
	}
	return result, m.err
}

// mockOrderRepository implements repository.OrderRepository in memory and
// records outbox events per transition.
type mockOrderRepository struct {
	mu     sync.Mutex
	orders map[domain.OrderID]*domain.Order
	events []string
	err    error
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: make(map[domain.OrderID]*domain.Order)}
}

func (m *mockOrderRepository) Create(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.orders[order.ID]; ok {
		return repository.ErrDuplicateOrder
	}
	copied := *order
	m.orders[order.ID] = &copied
	m.events = append(m.events, EventOrderCreated)
	return nil
}

func (m *mockOrderRepository) Update(_ context.Context, order *domain.Order, eventType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.orders[order.ID]; !ok {
		return repository.ErrOrderNotFound
	}
	copied := *order
	m.orders[order.ID] = &copied
	m.events = append(m.events, eventType)
	return nil
}

func (m *mockOrderRepository) FindByID(_ context.Context, id domain.OrderID) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *mockOrderRepository) ListByCustomerID(_ context.Context, customerID domain.CustomerID) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Order
	for _, order := range m.orders {
		if order.CustomerID == customerID {
			copied := *order
			result = append(result, &copied)
		}
	}
	return result, m.err
}

func (m *mockOrderRepository) GetUnprocessedEvents(context.Context, int) ([]repository.OutboxEvent, error) {
	return nil, nil
}

func (m *mockOrderRepository) MarkEventAsProcessed(context.Context, int64) error { return nil }
func (m *mockOrderRepository) RunMigrations(*repository.Credentials) error       { return nil }
func (m *mockOrderRepository) Close() error                                      { return nil }

// mockCache implements cache.CartCache in memory.
type mockCache struct {
	mu    sync.Mutex
	carts map[domain.CartID]*domain.Cart
}

func newMockCache() *mockCache {
	return &mockCache{carts: make(map[domain.CartID]*domain.Cart)}
}

func (m *mockCache) Get(_ context.Context, cartID domain.CartID) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[cartID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return cart, nil
}

func (m *mockCache) Set(_ context.Context, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[cart.ID] = cart
	return nil
}

func (m *mockCache) Delete(_ context.Context, cartID domain.CartID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, cartID)
	return nil
}

// mockCatalog implements ProductCatalog from a fixed product map.
type mockCatalog struct {
	products map[domain.ProductID]*ProductInfo
	err      error
}

func (m *mockCatalog) GetProduct(_ context.Context, id domain.ProductID) (*ProductInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	product, ok := m.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// mockInventory implements InventoryChecker; stock holds per-product limits.
type mockInventory struct {
	stock map[domain.ProductID]int
	err   error
}

func (m *mockInventory) CheckStock(_ context.Context, id domain.ProductID, quantity int) error {
	if m.err != nil {
		return m.err
	}
	if available, ok := m.stock[id]; ok && available < quantity {
		return ErrInsufficientStock
	}
	return nil
}

func defaultCatalog() *mockCatalog {
	return &mockCatalog{products: map[domain.ProductID]*ProductInfo{
		"p1": {ID: "p1", Name: "Mechanical Keyboard", SKU: "SKU-1", Price: 10000},
		"p2": {ID: "p2", Name: "Barrel Mouse", SKU: "SKU-2", Price: 10000},
		"p3": {ID: "p3", Name: "Desk Mat", SKU: "SKU-3", Price: 4500},
	}}
}
