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
)

// Outbox event types recorded alongside order transitions.
const (
	EventOrderCreated    = "order-created"
	EventOrderPaid       = "order-paid"
	EventPaymentFailed   = "payment-failed"
	EventOrderCanceled   = "order-canceled"
	EventOrderCompleted  = "order-completed"
	EventRefundRequested = "refund-requested"
	EventOrderRefunded   = "order-refunded"
)

// OrderItemRequest is the caller's view of one order line before the
// catalog snapshot is taken.
type OrderItemRequest struct {
	ProductID string
	Quantity  int
	Options   map[string]string
}

// OrderService drives the order lifecycle. Each operation loads one order,
// applies one aggregate transition and persists the result together with
// its outbox event.
type OrderService struct {
	orders    repository.OrderRepository
	carts     repository.CartRepository
	cartCache cache.CartCache
	catalog   ProductCatalog
	inventory InventoryChecker
	clock     domain.TimeProvider
}

func NewOrderService(orders repository.OrderRepository, carts repository.CartRepository, cartCache cache.CartCache, catalog ProductCatalog, inventory InventoryChecker, clock domain.TimeProvider) *OrderService {
	return &OrderService{
		orders:    orders,
		carts:     carts,
		cartCache: cartCache,
		catalog:   catalog,
		inventory: inventory,
		clock:     clock,
	}
}

// CreateOrder builds price/name snapshots for the requested lines and
// creates a PENDING order.
func (s *OrderService) CreateOrder(ctx context.Context, customerID string, requests []OrderItemRequest, message, channel string) (*domain.Order, error) {
	cid, err := domain.NewCustomerID(customerID)
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	items := make([]domain.OrderItem, 0, len(requests))
	for _, req := range requests {
		item, err := s.snapshotItem(ctx, req)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	order, err := domain.NewOrder(s.clock, cid, items, message, channel)
	if err != nil {
		return nil, err
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}
	log.Printf("order %s created for customer %s, total %d", order.ID, order.CustomerID, order.TotalAmount)
	return order, nil
}

// Checkout converts a cart into an order. The cart's conversion is one-way;
// the order is created from the frozen line snapshot with current catalog
// prices.
func (s *OrderService) Checkout(ctx context.Context, cartID, message, channel string) (*domain.Order, error) {
	id, err := domain.NewCartID(cartID)
	if err != nil {
		return nil, err
	}
	cart, err := s.carts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	for _, line := range cart.Items {
		if !line.Available {
			return nil, fmt.Errorf("%w: %s (%s)", ErrItemUnavailable, line.ProductID, line.UnavailableReason)
		}
	}

	snapshot, err := cart.ConvertToOrder(s.clock)
	if err != nil {
		return nil, err
	}

	items := make([]domain.OrderItem, 0, len(snapshot))
	for _, line := range snapshot {
		item, err := s.snapshotItem(ctx, OrderItemRequest{
			ProductID: string(line.ProductID),
			Quantity:  line.Quantity,
			Options:   line.Options,
		})
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	order, err := domain.NewOrderFromCart(s.clock, cart.ID, cart.CustomerID, items, message, channel)
	if err != nil {
		return nil, err
	}
	if err := s.orders.Create(ctx, order); err != nil {
		if !errors.Is(err, repository.ErrDuplicateOrder) {
			return nil, err
		}
		// The order id is derived from the cart id, so the collision means a
		// previous checkout already created the order but may have died before
		// the conversion flag was persisted. Finish that work and return the
		// existing order.
		existing, findErr := s.orders.FindByID(ctx, order.ID)
		if findErr != nil {
			return nil, findErr
		}
		if saveErr := s.carts.Save(ctx, cart); saveErr != nil {
			return nil, saveErr
		}
		s.dropCachedCart(cart.ID)
		log.Printf("cart %s checkout retried, returning order %s", cart.ID, existing.ID)
		return existing, nil
	}
	if err := s.carts.Save(ctx, cart); err != nil {
		// The order exists; the cart conversion flag must not be lost.
		log.Printf("failed to persist converted cart %s for order %s: %v", cart.ID, order.ID, err)
		return nil, err
	}
	s.dropCachedCart(cart.ID)
	log.Printf("cart %s checked out as order %s", cart.ID, order.ID)
	return order, nil
}

// dropCachedCart evicts the cached cart so reads after checkout see the
// converted state instead of a stale unconverted copy.
func (s *OrderService) dropCachedCart(cartID domain.CartID) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cartCache.Delete(ctx, cartID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}

func (s *OrderService) snapshotItem(ctx context.Context, req OrderItemRequest) (domain.OrderItem, error) {
	pid, err := domain.NewProductID(req.ProductID)
	if err != nil {
		return domain.OrderItem{}, err
	}
	product, err := s.catalog.GetProduct(ctx, pid)
	if err != nil {
		return domain.OrderItem{}, err
	}
	if err := s.inventory.CheckStock(ctx, pid, req.Quantity); err != nil {
		return domain.OrderItem{}, err
	}
	return domain.NewOrderItem(pid, product.Name, product.Price, req.Quantity, req.Options)
}

func (s *OrderService) ConfirmPayment(ctx context.Context, orderID, paymentID string) (*domain.Order, error) {
	pid, err := domain.NewPaymentID(paymentID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, orderID, EventOrderPaid, func(o *domain.Order) error {
		return o.ConfirmPayment(s.clock, pid)
	})
}

func (s *OrderService) FailPayment(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.transition(ctx, orderID, EventPaymentFailed, func(o *domain.Order) error {
		return o.FailPayment(s.clock)
	})
}

func (s *OrderService) CancelOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.transition(ctx, orderID, EventOrderCanceled, func(o *domain.Order) error {
		return o.Cancel(s.clock)
	})
}

func (s *OrderService) ConfirmPurchase(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.transition(ctx, orderID, EventOrderCompleted, func(o *domain.Order) error {
		return o.ConfirmPurchase(s.clock)
	})
}

func (s *OrderService) RequestRefund(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.transition(ctx, orderID, EventRefundRequested, func(o *domain.Order) error {
		return o.RequestRefund(s.clock)
	})
}

func (s *OrderService) Refund(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.transition(ctx, orderID, EventOrderRefunded, func(o *domain.Order) error {
		return o.Refund(s.clock)
	})
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	id, err := domain.NewOrderID(orderID)
	if err != nil {
		return nil, err
	}
	return s.orders.FindByID(ctx, id)
}

func (s *OrderService) ListOrders(ctx context.Context, customerID string) ([]*domain.Order, error) {
	cid, err := domain.NewCustomerID(customerID)
	if err != nil {
		return nil, err
	}
	return s.orders.ListByCustomerID(ctx, cid)
}

// transition loads the order, applies one state-machine operation and, only
// if the aggregate accepted it, persists the new state with its event.
func (s *OrderService) transition(ctx context.Context, orderID, eventType string, op func(*domain.Order) error) (*domain.Order, error) {
	id, err := domain.NewOrderID(orderID)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := op(order); err != nil {
		return nil, err
	}
	if err := s.orders.Update(ctx, order, eventType); err != nil {
		return nil, err
	}
	log.Printf("order %s moved to %s", order.ID, order.Status)
	return order, nil
}
