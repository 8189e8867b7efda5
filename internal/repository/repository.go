package repository

import (
	"context"
	"errors"
	"time"

	"github.com/telk/go_shop/internal/domain"
)

var (
	ErrCartNotFound   = errors.New("cart not found")
	ErrOrderNotFound  = errors.New("order not found")
	ErrDuplicateOrder = errors.New("order with this id already exists")
)

// CartRepository defines the cart persistence port.
// Consumers define this interface, not the MongoDB implementation.
type CartRepository interface {
	Save(ctx context.Context, cart *domain.Cart) error
	FindByID(ctx context.Context, id domain.CartID) (*domain.Cart, error)
	ExistsByID(ctx context.Context, id domain.CartID) (bool, error)
	DeleteByID(ctx context.Context, id domain.CartID) error
	FindActiveByCustomerID(ctx context.Context, customerID domain.CustomerID) (*domain.Cart, error)
	FindActiveByProductID(ctx context.Context, productID domain.ProductID) ([]domain.Cart, error)
	FindExpiredCarts(ctx context.Context, threshold time.Time) ([]domain.Cart, error)
}

// OutboxEvent is a pending domain event persisted in the same transaction
// as the order change that produced it.
type OutboxEvent struct {
	ID        int64
	OrderID   domain.OrderID
	EventType string
	Payload   []byte
	CreatedAt time.Time
}

// OrderRepository defines the order persistence port.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	Update(ctx context.Context, order *domain.Order, eventType string) error
	FindByID(ctx context.Context, id domain.OrderID) (*domain.Order, error)
	ListByCustomerID(ctx context.Context, customerID domain.CustomerID) ([]*domain.Order, error)
	GetUnprocessedEvents(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, eventID int64) error
	RunMigrations(cred *Credentials) error
	Close() error
}

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}
