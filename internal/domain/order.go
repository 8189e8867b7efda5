package domain

import (
	"maps"
	"time"

	"github.com/google/uuid"
)

const refundWindowDays = 7

// RefundWindow is how long after completion a refund may still be requested.
const RefundWindow = refundWindowDays * 24 * time.Hour

// OrderItem is a point-in-time price and name snapshot of one product.
// It is validated once, at order creation, and never mutated: later catalog
// changes do not affect it.
type OrderItem struct {
	ID          string            `json:"id"`
	OrderID     OrderID           `json:"order_id"`
	ProductID   ProductID         `json:"product_id"`
	ProductName string            `json:"product_name"`
	UnitPrice   Money             `json:"unit_price"`
	Quantity    int               `json:"quantity"`
	Amount      Money             `json:"amount"`
	Options     map[string]string `json:"options,omitempty"`
}

// NewOrderItem builds a snapshot line, computing Amount eagerly.
func NewOrderItem(productID ProductID, productName string, unitPrice Money, quantity int, options map[string]string) (OrderItem, error) {
	if isBlank(string(productID)) {
		return OrderItem{}, wrapf(ErrInvalidOrderItem, "product id must not be blank")
	}
	if isBlank(productName) {
		return OrderItem{}, wrapf(ErrInvalidOrderItem, "product name must not be blank")
	}
	if unitPrice < 0 {
		return OrderItem{}, wrapf(ErrInvalidOrderItem, "unit price must not be negative, got %d", unitPrice)
	}
	if quantity < 1 {
		return OrderItem{}, wrapf(ErrInvalidOrderItem, "quantity must be at least 1, got %d", quantity)
	}
	return OrderItem{
		ID:          uuid.NewString(),
		ProductID:   productID,
		ProductName: productName,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
		Amount:      unitPrice * Money(quantity),
		Options:     maps.Clone(options),
	}, nil
}

// Order is a finalized purchase progressing through a fixed lifecycle.
// Items and TotalAmount are frozen at creation; only Status, PaymentID,
// CompletedAt and UpdatedAt change afterwards, and only through the
// transition methods below. A rejected transition leaves the order as it was.
type Order struct {
	ID          OrderID     `json:"id"`
	CustomerID  CustomerID  `json:"customer_id"`
	Items       []OrderItem `json:"items"`
	Status      OrderStatus `json:"status"`
	TotalAmount Money       `json:"total_amount"`
	Message     string      `json:"message,omitempty"`
	Channel     string      `json:"channel,omitempty"`
	PaymentID   PaymentID   `json:"payment_id,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// NewOrder creates a PENDING order from a non-empty item snapshot.
// TotalAmount is the exact sum of the item amounts.
func NewOrder(tp TimeProvider, customerID CustomerID, items []OrderItem, message, channel string) (*Order, error) {
	return newOrder(tp, OrderID(uuid.NewString()), customerID, items, message, channel)
}

// NewOrderFromCart creates a PENDING order for a cart checkout. The order id
// is derived from the cart id, so a retried checkout of the same cart mints
// the same id and collides with the already-created order instead of creating
// a second one.
func NewOrderFromCart(tp TimeProvider, cartID CartID, customerID CustomerID, items []OrderItem, message, channel string) (*Order, error) {
	if isBlank(string(cartID)) {
		return nil, wrapf(ErrInvalidIdentifier, "cart id must not be blank")
	}
	id := OrderID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(cartID)).String())
	return newOrder(tp, id, customerID, items, message, channel)
}

func newOrder(tp TimeProvider, orderID OrderID, customerID CustomerID, items []OrderItem, message, channel string) (*Order, error) {
	if isBlank(string(customerID)) {
		return nil, wrapf(ErrInvalidIdentifier, "customer id must not be blank")
	}
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	var total Money
	owned := make([]OrderItem, len(items))
	for i, item := range items {
		item.OrderID = orderID
		owned[i] = item
		total += item.Amount
	}

	now := tp.Now()
	return &Order{
		ID:          orderID,
		CustomerID:  customerID,
		Items:       owned,
		Status:      OrderStatusPending,
		TotalAmount: total,
		Message:     message,
		Channel:     channel,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ConfirmPayment records the payment and moves PENDING -> PAID.
func (o *Order) ConfirmPayment(tp TimeProvider, paymentID PaymentID) error {
	if isBlank(string(paymentID)) {
		return wrapf(ErrInvalidIdentifier, "payment id must not be blank")
	}
	if err := o.guard(OrderStatusPaid); err != nil {
		return err
	}
	o.PaymentID = paymentID
	o.Status = OrderStatusPaid
	o.UpdatedAt = tp.Now()
	return nil
}

// FailPayment moves PENDING -> PAYMENT_FAILED.
func (o *Order) FailPayment(tp TimeProvider) error {
	if err := o.guard(OrderStatusPaymentFailed); err != nil {
		return err
	}
	o.Status = OrderStatusPaymentFailed
	o.UpdatedAt = tp.Now()
	return nil
}

// Cancel moves PENDING or PAYMENT_FAILED -> CANCELED. A paid order cannot
// be canceled here; it has to go through the refund path.
func (o *Order) Cancel(tp TimeProvider) error {
	if err := o.guard(OrderStatusCanceled); err != nil {
		return err
	}
	o.Status = OrderStatusCanceled
	o.UpdatedAt = tp.Now()
	return nil
}

// ConfirmPurchase moves PAID -> COMPLETED and stamps CompletedAt, which
// starts the refund window.
func (o *Order) ConfirmPurchase(tp TimeProvider) error {
	if err := o.guard(OrderStatusCompleted); err != nil {
		return err
	}
	now := tp.Now()
	o.Status = OrderStatusCompleted
	o.CompletedAt = &now
	o.UpdatedAt = now
	return nil
}

// RequestRefund moves COMPLETED -> REFUND_IN_PROGRESS if no more than
// RefundWindow has elapsed since completion.
func (o *Order) RequestRefund(tp TimeProvider) error {
	if err := o.guard(OrderStatusRefundInProgress); err != nil {
		return err
	}
	now := tp.Now()
	if o.CompletedAt == nil || now.Sub(*o.CompletedAt) > RefundWindow {
		return ErrRefundWindowExpired
	}
	o.Status = OrderStatusRefundInProgress
	o.UpdatedAt = now
	return nil
}

// Refund moves REFUND_IN_PROGRESS -> REFUNDED.
func (o *Order) Refund(tp TimeProvider) error {
	if err := o.guard(OrderStatusRefunded); err != nil {
		return err
	}
	o.Status = OrderStatusRefunded
	o.UpdatedAt = tp.Now()
	return nil
}

func (o *Order) guard(target OrderStatus) error {
	if !o.Status.CanTransitionTo(target) {
		return wrapf(ErrInvalidOrderStatus, "cannot move from %s to %s", o.Status, target)
	}
	return nil
}
