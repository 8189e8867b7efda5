package domain

// OrderStatus is the order lifecycle state.
type OrderStatus string

const (
	OrderStatusPending          OrderStatus = "PENDING"
	OrderStatusPaid             OrderStatus = "PAID"
	OrderStatusPaymentFailed    OrderStatus = "PAYMENT_FAILED"
	OrderStatusCompleted        OrderStatus = "COMPLETED"
	OrderStatusRefundInProgress OrderStatus = "REFUND_IN_PROGRESS"
	OrderStatusRefunded         OrderStatus = "REFUNDED"
	OrderStatusCanceled         OrderStatus = "CANCELED"
)

// orderTransitions is the single source of truth for the lifecycle.
// Cancellation after payment must go through the refund path.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:          {OrderStatusPaid, OrderStatusPaymentFailed, OrderStatusCanceled},
	OrderStatusPaid:             {OrderStatusCompleted},
	OrderStatusPaymentFailed:    {OrderStatusCanceled},
	OrderStatusCompleted:        {OrderStatusRefundInProgress},
	OrderStatusRefundInProgress: {OrderStatusRefunded},
	OrderStatusRefunded:         {},
	OrderStatusCanceled:         {},
}

// CanTransitionTo reports whether the lifecycle permits moving to target.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}
