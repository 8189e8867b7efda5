package domain

import (
	"errors"
	"fmt"
)

// Validation errors: malformed input, rejected before any mutation.
var (
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrInvalidQuantity   = errors.New("quantity must be between 1 and 99")
	ErrInvalidOrderItem  = errors.New("invalid order item")
	ErrEmptyOrder        = errors.New("order must contain at least one item")
)

// State-conflict errors: the operation is well-formed but the aggregate
// is not in a state that permits it. The aggregate is left unchanged.
var (
	ErrInvalidCartState     = errors.New("invalid cart state")
	ErrCartAlreadyConverted = fmt.Errorf("%w: cart already converted to an order", ErrInvalidCartState)
	ErrCartItemLimit        = fmt.Errorf("cart cannot hold more than %d distinct items", MaxDistinctItems)
	ErrInvalidOrderStatus   = errors.New("operation not allowed in current order status")
	ErrRefundWindowExpired  = fmt.Errorf("%w: refund window of %d days has expired", ErrInvalidOrderStatus, refundWindowDays)
)

// IsValidationError reports whether err is a malformed-input rejection
// rather than a state conflict. The HTTP layer maps the former to 400
// and the latter to 409.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidIdentifier) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidOrderItem) ||
		errors.Is(err, ErrEmptyOrder)
}

func wrapf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
