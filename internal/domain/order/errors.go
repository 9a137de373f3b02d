// internal/domain/order/errors.go
package order

import (
	"errors"
	"fmt"
)

var (
	// ErrOrderNotFound is returned when no order matches the lookup.
	ErrOrderNotFound = errors.New("order not found")

	// ErrEmptyCart is returned when checkout runs against a cart with no lines.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrCancelNotAllowed is returned when cancelling anything but a pending order.
	ErrCancelNotAllowed = errors.New("only pending orders can be cancelled")

	// ErrPaymentRequired is returned when moving to processing before
	// payment has completed.
	ErrPaymentRequired = errors.New("payment must be complete before processing")

	// ErrAddressRequired is returned when checkout has neither a saved
	// address nor inline shipping fields to work with.
	ErrAddressRequired = errors.New("shipping address is required")
)

// InsufficientStockError reports a checkout line whose quantity can no
// longer be covered by live stock. Available carries what is left.
type InsufficientStockError struct {
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

// InvalidTransitionError reports a status change the state graph forbids.
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}
