// internal/domain/cart/errors.go
package cart

import (
	"errors"
	"fmt"
)

var (
	// ErrCartNotFound is returned when no cart matches the identity or ID.
	ErrCartNotFound = errors.New("cart not found")

	// ErrItemNotFound is returned when the referenced line is not in the cart.
	ErrItemNotFound = errors.New("cart item not found")

	// ErrProductUnavailable is returned when the product cannot enter a cart,
	// either because it is disabled or because it has no stock at all.
	ErrProductUnavailable = errors.New("product is not available for purchase")

	// ErrQuantityRequired is returned when a set action arrives without a quantity.
	ErrQuantityRequired = errors.New("quantity is required for set action")

	// ErrConcurrentUpdate is returned when two requests race to create the
	// same (cart, product, size) line and the unique index rejects one.
	ErrConcurrentUpdate = errors.New("cart was modified by a concurrent request")
)

// OutOfStockError reports a quantity that exceeds the live stock level.
// Available carries the stock count so callers can surface it.
type OutOfStockError struct {
	ProductName string
	Requested   int
	Available   int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}
