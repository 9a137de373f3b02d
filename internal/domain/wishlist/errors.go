// internal/domain/wishlist/errors.go
package wishlist

import "errors"

var (
	// ErrAlreadySaved is returned when adding a product the user has
	// already saved.
	ErrAlreadySaved = errors.New("product already in wishlist")

	// ErrItemNotFound is returned when removing or moving a product
	// that is not in the wishlist.
	ErrItemNotFound = errors.New("wishlist item not found")
)
