// internal/domain/catalog/errors.go
package catalog

import "errors"

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrBrandNotFound    = errors.New("brand not found")
	ErrReviewNotFound   = errors.New("review not found")

	// ErrDuplicateReview enforces one review per (user, product).
	ErrDuplicateReview = errors.New("you have already reviewed this product")
)
