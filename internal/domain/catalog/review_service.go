// internal/domain/catalog/review_service.go
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/estyshop/ecommerce-backend/internal/cache"
	"gorm.io/gorm"
)

// ReviewService handles product reviews and the rating aggregate
type ReviewService struct {
	db    *gorm.DB
	cache cache.Store
}

// NewReviewService creates a new review service
func NewReviewService(db *gorm.DB, store cache.Store) *ReviewService {
	return &ReviewService{
		db:    db,
		cache: store,
	}
}

// CreateReviewRequest represents review creation data
type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// CreateReview creates a review for a product. One review per (user,
// product); the rating aggregate on the product is recomputed in the same
// transaction.
func (s *ReviewService) CreateReview(ctx context.Context, userID uint, productSlug string, req *CreateReviewRequest) (*Review, error) {
	var product Product
	result := s.db.WithContext(ctx).Where("slug = ?", productSlug).First(&product)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", result.Error)
	}

	// Check for an existing review before inserting; the unique index still
	// backstops concurrent double-submits.
	var existing Review
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, product.ID).
		First(&existing).Error; err == nil {
		return nil, ErrDuplicateReview
	}

	// Verified purchase: the user has a paid order containing this product.
	var verified bool
	s.db.WithContext(ctx).Raw(`
		SELECT EXISTS(
			SELECT 1 FROM orders o
			JOIN order_items oi ON o.id = oi.order_id
			WHERE o.user_id = ? AND oi.product_id = ? AND o.payment_complete = ?
		)
	`, userID, product.ID, true).Scan(&verified)

	review := Review{
		ProductID:  product.ID,
		UserID:     userID,
		Rating:     req.Rating,
		Comment:    strings.TrimSpace(req.Comment),
		IsVerified: verified,
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&review).Error; err != nil {
		tx.Rollback()
		if isUniqueViolation(err) {
			return nil, ErrDuplicateReview
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	if err := s.refreshRatingAggregate(tx, product.ID); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit review: %w", err)
	}

	s.invalidate(ctx, product.Slug)
	return &review, nil
}

// ListReviews returns a product's reviews, newest first.
func (s *ReviewService) ListReviews(ctx context.Context, productSlug string, req *ListRequest) ([]Review, *Pagination, error) {
	req.Normalize()

	var product Product
	result := s.db.WithContext(ctx).Where("slug = ?", productSlug).First(&product)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil, ErrProductNotFound
		}
		return nil, nil, fmt.Errorf("failed to retrieve product: %w", result.Error)
	}

	query := s.db.WithContext(ctx).Model(&Review{}).Where("product_id = ?", product.ID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to count reviews: %w", err)
	}

	var reviews []Review
	offset := (req.Page - 1) * req.PageSize
	if err := query.Order("created_at DESC").Offset(offset).Limit(req.PageSize).Find(&reviews).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to retrieve reviews: %w", err)
	}

	pagination := NewPagination(req.Page, req.PageSize, total)
	return reviews, &pagination, nil
}

// DeleteReview removes the caller's review and recomputes the aggregate.
func (s *ReviewService) DeleteReview(ctx context.Context, userID uint, productSlug string) error {
	var product Product
	result := s.db.WithContext(ctx).Where("slug = ?", productSlug).First(&product)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to retrieve product: %w", result.Error)
	}

	var review Review
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, product.ID).
		First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("failed to retrieve review: %w", err)
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Unscoped().Delete(&review).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete review: %w", err)
	}

	if err := s.refreshRatingAggregate(tx, product.ID); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit review deletion: %w", err)
	}

	s.invalidate(ctx, product.Slug)
	return nil
}

// refreshRatingAggregate recomputes the product's average and count from
// the surviving reviews.
func (s *ReviewService) refreshRatingAggregate(tx *gorm.DB, productID uint) error {
	var agg struct {
		Average float64
		Count   int64
	}
	if err := tx.Model(&Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&agg).Error; err != nil {
		return fmt.Errorf("failed to compute rating aggregate: %w", err)
	}

	if err := tx.Model(&Product{}).Where("id = ?", productID).Updates(map[string]interface{}{
		"rating_average": agg.Average,
		"rating_count":   agg.Count,
	}).Error; err != nil {
		return fmt.Errorf("failed to update rating aggregate: %w", err)
	}
	return nil
}

func (s *ReviewService) invalidate(ctx context.Context, slug string) {
	_ = cache.Apply(ctx, s.cache, cache.ProductInvalidation(slug))
}

// isUniqueViolation reports whether err came from a uniqueness constraint.
// Matching on message text keeps this portable across postgres and the
// sqlite driver used in tests.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
