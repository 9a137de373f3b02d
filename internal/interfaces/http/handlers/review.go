// internal/interfaces/http/handlers/review.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/estyshop/ecommerce-backend/internal/cache"
	"github.com/estyshop/ecommerce-backend/internal/domain/catalog"
	"github.com/estyshop/ecommerce-backend/internal/interfaces/http/middleware"
)

// ReviewHandler handles product review endpoints
type ReviewHandler struct {
	reviews *catalog.ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(db *gorm.DB, store cache.Store) *ReviewHandler {
	return &ReviewHandler{
		reviews: catalog.NewReviewService(db, store),
	}
}

// ListReviews handles GET /products/:slug/reviews
func (h *ReviewHandler) ListReviews(c *gin.Context) {
	var req catalog.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	reviews, pagination, err := h.reviews.ListReviews(c.Request.Context(), c.Param("slug"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Reviews retrieved successfully", gin.H{
		"reviews":    reviews,
		"pagination": pagination,
	})
}

// CreateReview handles POST /products/:slug/reviews
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req catalog.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	review, err := h.reviews.CreateReview(c.Request.Context(), userID, c.Param("slug"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "Review submitted successfully", review)
}

// DeleteReview handles DELETE /products/:slug/reviews. A user holds at
// most one review per product, so the slug identifies it.
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := h.reviews.DeleteReview(c.Request.Context(), userID, c.Param("slug")); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Review deleted successfully", nil)
}
