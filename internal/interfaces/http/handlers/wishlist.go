// internal/interfaces/http/handlers/wishlist.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/estyshop/ecommerce-backend/internal/config"
	"github.com/estyshop/ecommerce-backend/internal/domain/cart"
	"github.com/estyshop/ecommerce-backend/internal/domain/wishlist"
	"github.com/estyshop/ecommerce-backend/internal/interfaces/http/middleware"
)

// WishlistHandler handles wishlist endpoints
type WishlistHandler struct {
	wishlists *wishlist.Service
}

// NewWishlistHandler creates a new wishlist handler
func NewWishlistHandler(db *gorm.DB, cfg *config.Config) *WishlistHandler {
	return &WishlistHandler{
		wishlists: wishlist.NewService(db, cart.NewService(db, cfg)),
	}
}

// GetWishlist handles GET /wishlist
func (h *WishlistHandler) GetWishlist(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	resp, err := h.wishlists.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Wishlist retrieved successfully", resp)
}

// AddToWishlist handles POST /wishlist/:productID
func (h *WishlistHandler) AddToWishlist(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	productID, ok := parseIDParam(c, "productID")
	if !ok {
		return
	}

	item, err := h.wishlists.Add(c.Request.Context(), userID, productID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "Product saved to wishlist", item)
}

// RemoveFromWishlist handles DELETE /wishlist/:productID
func (h *WishlistHandler) RemoveFromWishlist(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	productID, ok := parseIDParam(c, "productID")
	if !ok {
		return
	}

	if err := h.wishlists.Remove(c.Request.Context(), userID, productID); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Product removed from wishlist", nil)
}

// ClearWishlist handles DELETE /wishlist
func (h *WishlistHandler) ClearWishlist(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := h.wishlists.Clear(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Wishlist cleared successfully", nil)
}

// MoveToCart handles POST /wishlist/:productID/move-to-cart
func (h *WishlistHandler) MoveToCart(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	productID, ok := parseIDParam(c, "productID")
	if !ok {
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}

	resp, err := h.wishlists.MoveToCart(c.Request.Context(), userID, productID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Product moved to cart", resp)
}
