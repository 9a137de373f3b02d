// internal/interfaces/http/handlers/category.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/estyshop/ecommerce-backend/internal/cache"
	"github.com/estyshop/ecommerce-backend/internal/config"
	"github.com/estyshop/ecommerce-backend/internal/domain/catalog"
)

// CategoryHandler handles category and brand endpoints
type CategoryHandler struct {
	categories *catalog.CategoryService
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(db *gorm.DB, store cache.Store, cfg *config.Config) *CategoryHandler {
	return &CategoryHandler{
		categories: catalog.NewCategoryService(db, store, cfg),
	}
}

// ListCategories handles GET /categories
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.categories.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Categories retrieved successfully", categories)
}

// GetCategory handles GET /categories/:slug
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	category, err := h.categories.GetCategoryBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Category retrieved successfully", category)
}

// ListCategoryProducts handles GET /categories/:slug/products
func (h *CategoryHandler) ListCategoryProducts(c *gin.Context) {
	var req catalog.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.categories.ListCategoryProducts(c.Request.Context(), c.Param("slug"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Category products retrieved successfully", resp)
}

// ListBrands handles GET /brands
func (h *CategoryHandler) ListBrands(c *gin.Context) {
	brands, err := h.categories.ListBrands(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Brands retrieved successfully", brands)
}

// ListBrandProducts handles GET /brands/:slug/products
func (h *CategoryHandler) ListBrandProducts(c *gin.Context) {
	var req catalog.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.categories.ListBrandProducts(c.Request.Context(), c.Param("slug"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Brand products retrieved successfully", resp)
}
