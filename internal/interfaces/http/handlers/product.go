// internal/interfaces/http/handlers/product.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/estyshop/ecommerce-backend/internal/cache"
	"github.com/estyshop/ecommerce-backend/internal/config"
	"github.com/estyshop/ecommerce-backend/internal/domain/catalog"
)

// ProductHandler handles the catalog read endpoints
type ProductHandler struct {
	products *catalog.Service
}

// NewProductHandler creates a new product handler
func NewProductHandler(db *gorm.DB, store cache.Store, cfg *config.Config) *ProductHandler {
	return &ProductHandler{
		products: catalog.NewService(db, store, cfg),
	}
}

// ListProducts handles GET /products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	var req catalog.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.products.ListProducts(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Products retrieved successfully", resp)
}

// GetProduct handles GET /products/:slug
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.products.GetProductBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Product retrieved successfully", product)
}

// ListTodaysDeals handles GET /deals
func (h *ProductHandler) ListTodaysDeals(c *gin.Context) {
	deals, err := h.products.ListTodaysDeals(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Deals retrieved successfully", deals)
}

// GetHomepage handles GET /home
func (h *ProductHandler) GetHomepage(c *gin.Context) {
	sections, err := h.products.ListHomepageSections(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Homepage retrieved successfully", sections)
}
