// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/estyshop/ecommerce-backend/internal/config"
	"github.com/estyshop/ecommerce-backend/internal/domain/order"
)

// CheckoutHandler handles the cart-to-order conversion
type CheckoutHandler struct {
	orders *order.Service
	cart   *CartHandler
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(db *gorm.DB, cfg *config.Config) *CheckoutHandler {
	return &CheckoutHandler{
		orders: order.NewService(db, cfg),
		cart:   NewCartHandler(db, cfg),
	}
}

// Checkout handles POST /checkout. Guests check out with the shipping
// details in the body; account holders may reference a saved address via
// address_id instead.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	ident := h.cart.identity(c)

	var req order.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ord, err := h.orders.Checkout(c.Request.Context(), ident, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "Order placed successfully", gin.H{
		"order": ord,
	})
}
