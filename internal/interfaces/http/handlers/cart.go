// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/estyshop/ecommerce-backend/internal/config"
	"github.com/estyshop/ecommerce-backend/internal/domain/cart"
	"github.com/estyshop/ecommerce-backend/internal/interfaces/http/middleware"
	"github.com/estyshop/ecommerce-backend/internal/pkg/token"
)

const sessionHeader = "X-Cart-Session"

// CartHandler handles cart endpoints
type CartHandler struct {
	carts  *cart.Service
	config *config.Config
}

// NewCartHandler creates a new cart handler
func NewCartHandler(db *gorm.DB, cfg *config.Config) *CartHandler {
	return &CartHandler{
		carts:  cart.NewService(db, cfg),
		config: cfg,
	}
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	ident := h.identity(c)

	resp, err := h.carts.GetCart(c.Request.Context(), ident)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Cart retrieved successfully", resp)
}

// AddItem handles POST /cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	ident := h.identity(c)

	var req cart.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.carts.AddItem(c.Request.Context(), ident, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Item added to cart successfully", resp)
}

// UpdateItem handles PUT /cart/items/:id. The action field covers
// increment, decrement, set and remove, so item removal is DELETE
// /cart/items/:id or an equivalent update with action=remove.
func (h *CartHandler) UpdateItem(c *gin.Context) {
	ident := h.identity(c)

	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req cart.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.carts.UpdateItem(c.Request.Context(), ident, itemID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Cart updated successfully", resp)
}

// RemoveItem handles DELETE /cart/items/:id
func (h *CartHandler) RemoveItem(c *gin.Context) {
	ident := h.identity(c)

	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.carts.UpdateItem(c.Request.Context(), ident, itemID, &cart.UpdateItemRequest{
		Action: cart.ActionRemove,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Item removed from cart successfully", resp)
}

// Clear handles DELETE /cart
func (h *CartHandler) Clear(c *gin.Context) {
	ident := h.identity(c)

	resp, err := h.carts.Clear(c.Request.Context(), ident)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Cart cleared successfully", resp)
}

// identity resolves who owns the cart being addressed. The session key is
// read from the header first (API clients), then the cookie (browsers); an
// anonymous caller with neither gets a fresh session cookie. Authenticated
// callers keep their session key so a pre-login cart merges into their own.
func (h *CartHandler) identity(c *gin.Context) cart.Identity {
	sessionKey := c.GetHeader(sessionHeader)
	if sessionKey == "" {
		sessionKey, _ = c.Cookie(h.config.Checkout.SessionCookieName)
	}

	userID := middleware.GetOptionalUserID(c)

	if sessionKey == "" && userID == nil {
		sessionKey = token.SessionToken()
		c.SetCookie(
			h.config.Checkout.SessionCookieName,
			sessionKey,
			int(h.config.Checkout.SessionTTL.Seconds()),
			"/",
			"",
			h.config.IsProduction(),
			true,
		)
	}

	return cart.Identity{UserID: userID, SessionKey: sessionKey}
}
