// internal/interfaces/http/handlers/user_address.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/estyshop/ecommerce-backend/internal/config"
	"github.com/estyshop/ecommerce-backend/internal/domain/user"
	"github.com/estyshop/ecommerce-backend/internal/interfaces/http/middleware"
)

// AddressHandler handles the saved address book endpoints
type AddressHandler struct {
	addresses *user.AddressService
}

// NewAddressHandler creates a new address handler
func NewAddressHandler(db *gorm.DB, cfg *config.Config) *AddressHandler {
	return &AddressHandler{
		addresses: user.NewAddressService(db, cfg),
	}
}

// ListAddresses handles GET /addresses
func (h *AddressHandler) ListAddresses(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	addresses, err := h.addresses.ListAddresses(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Addresses retrieved successfully", addresses)
}

// CreateAddress handles POST /addresses
func (h *AddressHandler) CreateAddress(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	var req user.CreateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	address, err := h.addresses.CreateAddress(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "Address created successfully", address)
}

// UpdateAddress handles PUT /addresses/:id
func (h *AddressHandler) UpdateAddress(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	addressID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req user.UpdateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	address, err := h.addresses.UpdateAddress(c.Request.Context(), userID, addressID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Address updated successfully", address)
}

// DeleteAddress handles DELETE /addresses/:id
func (h *AddressHandler) DeleteAddress(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	addressID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.addresses.DeleteAddress(c.Request.Context(), userID, addressID); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Address deleted successfully", nil)
}

// SetDefaultAddress handles POST /addresses/:id/default
func (h *AddressHandler) SetDefaultAddress(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	addressID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	address, err := h.addresses.SetDefaultAddress(c.Request.Context(), userID, addressID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Default address updated successfully", address)
}

// parseIDParam reads a numeric path parameter, writing the 400 itself when
// the value is not a positive integer.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " parameter"})
		return 0, false
	}
	return uint(id), true
}
