// internal/interfaces/http/handlers/payment.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/estyshop/ecommerce-backend/internal/cache"
	"github.com/estyshop/ecommerce-backend/internal/config"
	"github.com/estyshop/ecommerce-backend/internal/domain/order"
	"github.com/estyshop/ecommerce-backend/internal/domain/payment"
	"github.com/estyshop/ecommerce-backend/internal/interfaces/http/middleware"
	"github.com/estyshop/ecommerce-backend/internal/pkg/email"
)

// PaymentHandler handles payment endpoints
type PaymentHandler struct {
	payments *payment.Service
	config   *config.Config
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(db *gorm.DB, store cache.Store, cfg *config.Config) *PaymentHandler {
	client := payment.NewClient(cfg)
	orders := order.NewService(db, cfg)
	mailer := email.NewService(cfg)

	return &PaymentHandler{
		payments: payment.NewService(cfg, client, orders, store, mailer),
		config:   cfg,
	}
}

// InitiatePayment handles GET /payments/initiate/:orderNumber. Guests
// initiate with the session that placed the order; account holders with
// their token. Calling it again for an unpaid order is always safe.
func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	userID := middleware.GetOptionalUserID(c)

	resp, err := h.payments.Initialize(c.Request.Context(), userID, c.Param("orderNumber"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Payment initialized successfully", resp)
}

// VerifyPayment handles GET /payments/verify. The provider redirects
// back with both reference and trxref set to the same value; either is
// accepted.
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	reference := c.Query("reference")
	if reference == "" {
		reference = c.Query("trxref")
	}

	result, err := h.payments.Verify(c.Request.Context(), reference)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Payment verified successfully", result)
}

// ListBanks handles GET /payments/banks
func (h *PaymentHandler) ListBanks(c *gin.Context) {
	banks, err := h.payments.ListBanks(c.Request.Context(), c.Query("country"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Banks retrieved successfully", gin.H{
		"banks": banks,
	})
}

// ResolveAccount handles GET /payments/banks/resolve
func (h *PaymentHandler) ResolveAccount(c *gin.Context) {
	account, err := h.payments.ResolveAccount(
		c.Request.Context(),
		c.Query("account_number"),
		c.Query("bank_code"),
	)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "Account resolved successfully", account)
}
