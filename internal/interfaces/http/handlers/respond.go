// internal/interfaces/http/handlers/respond.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/estyshop/ecommerce-backend/internal/domain/cart"
	"github.com/estyshop/ecommerce-backend/internal/domain/catalog"
	"github.com/estyshop/ecommerce-backend/internal/domain/order"
	"github.com/estyshop/ecommerce-backend/internal/domain/payment"
	"github.com/estyshop/ecommerce-backend/internal/domain/user"
	"github.com/estyshop/ecommerce-backend/internal/domain/wishlist"
	"github.com/estyshop/ecommerce-backend/internal/pkg/auth"
)

// respondOK writes the standard success envelope
func respondOK(c *gin.Context, message string, data interface{}) {
	if data == nil {
		c.JSON(http.StatusOK, gin.H{"message": message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "data": data})
}

// respondCreated writes the success envelope with a 201
func respondCreated(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"message": message, "data": data})
}

// respondBindError reports a request body or query string that failed
// binding validation.
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request data",
		"details": err.Error(),
	})
}

// respondError maps a domain error onto its HTTP status. Validation and
// business-rule failures surface their message; anything unmapped is a 500
// whose detail goes to the log, never to the client.
func respondError(c *gin.Context, err error) {
	if isNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	if errors.Is(err, user.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	// Retryable: the client can replay the same request.
	if errors.Is(err, cart.ErrConcurrentUpdate) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	if writeStockError(c, err) {
		return
	}

	if writeProviderError(c, err) {
		return
	}

	if isBadRequest(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logrus.WithError(err).WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"path":       c.FullPath(),
	}).Error("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
}

func isNotFound(err error) bool {
	return errors.Is(err, catalog.ErrProductNotFound) ||
		errors.Is(err, catalog.ErrCategoryNotFound) ||
		errors.Is(err, catalog.ErrBrandNotFound) ||
		errors.Is(err, catalog.ErrReviewNotFound) ||
		errors.Is(err, cart.ErrCartNotFound) ||
		errors.Is(err, cart.ErrItemNotFound) ||
		errors.Is(err, order.ErrOrderNotFound) ||
		errors.Is(err, user.ErrUserNotFound) ||
		errors.Is(err, user.ErrAddressNotFound) ||
		errors.Is(err, wishlist.ErrItemNotFound)
}

// writeStockError writes the 400 with remaining-quantity detail for the
// two stock shortfall shapes and reports whether it did.
func writeStockError(c *gin.Context, err error) bool {
	var cartStock *cart.OutOfStockError
	if errors.As(err, &cartStock) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     cartStock.Error(),
			"product":   cartStock.ProductName,
			"requested": cartStock.Requested,
			"available": cartStock.Available,
		})
		return true
	}

	var orderStock *order.InsufficientStockError
	if errors.As(err, &orderStock) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     orderStock.Error(),
			"product":   orderStock.ProductName,
			"requested": orderStock.Requested,
			"available": orderStock.Available,
		})
		return true
	}

	return false
}

// writeProviderError writes the 502 for payment provider trouble and
// reports whether it did. The provider's own detail stays in the log.
func writeProviderError(c *gin.Context, err error) bool {
	var provider *payment.ProviderError
	if !errors.As(err, &provider) {
		return false
	}

	logrus.WithError(err).WithFields(logrus.Fields{
		"request_id":  c.GetString("request_id"),
		"status_code": provider.StatusCode,
	}).Error("payment provider request failed")

	if provider.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(int(provider.RetryAfter.Seconds())))
	}
	c.JSON(http.StatusBadGateway, gin.H{
		"error": "Payment provider is unavailable, please try again shortly",
	})
	return true
}

func isBadRequest(err error) bool {
	var transition *order.InvalidTransitionError
	var mismatch *payment.AmountMismatchError
	var weak *auth.WeakPasswordError

	return errors.Is(err, order.ErrEmptyCart) ||
		errors.Is(err, order.ErrAddressRequired) ||
		errors.Is(err, order.ErrCancelNotAllowed) ||
		errors.Is(err, order.ErrPaymentRequired) ||
		errors.Is(err, cart.ErrProductUnavailable) ||
		errors.Is(err, cart.ErrQuantityRequired) ||
		errors.Is(err, catalog.ErrDuplicateReview) ||
		errors.Is(err, wishlist.ErrAlreadySaved) ||
		errors.Is(err, user.ErrEmailTaken) ||
		errors.Is(err, user.ErrPasswordMismatch) ||
		errors.Is(err, payment.ErrOrderNotPayable) ||
		errors.Is(err, payment.ErrVerificationFailed) ||
		errors.Is(err, payment.ErrAccountDetailsRequired) ||
		errors.As(err, &transition) ||
		errors.As(err, &mismatch) ||
		errors.As(err, &weak)
}
