// internal/interfaces/http/middleware/auth.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/estyshop/ecommerce-backend/internal/config"
	"github.com/estyshop/ecommerce-backend/internal/pkg/auth"
)

// Context keys set by the auth middlewares.
const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
)

// AuthMiddleware rejects requests without a valid access token. On
// success the user's id and email are stored on the context.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	jwtManager := auth.NewJWTManager(cfg)

	return func(c *gin.Context) {
		claims, reason := bearerClaims(c, jwtManager)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": reason})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserEmail, claims.Email)
		c.Next()
	}
}

// OptionalAuthMiddleware authenticates when a valid bearer token is
// present and passes the request through anonymously otherwise. Cart,
// checkout and payment routes use it so guests and account holders
// share one code path.
func OptionalAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	jwtManager := auth.NewJWTManager(cfg)

	return func(c *gin.Context) {
		if claims, _ := bearerClaims(c, jwtManager); claims != nil {
			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextUserEmail, claims.Email)
		}
		c.Next()
	}
}

// bearerClaims pulls and validates the bearer token. A nil result comes
// with a client-safe reason; the underlying validation error only goes
// to the debug log.
func bearerClaims(c *gin.Context, jwtManager *auth.JWTManager) (*auth.Claims, string) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, "Authorization header required"
	}

	tokenString := auth.ExtractTokenFromHeader(header)
	if tokenString == "" {
		return nil, "Invalid authorization header format"
	}

	claims, err := jwtManager.ValidateAccessToken(tokenString)
	if err != nil {
		logrus.WithError(err).WithField("path", c.FullPath()).Debug("access token rejected")
		return nil, "Invalid or expired token"
	}
	return claims, ""
}

// GetUserIDFromContext extracts the authenticated user's ID.
func GetUserIDFromContext(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(ContextUserID)
	if !exists {
		return 0, false
	}
	return userID.(uint), true
}

// GetOptionalUserID returns the authenticated user's ID or nil for
// anonymous requests.
func GetOptionalUserID(c *gin.Context) *uint {
	userID, ok := GetUserIDFromContext(c)
	if !ok {
		return nil
	}
	return &userID
}

// GetUserEmailFromContext extracts the authenticated user's email.
func GetUserEmailFromContext(c *gin.Context) (string, bool) {
	email, exists := c.Get(ContextUserEmail)
	if !exists {
		return "", false
	}
	return email.(string), true
}
