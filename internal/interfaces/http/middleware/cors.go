// internal/interfaces/http/middleware/cors.go
package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/estyshop/ecommerce-backend/internal/config"
)

// CORS builds the cross-origin policy from configuration. Origins go
// through a callback because the allow-list supports "*" and wildcard
// subdomain entries like *.example.com, which AllowOrigins cannot
// express as exact matches.
func CORS(cfg *config.Config) gin.HandlerFunc {
	origins := cfg.Security.CORSAllowedOrigins

	return cors.New(cors.Config{
		AllowMethods:     cfg.Security.CORSAllowedMethods,
		AllowHeaders:     cfg.Security.CORSAllowedHeaders,
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
		AllowOriginFunc: func(origin string) bool {
			return originAllowed(origin, origins)
		},
	})
}

func originAllowed(origin string, allowed []string) bool {
	for _, entry := range allowed {
		if entry == "*" || entry == origin {
			return true
		}
		if strings.HasPrefix(entry, "*.") &&
			strings.HasSuffix(origin, strings.TrimPrefix(entry, "*.")) {
			return true
		}
	}
	return false
}
