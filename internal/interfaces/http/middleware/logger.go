// internal/interfaces/http/middleware/logger.go
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/estyshop/ecommerce-backend/internal/config"
)

// Logger emits one structured line per request after the handler chain
// finishes. The level follows the response status so failures stand out
// under aggregation. Format and level of the underlying logger are set
// globally at startup.
func Logger(cfg *config.Config) gin.HandlerFunc {
	// Probe and scrape endpoints flood the log at info level. Outside
	// development they are not worth a line each.
	quiet := map[string]struct{}{}
	if !cfg.IsDevelopment() {
		quiet["/health"] = struct{}{}
		quiet["/ready"] = struct{}{}
		quiet["/metrics"] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		if _, ok := quiet[c.Request.URL.Path]; ok {
			return
		}

		status := c.Writer.Status()
		entry := logrus.WithFields(logrus.Fields{
			"request_id":    c.GetString("request_id"),
			"method":        c.Request.Method,
			"path":          path,
			"status_code":   status,
			"latency_ms":    time.Since(start).Milliseconds(),
			"client_ip":     c.ClientIP(),
			"user_agent":    c.Request.UserAgent(),
			"response_size": c.Writer.Size(),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			entry.Error("request failed")
		case status >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request completed")
		}
	}
}
