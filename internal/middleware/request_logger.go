// Package middleware provides shared gin middleware.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
)

// RequestLogger logs completed HTTP requests. Health probes and the
// websocket upgrade are skipped to keep the log readable.
func RequestLogger(logger hclog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/health" || path == "/ws" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		logger.Info("http request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
			"ip", c.ClientIP(),
		)

		for _, err := range c.Errors {
			logger.Error("request error",
				"method", c.Request.Method,
				"path", path,
				"error", err.Error(),
			)
		}
	}
}
