package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"subpay-indexer.backend/pkg/logger"
)

// LoggerMiddleware logs every HTTP request through the structured
// logger, attaching the request ID RequestIDMiddleware placed on the
// request's Go context.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		logger.LogRequest(c.Request.Context(), c.Request.Method, path, c.Writer.Status(), time.Since(start), c.ClientIP())
	}
}
