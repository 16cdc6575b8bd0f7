package middleware

import (
	"time"

	"github.com/askboard/askboard/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/atomic"
)

const RequestIDHeader = "X-Request-Id"

var served atomic.Int64

// RequestCount returns how many requests RequestID has seen since startup.
func RequestCount() int64 {
	return served.Load()
}

// RequestID tags every request with an id, reusing the caller's header
// when present, and writes a debug access line once the handler returns.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		served.Inc()
		c.Set("request_id", rid)
		c.Header(RequestIDHeader, rid)

		start := time.Now()
		c.Next()
		logger.Debugf("[%s] %s %s %d %v", rid, c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// BasePath exposes the configured URL prefix to handlers and templates.
func BasePath(basePath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("base_path", basePath)
		c.Next()
	}
}
