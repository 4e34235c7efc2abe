package middleware

import (
	"net/http"
	"time"

	"goattend/internal"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request id in both directions
const RequestIDHeader = "X-Request-ID"

// RequestID tags each request with an id, reusing the caller's when present, and logs its
// duration.
func RequestID(logger *internal.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	logger = logger.With("HTTP")

	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		elapsed := time.Since(start)
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("%s %s %s -> %d (%v)", id, c.Request.Method, c.Request.URL.Path, status, elapsed)
		default:
			logger.Debug("%s %s %s -> %d (%v)", id, c.Request.Method, c.Request.URL.Path, status, elapsed)
		}
	}
}

// BodyLimit caps request bodies at limit bytes. Reads past the cap fail with
// *http.MaxBytesError.
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
