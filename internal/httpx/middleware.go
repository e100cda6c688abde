// Package httpx holds the gin middleware and response helpers shared
// by every handler package.
package httpx

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const ridKey = "gasflow.rid"

// RID returns the request id assigned by RequestID, or "" when the
// middleware is not installed.
func RID(c *gin.Context) string {
	return c.GetString(ridKey)
}

// RequestID tags each request with an id, honoring an X-Request-ID
// header supplied by the caller and echoing the id back in the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(ridKey, rid)
		c.Writer.Header().Set("X-Request-ID", rid)
		c.Next()
	}
}

// Logger writes one line per request after the handler chain finishes.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("[http] rid=%s %s %s status=%d bytes=%d dur=%s ip=%s",
			RID(c), c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), c.Writer.Size(),
			time.Since(start).Round(time.Microsecond), c.ClientIP())
	}
}
