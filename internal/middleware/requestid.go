package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// requestIDHeader is echoed on every response so clients and logs can be
// correlated.
const requestIDHeader = "X-Request-ID"

// requestIDCtxKey is the Gin context key used to store the request ID.
const requestIDCtxKey = "request_id"

// RequestID assigns each request a unique ID, honoring one supplied by the
// caller (for example an upstream proxy).
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDCtxKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the request ID from the request context.
func GetRequestID(c *gin.Context) string {
	v, _ := c.Get(requestIDCtxKey)
	s, _ := v.(string)
	return s
}
