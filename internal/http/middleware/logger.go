package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger prints one line per request including request_id and the matched route.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "-"
		}
		userID := int64(0)
		if rc, ok := GetRequestContext(c); ok {
			userID = int64(rc.UserID)
		}

		log.Printf("[HTTP] request_id=%s method=%s path=%s route=%s status=%d latency_ms=%.3f ip=%s user_id=%d errors=%d",
			GetRequestID(c),
			c.Request.Method,
			c.Request.URL.Path,
			route,
			c.Writer.Status(),
			float64(latency.Microseconds())/1000.0,
			c.ClientIP(),
			userID,
			len(c.Errors),
		)
	}
}
