package middleware

import (
	"github.com/gin-gonic/gin"
)

// SecurityHeaders sets the response headers appropriate for a JSON API that
// is never rendered in a browser. HSTS is only sent outside development,
// where the service typically runs behind plain HTTP.
func SecurityHeaders(isDevelopment bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Cache-Control", "no-store")
		if !isDevelopment {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
