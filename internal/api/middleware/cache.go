package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// CacheControl marks successful responses as cacheable by browsers and CDNs
// for the given number of seconds. Nothing is cached server-side.
func CacheControl(seconds int) gin.HandlerFunc {
	public := fmt.Sprintf("public, max-age=%d, s-maxage=%d", seconds, seconds)
	cdn := fmt.Sprintf("public, s-maxage=%d", seconds)
	return func(c *gin.Context) {
		if seconds <= 0 {
			c.Next()
			return
		}
		c.Writer.Header().Set("Cache-Control", public)
		c.Writer.Header().Set("CDN-Cache-Control", cdn)
		c.Next()
	}
}
