package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORSMiddleware allows any origin. Preflight requests are answered here with an empty 200.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")

		if c.Request.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, X-Auth-Token, X-User-Id")
			h.Set("Access-Control-Max-Age", "86400")
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}
