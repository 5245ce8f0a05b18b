package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/pr-poehali-dev/messenger-design-project/internal/observability"
	"github.com/pr-poehali-dev/messenger-design-project/internal/transport/httpdto"
	"github.com/pr-poehali-dev/messenger-design-project/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler logs errors handlers attached with c.Error. The response is already written.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || l == nil {
			return
		}
		log := l.WithContext(c.Request.Context())
		for _, e := range c.Errors {
			log.Error("request error",
				zap.String("path", c.Request.URL.Path),
				zap.Int("status", c.Writer.Status()),
				zap.Error(e.Err),
			)
		}
	}
}

// Recovery turns a handler panic into 500 {"error":"Internal server error"}.
func Recovery(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			path := c.FullPath()
			if path == "" {
				path = "unmatched"
			}
			observability.PanicRecoveries.WithLabelValues(path).Inc()
			if l != nil {
				l.WithContext(c.Request.Context()).Error("panic recovered",
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()),
				)
			}
			if !c.Writer.Written() {
				c.AbortWithStatusJSON(http.StatusInternalServerError, httpdto.NewErrorResponse("Internal server error"))
				return
			}
			c.Abort()
		}()
		c.Next()
	}
}
