package middleware

import (
	"time"

	"github.com/pr-poehali-dev/messenger-design-project/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func LoggingMiddleware(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		log := l
		if log == nil {
			log = logger.GetGlobalLogger()
		}
		if log == nil {
			return
		}

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}
		entry := log.WithContext(c.Request.Context())
		switch {
		case status >= 500:
			entry.Error("request", fields...)
		case status >= 400:
			entry.Warn("request", fields...)
		default:
			entry.Info("request", fields...)
		}
	}
}
