package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/authgate/authgate/internal/logger"
)

// Logging logs method, path, status and duration for every request.
func Logging(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		l.Info("request handled",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String())
	}
}
