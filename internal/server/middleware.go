package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/daemon-zero/dzman/internal/slogger"
)

// requestLogger logs one structured line per request using the logger carried
// in the request context.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		log := slogger.L(c.Request.Context())
		log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).Round(time.Millisecond),
			"client", c.ClientIP(),
		)
	}
}
