package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/pkg/middleware/requestid"
)

// Audit logs every successful mutating request together with the token subject, if any.
func Audit(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("audit")
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if c.Request.Method == "GET" || c.Request.Method == "HEAD" || c.Request.Method == "OPTIONS" {
			return
		}
		if c.Writer.Status() >= 400 {
			return
		}

		actor := "anonymous"
		if claims := CurrentClaims(c); claims != nil {
			actor = claims.Subject
		}
		logger.Info("mutation",
			zap.String("actor", actor),
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			zap.String("request_id", requestid.Value(c)),
			zap.String("ip", c.ClientIP()),
		)
	}
}
