package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ouroboros-study/ouroboros-api/internal/models"
)

// Audit logs successful requests under action along with the session subject.
func Audit(logger *zap.Logger, action string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		subject := "anonymous"
		if claims, ok := c.Get(ContextSessionKey); ok {
			if session, ok := claims.(*models.SessionClaims); ok && session.Subject != "" {
				subject = session.Subject
			}
		}

		logger.Info("audit",
			zap.String("action", action),
			zap.String("subject", subject),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			zap.String("ip", c.ClientIP()),
			zap.String("user_agent", c.GetHeader("User-Agent")),
		)
	}
}
