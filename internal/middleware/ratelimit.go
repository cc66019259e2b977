package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Allower 限流器
type Allower interface {
	Allow(ctx context.Context, identifier string) (bool, error)
}

// RateLimit 按客户端 IP 限流；限流器异常时放行
func RateLimit(limiter Allower, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}
