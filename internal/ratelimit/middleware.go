package ratelimit

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// SetHeaders はレート制限関連のレスポンスヘッダーを設定します。
func SetHeaders(c *gin.Context, decision Decision) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt, 10))
	if !decision.Allowed {
		c.Header("Retry-After", strconv.FormatInt(decision.RetryAfterSeconds, 10))
	}
}

// Middleware は scope:クライアントIP をキーとしてレート制限を適用する
// ミドルウェアを返します。拒否時は 429 を返します。
func Middleware(limiter *Limiter, scope string, limit int, windowMs int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := limiter.Check(scope+":"+c.ClientIP(), limit, windowMs)
		SetHeaders(c, decision)
		if !decision.Allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":              "RATE_LIMITED",
				"message":           "リクエストが多すぎます。しばらく待ってから再度お試しください。",
				"retryAfterSeconds": decision.RetryAfterSeconds,
			})
			return
		}
		c.Next()
	}
}
