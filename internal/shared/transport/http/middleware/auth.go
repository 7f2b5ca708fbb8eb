package middleware

import (
	"net/http"
	"strings"

	"Pandemic/internal/shared/security"
	"Pandemic/internal/shared/transport"

	"github.com/gin-gonic/gin"
)

// GameAuth 要求请求带上签给路径里那一局的 Bearer 令牌；secret 为空时直接放行。
func GameAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || token == "" {
			reject(c, "missing bearer token")
			return
		}
		if err := security.VerifyGame(secret, token, c.Param("id")); err != nil {
			reject(c, err.Error())
			return
		}
		c.Next()
	}
}

func reject(c *gin.Context, reason string) {
	transport.SetErrorReason(c.Request.Context(), reason)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code": transport.Unauthorized,
		"msg":  reason,
	})
}
