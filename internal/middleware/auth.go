package middleware

import (
	"github.com/shahdmohamed211/social-app33/internal/errors"
	"github.com/shahdmohamed211/social-app33/internal/session"
	"github.com/shahdmohamed211/social-app33/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionGuard 保护需要登录的页面：没有令牌直接拒绝，令牌过期
// 则强制登出并要求重新登录
func SessionGuard(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := store.Token()
		if token == "" {
			errors.HandleError(c, errors.New(errors.ErrUnauthorized, "需要登录"))
			c.Abort()
			return
		}

		if util.IsTokenExpired(token) {
			util.Logger.Info("令牌已过期，强制登出", zap.String("path", c.Request.URL.Path))
			store.Clear()
			errors.HandleError(c, errors.New(errors.ErrTokenExpired, "登录已过期，请重新登录"))
			c.Abort()
			return
		}

		c.Next()
	}
}
