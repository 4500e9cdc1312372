package middleware

import (
	"context"
	"strings"
	"sync"

	"skillforge_backend/internal/config"
	"skillforge_backend/internal/util"
	"skillforge_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware 校验 Bearer 会话令牌并把声明放入上下文
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			logger.Log.Debug("JWT解析失败",
				zap.Error(err),
				zap.String("request_id", c.GetString(util.RequestIDKey)),
			)
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set(util.ClaimsKey, claims)
		c.Next()
	}
}

type LearnerEnsurer interface {
	EnsureLearner(ctx context.Context, claims *util.Claims) error
}

// LearnerMiddleware 首次见到某个学习者时创建其记录，进程内只做一次
func LearnerMiddleware(ensurer LearnerEnsurer) gin.HandlerFunc {
	var seen sync.Map
	return func(c *gin.Context) {
		claims := util.GetClaimsFromContext(c)
		if claims == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		if _, ok := seen.Load(claims.Subject); !ok {
			if err := ensurer.EnsureLearner(c.Request.Context(), claims); err != nil {
				util.RespondError(c, err)
				c.Abort()
				return
			}
			seen.Store(claims.Subject, struct{}{})
		}
		c.Next()
	}
}
