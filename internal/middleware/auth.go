package middleware

import (
	"context"
	"fmt"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/hertz-contrib/jwt"

	"RollCall/pkg/token"
)

const (
	IdentityKey = token.IdentityKey
	RoleKey     = token.RoleKey
)

var authMiddleware *jwt.HertzJWTMiddleware

// initAuthMiddleware 在 token 包的共享生成器之上补齐 HTTP 侧配置。
// 密钥、过期时间直接沿用生成器的值，两边永远不会不一致。
func initAuthMiddleware() error {
	g := token.GetGenerator()
	if g == nil {
		return fmt.Errorf("token generator not initialized, call token.Init() first")
	}

	authMiddleware = &jwt.HertzJWTMiddleware{
		Realm:       "RollCall API",
		Key:         g.Key,
		Timeout:     g.Timeout,
		MaxRefresh:  g.MaxRefresh,
		IdentityKey: g.IdentityKey,
		TimeFunc:    g.TimeFunc,

		IdentityHandler: identityFromClaims,

		Unauthorized: func(ctx context.Context, c *app.RequestContext, code int, message string) {
			c.JSON(code, map[string]interface{}{
				"error": map[string]interface{}{
					"code":    "UNAUTHORIZED",
					"message": message,
				},
			})
		},

		TokenLookup:   "header: Authorization, query: token, cookie: jwt",
		TokenHeadName: "Bearer",
	}

	return nil
}

// identityFromClaims 取出 uid 作为请求身份，顺带把 role 声明放进请求上下文，
// 后续 handler 判断学委权限时不用再解一次 token
func identityFromClaims(ctx context.Context, c *app.RequestContext) interface{} {
	claims := jwt.ExtractClaims(ctx, c)

	if role, ok := claims[RoleKey].(string); ok {
		c.Set(RoleKey, role)
	}

	switch v := claims[IdentityKey].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return nil
	}
}

func AuthMiddleware() app.HandlerFunc {
	if authMiddleware == nil {
		panic("AuthMiddleware not initialized, call Init() first")
	}
	return authMiddleware.MiddlewareFunc()
}

// GetUserID 从请求上下文中获取用户 ID（字符串格式的学号）
func GetUserID(ctx context.Context, c *app.RequestContext) (string, bool) {
	v, exists := c.Get(IdentityKey)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// GetUserRole 从请求上下文中获取用户角色（student / rep），缺失时返回空串
func GetUserRole(ctx context.Context, c *app.RequestContext) string {
	v, exists := c.Get(RoleKey)
	if !exists {
		return ""
	}
	r, _ := v.(string)
	return r
}
