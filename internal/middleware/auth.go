package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/hertz-contrib/jwt"

	"AttendTrack/internal/model"
	"AttendTrack/pkg/errors"
	"AttendTrack/pkg/response"
	"AttendTrack/pkg/token"
)

// IdentityKey 认证通过后 Identity 在 RequestContext 中的键
const IdentityKey = "identity"

// Identity 当前请求的调用者
type Identity struct {
	UserID int64
	Role   model.Role
}

// Auth 基于 hertz-contrib/jwt 的鉴权中间件，每个角色要求对应一个 jwt 实例
type Auth struct {
	issuer        *token.Issuer
	authenticated *jwt.HertzJWTMiddleware
	manager       *jwt.HertzJWTMiddleware
}

func NewAuth(issuer *token.Issuer) (*Auth, error) {
	a := &Auth{issuer: issuer}

	var err error
	if a.authenticated, err = a.build(nil); err != nil {
		return nil, err
	}
	if a.manager, err = a.build(func(id Identity) bool { return id.Role == model.RoleManager }); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Auth) build(allow func(Identity) bool) (*jwt.HertzJWTMiddleware, error) {
	return jwt.New(&jwt.HertzJWTMiddleware{
		Realm:       "AttendTrack API",
		Key:         a.issuer.AccessSecret(),
		Timeout:     a.issuer.AccessTTL(),
		IdentityKey: IdentityKey,
		TimeFunc:    a.issuer.Now,

		IdentityHandler: func(ctx context.Context, c *app.RequestContext) interface{} {
			claims := jwt.ExtractClaims(ctx, c)
			// 密钥相同时 refresh token 也能通过签名校验，这里拒绝
			if token.IsRefreshClaims(claims) {
				return nil
			}
			parsed, err := token.ClaimsFromMap(claims)
			if err != nil {
				return nil
			}
			uid, err := strconv.ParseInt(parsed.UserID, 10, 64)
			if err != nil {
				return nil
			}
			return Identity{UserID: uid, Role: model.Role(parsed.Role)}
		},

		Authorizator: func(data interface{}, ctx context.Context, c *app.RequestContext) bool {
			id, ok := data.(Identity)
			if !ok {
				return false
			}
			return allow == nil || allow(id)
		},

		Unauthorized: func(ctx context.Context, c *app.RequestContext, code int, message string) {
			// 身份有效但角色不符才是 403，其余一律 401
			if _, ok := CurrentIdentity(c); ok && code == http.StatusForbidden {
				response.Error(ctx, c, errors.Forbidden)
				return
			}
			response.Error(ctx, c, errors.Unauthorized)
		},

		TokenLookup:   "header: Authorization",
		TokenHeadName: "Bearer",
	})
}

// Authenticated 要求合法 access token
func (a *Auth) Authenticated() app.HandlerFunc {
	return a.authenticated.MiddlewareFunc()
}

// RequireManager 要求 manager 角色，非 manager 返回 403
func (a *Auth) RequireManager() app.HandlerFunc {
	return a.manager.MiddlewareFunc()
}

// CurrentIdentity 从请求上下文中获取调用者
func CurrentIdentity(c *app.RequestContext) (Identity, bool) {
	v, exists := c.Get(IdentityKey)
	if !exists {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}
