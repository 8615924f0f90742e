package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wedding-venues-api/internal/core/auth"
	"wedding-venues-api/internal/domain"
	resp "wedding-venues-api/internal/transport/http/response"
)

const (
	HeaderAuthToken = "x-auth-token"
	keyCurrentUser  = "currentUser"
)

type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// AuthGate 校验 token 后按 id 重新读取用户；角色和订阅状态以库里为准而不是 token 快照
func AuthGate(p TokenParser, users UserFinder, l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := strings.TrimSpace(c.GetHeader(HeaderAuthToken))
		if tok == "" {
			resp.Fail(c, l, domain.E(domain.ErrUnauthenticated, "Access denied. Not authorized..."))
			return
		}
		claims, err := p.Parse(tok)
		if err != nil {
			resp.Fail(c, l, domain.E(domain.ErrInvalidToken, "Invalid auth token..."))
			return
		}
		u, err := users.FindByID(c.Request.Context(), claims.UID)
		if err != nil {
			resp.Fail(c, l, err)
			return
		}
		if u == nil {
			resp.Fail(c, l, domain.E(domain.ErrNotFound, "User account not found..."))
			return
		}
		c.Set(keyCurrentUser, u)
		c.Next()
	}
}

// CurrentUser 只有经过 AuthGate 的请求才有值
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(keyCurrentUser)
	if !ok {
		return nil, false
	}
	u, ok := v.(*domain.User)
	return u, ok && u != nil
}
