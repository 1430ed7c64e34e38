package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/cookie-game/internal/errors"
	"github.com/wfunc/cookie-game/internal/game"
	"github.com/wfunc/cookie-game/internal/service"
)

// 上下文键
const (
	ctxClaims   = "claims"
	ctxIdentity = "identity"
	ctxToken    = "token"
)

// AuthMiddleware JWT认证中间件
type AuthMiddleware struct {
	authService service.AuthService
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(authService service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// RequireAuth 需要认证的中间件
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			abortWith(c, apperrors.New(apperrors.ErrAuthentication, "缺少认证令牌"))
			return
		}

		claims, err := m.authService.ValidateToken(c.Request.Context(), token)
		if err != nil {
			abortWith(c, apperrors.Wrap(err, apperrors.ErrTokenInvalid))
			return
		}

		setClaims(c, claims, token)
		c.Next()
	}
}

// OptionalAuth 可选认证：没有令牌按匿名玩家处理（使用本地存档），
// 携带了令牌但校验失败时返回401，不降级为匿名
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.Next()
			return
		}

		claims, err := m.authService.ValidateToken(c.Request.Context(), token)
		if err != nil {
			abortWith(c, apperrors.Wrap(err, apperrors.ErrTokenInvalid))
			return
		}

		setClaims(c, claims, token)
		c.Next()
	}
}

func setClaims(c *gin.Context, claims *service.TokenClaims, token string) {
	c.Set(ctxClaims, claims)
	c.Set(ctxToken, token)
	c.Set(ctxIdentity, &game.Identity{
		ID:          claims.UID,
		DisplayName: claims.DisplayName,
	})
}

func abortWith(c *gin.Context, err *apperrors.AppError) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, apperrors.NewErrorResponse(err, GetRequestID(c)))
}

// extractToken 从请求中提取令牌
func extractToken(c *gin.Context) string {
	// Authorization: Bearer <token>
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "bearer") {
			return strings.TrimSpace(token)
		}
	}

	if token := c.GetHeader("X-Access-Token"); token != "" {
		return token
	}

	if token, err := c.Cookie("access_token"); err == nil && token != "" {
		return token
	}

	// 浏览器WebSocket无法设置请求头
	if token := c.Query("token"); token != "" {
		return token
	}

	return ""
}

// GetIdentity 当前玩家身份，匿名时返回nil
func GetIdentity(c *gin.Context) *game.Identity {
	if v, ok := c.Get(ctxIdentity); ok {
		if id, ok := v.(*game.Identity); ok {
			return id
		}
	}
	return nil
}

// GetClaims 从上下文获取令牌信息
func GetClaims(c *gin.Context) (*service.TokenClaims, bool) {
	if v, ok := c.Get(ctxClaims); ok {
		claims, ok := v.(*service.TokenClaims)
		return claims, ok
	}
	return nil, false
}

// GetToken 从上下文获取原始令牌
func GetToken(c *gin.Context) string {
	return c.GetString(ctxToken)
}

// IsAuthenticated 检查是否已认证
func IsAuthenticated(c *gin.Context) bool {
	return GetIdentity(c) != nil
}
