package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/wfunc/cookie-game/internal/errors"
	"github.com/wfunc/cookie-game/internal/service"
)

// stubAuth 只认识一个固定令牌
type stubAuth struct {
	service.AuthService
}

func (stubAuth) ValidateToken(_ context.Context, token string) (*service.TokenClaims, error) {
	switch token {
	case "good":
	case "expired":
		return nil, apperrors.New(apperrors.ErrTokenExpired)
	default:
		return nil, apperrors.New(apperrors.ErrTokenInvalid)
	}
	return &service.TokenClaims{UserID: 1, UID: "uid-1", DisplayName: "alice", SessionID: "s1"}, nil
}

func newTestEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/t", append(handlers, func(c *gin.Context) {
		id := GetIdentity(c)
		if id == nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, id.ID+"/"+id.DisplayName)
	})...)
	return r
}

func do(r http.Handler, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/t", nil)
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	m := NewAuthMiddleware(stubAuth{})
	r := newTestEngine(m.RequireAuth())

	w := do(r, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))

	w = do(r, func(req *http.Request) { req.Header.Set("Authorization", "Bearer bad") })
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, func(req *http.Request) { req.Header.Set("Authorization", "bearer good") })
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "uid-1/alice", w.Body.String())
}

func TestOptionalAuth(t *testing.T) {
	m := NewAuthMiddleware(stubAuth{})
	r := newTestEngine(m.OptionalAuth())

	assert.Equal(t, "anonymous", do(r, nil).Body.String())
	assert.Equal(t, http.StatusUnauthorized, do(r, func(req *http.Request) { req.Header.Set("X-Access-Token", "bad") }).Code)
	assert.Equal(t, "uid-1/alice", do(r, func(req *http.Request) { req.URL.RawQuery = "token=good" }).Body.String())
	assert.Equal(t, "uid-1/alice", do(r, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "access_token", Value: "good"})
	}).Body.String())
}

func TestRequestIDPassthrough(t *testing.T) {
	r := newTestEngine()
	w := do(r, func(req *http.Request) { req.Header.Set(HeaderRequestID, "req-42") })
	assert.Equal(t, "req-42", w.Header().Get(HeaderRequestID))
}

func TestRecovery(t *testing.T) {
	r := newTestEngine(func(c *gin.Context) { panic("boom") })
	w := do(r, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

// 令牌过期的玩家不能落到匿名存档上
func TestOptionalAuth_ExpiredTokenRejected(t *testing.T) {
	m := NewAuthMiddleware(stubAuth{})
	r := newTestEngine(m.OptionalAuth())

	w := do(r, func(req *http.Request) { req.Header.Set("Authorization", "Bearer expired") })
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotContains(t, w.Body.String(), "anonymous")

	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Code int `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, int(apperrors.ErrTokenExpired), resp.Error.Code)
}
