package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/wfunc/cookie-game/internal/errors"
	"github.com/wfunc/cookie-game/internal/repository"
	"go.uber.org/zap"
)

func newTestServices(t *testing.T) *Services {
	t.Helper()
	return NewServices(repository.TestDB(t), DefaultConfig(), zap.NewNop())
}

func TestUserService_Profile(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)

	reg, err := svc.Auth.Register(ctx, &RegisterRequest{
		Username: "baker", Email: "baker@example.com", Password: "cookie123", ConfirmPassword: "cookie123",
	})
	require.NoError(t, err)

	profile, err := svc.User.GetProfile(ctx, reg.User.UID)
	require.NoError(t, err)
	assert.Equal(t, "baker", profile.Username)
	assert.Equal(t, "baker@example.com", profile.Email)
	assert.Equal(t, "baker", profile.DisplayName)

	_, err = svc.User.GetProfile(ctx, "missing-uid")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestUserService_UpdateNickname(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)

	reg, err := svc.Auth.Register(ctx, &RegisterRequest{Username: "nick", Password: "cookie123", ConfirmPassword: "cookie123"})
	require.NoError(t, err)

	profile, err := svc.User.UpdateNickname(ctx, reg.User.UID, "  Cookie Monster ")
	require.NoError(t, err)
	assert.Equal(t, "Cookie Monster", profile.DisplayName)

	_, err = svc.User.UpdateNickname(ctx, reg.User.UID, "   ")
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidParam))
}

func TestUserService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)

	reg, err := svc.Auth.Register(ctx, &RegisterRequest{Username: "pwuser", Password: "cookie123", ConfirmPassword: "cookie123"})
	require.NoError(t, err)

	err = svc.User.ChangePassword(ctx, reg.User.UID, "wrong123", "biscuit456")
	assert.True(t, apperrors.Is(err, apperrors.ErrAuthentication))

	err = svc.User.ChangePassword(ctx, reg.User.UID, "cookie123", "weak")
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidParam))

	require.NoError(t, svc.User.ChangePassword(ctx, reg.User.UID, "cookie123", "biscuit456"))

	// 旧令牌失效，新密码可以登录
	_, err = svc.Auth.ValidateToken(ctx, reg.AccessToken)
	assert.Error(t, err)
	_, err = svc.Auth.Login(ctx, &LoginRequest{Account: "pwuser", Password: "biscuit456"})
	assert.NoError(t, err)
}
