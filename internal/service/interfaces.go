package service

import (
	"context"
	"time"

	"github.com/wfunc/cookie-game/internal/models"
)

// AuthService 认证服务接口，为游戏提供"当前身份或匿名"
type AuthService interface {
	// 注册登录
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	Logout(ctx context.Context, token string) error
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error)

	// ValidateToken 校验访问令牌及其登录会话
	ValidateToken(ctx context.Context, token string) (*TokenClaims, error)

	// 会话管理
	RevokeAllSessions(ctx context.Context, userID uint) error
	CleanupExpiredSessions(ctx context.Context) error
}

// UserService 用户资料服务接口
type UserService interface {
	GetProfile(ctx context.Context, uid string) (*Profile, error)
	UpdateNickname(ctx context.Context, uid, nickname string) (*Profile, error)
	ChangePassword(ctx context.Context, uid, oldPassword, newPassword string) error
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username        string `json:"username" binding:"required,min=3,max=20"`
	Email           string `json:"email" binding:"omitempty,email"`
	Password        string `json:"password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=Password"`
	Nickname        string `json:"nickname" binding:"max=50"`
	IP              string `json:"-"` // 客户端IP，由handler设置
	UserAgent       string `json:"-"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Account   string `json:"account" binding:"required"` // 用户名或邮箱
	Password  string `json:"password" binding:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// RefreshRequest 刷新令牌请求
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UpdateProfileRequest 修改资料请求
type UpdateProfileRequest struct {
	Nickname string `json:"nickname" binding:"required,max=50"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// AuthResponse 认证响应
type AuthResponse struct {
	User         *Profile `json:"user"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"`
	TokenType    string   `json:"token_type"`
}

// TokenClaims 校验后的令牌信息
type TokenClaims struct {
	UserID      uint   `json:"user_id"`
	UID         string `json:"uid"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	SessionID   string `json:"session_id"`
	IssuedAt    int64  `json:"iat"`
	ExpiresAt   int64  `json:"exp"`
}

// Profile 对外的用户资料
type Profile struct {
	UID         string     `json:"uid"`
	Username    string     `json:"username"`
	Nickname    string     `json:"nickname"`
	Email       string     `json:"email,omitempty"`
	DisplayName string     `json:"display_name"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func newProfile(u *models.User) *Profile {
	return &Profile{
		UID:         u.UID,
		Username:    u.Username,
		Nickname:    u.Nickname,
		Email:       u.Email,
		DisplayName: u.DisplayName(),
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}
