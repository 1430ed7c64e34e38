package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	apperrors "github.com/wfunc/cookie-game/internal/errors"
	"github.com/wfunc/cookie-game/internal/models"
	"github.com/wfunc/cookie-game/internal/repository"
	"github.com/wfunc/cookie-game/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// authService 认证服务实现
type authService struct {
	db          *gorm.DB
	userRepo    repository.UserRepository
	authRepo    repository.UserAuthRepository
	sessionRepo repository.UserSessionRepository
	jwtManager  *utils.JWTManager
	cfg         *Config
	log         *zap.Logger
	now         func() time.Time
}

// NewAuthService 创建认证服务
func NewAuthService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	authRepo repository.UserAuthRepository,
	sessionRepo repository.UserSessionRepository,
	jwtManager *utils.JWTManager,
	cfg *Config,
	log *zap.Logger,
) AuthService {
	return &authService{
		db:          db,
		userRepo:    userRepo,
		authRepo:    authRepo,
		sessionRepo: sessionRepo,
		jwtManager:  jwtManager,
		cfg:         cfg,
		log:         log,
		now:         time.Now,
	}
}

// Register 用户注册，成功后直接登录
func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if err := validateRegisterRequest(req); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByUsername(ctx, req.Username); err == nil {
		return nil, apperrors.New(apperrors.ErrAlreadyExists, "用户名已存在")
	}
	if req.Email != "" {
		if _, err := s.userRepo.FindByEmail(ctx, req.Email); err == nil {
			return nil, apperrors.New(apperrors.ErrAlreadyExists, "邮箱已被使用")
		}
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrEncryption, "密码加密失败")
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Nickname: strings.TrimSpace(req.Nickname),
		Status:   "active",
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).(repository.UserRepository).Create(ctx, user); err != nil {
			return err
		}
		auth := &models.UserAuth{
			UserID:   user.ID,
			Password: hashedPassword,
		}
		return s.authRepo.WithTx(tx).(repository.UserAuthRepository).Create(ctx, auth)
	})
	if err != nil {
		s.log.Error("创建用户失败", zap.String("username", req.Username), zap.Error(err))
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseInsert, "创建用户失败")
	}

	s.log.Info("用户注册成功", zap.String("uid", user.UID), zap.String("username", user.Username))
	return s.startSession(ctx, user, req.IP, req.UserAgent)
}

// Login 用户登录
func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	var (
		user *models.User
		err  error
	)
	if strings.Contains(req.Account, "@") {
		user, err = s.userRepo.FindByEmail(ctx, req.Account)
	} else {
		user, err = s.userRepo.FindByUsername(ctx, req.Account)
	}
	if err != nil {
		s.log.Warn("登录失败: 用户不存在", zap.String("account", req.Account))
		return nil, apperrors.New(apperrors.ErrAuthentication, "用户名或密码错误")
	}

	if !user.CanLogin() {
		return nil, apperrors.New(apperrors.ErrAuthorization, "账户不可用")
	}

	auth, err := s.authRepo.FindByUserID(ctx, user.ID)
	if err != nil {
		s.log.Error("获取认证信息失败", zap.Uint("user_id", user.ID), zap.Error(err))
		return nil, apperrors.New(apperrors.ErrAuthentication, "用户名或密码错误")
	}

	now := s.now()
	if auth.LockedUntil != nil && auth.LockedUntil.After(now) {
		return nil, apperrors.New(apperrors.ErrAuthentication, "登录失败次数过多，账户已临时锁定")
	}

	valid, err := utils.VerifyPassword(req.Password, auth.Password)
	if err != nil || !valid {
		s.recordFailedAttempt(ctx, auth)
		return nil, apperrors.New(apperrors.ErrAuthentication, "用户名或密码错误")
	}

	if auth.LoginAttempts > 0 || auth.LockedUntil != nil {
		_ = s.authRepo.ResetLoginAttempts(ctx, user.ID)
	}
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, req.IP); err != nil {
		s.log.Warn("更新登录信息失败", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	user.UpdateLoginInfo(req.IP)

	s.log.Info("用户登录成功", zap.String("uid", user.UID), zap.String("username", user.Username))
	return s.startSession(ctx, user, req.IP, req.UserAgent)
}

func (s *authService) recordFailedAttempt(ctx context.Context, auth *models.UserAuth) {
	attempts := auth.LoginAttempts + 1
	s.log.Warn("登录失败: 密码错误", zap.Uint("user_id", auth.UserID), zap.Int("attempts", attempts))

	if s.cfg.MaxLoginAttempts > 0 && attempts >= s.cfg.MaxLoginAttempts {
		until := s.now().Add(s.cfg.LockDuration)
		if err := s.authRepo.LockAccount(ctx, auth.UserID, until); err != nil {
			s.log.Error("锁定账户失败", zap.Uint("user_id", auth.UserID), zap.Error(err))
		}
		attempts = 0
	}
	_ = s.authRepo.UpdateLoginAttempts(ctx, auth.UserID, attempts)
}

// startSession 创建登录会话并签发令牌
func (s *authService) startSession(ctx context.Context, user *models.User, ip, userAgent string) (*AuthResponse, error) {
	sessionID, err := utils.GenerateSessionID()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnknown, "生成会话ID失败")
	}

	now := s.now()
	session := &models.UserSession{
		UserID:       user.ID,
		SessionID:    sessionID,
		IP:           ip,
		UserAgent:    userAgent,
		LastActiveAt: now,
		ExpireAt:     now.Add(s.jwtManager.GetTokenExpiry(utils.TokenTypeRefresh)),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		s.log.Error("创建会话失败", zap.Uint("user_id", user.ID), zap.Error(err))
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseInsert, "创建会话失败")
	}

	sub := subjectOf(user, sessionID)
	accessToken, err := s.jwtManager.GenerateAccessToken(sub)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrEncryption, "生成访问令牌失败")
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(sub)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrEncryption, "生成刷新令牌失败")
	}

	return s.response(user, accessToken, refreshToken), nil
}

// Logout 用户登出，删除令牌对应的登录会话
func (s *authService) Logout(ctx context.Context, token string) error {
	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return tokenError(err)
	}

	if err := s.sessionRepo.Delete(ctx, claims.SessionID); err != nil {
		s.log.Error("删除会话失败", zap.String("session_id", claims.SessionID), zap.Error(err))
		return apperrors.Wrap(err, apperrors.ErrDatabaseDelete, "删除会话失败")
	}

	s.log.Info("用户登出", zap.String("uid", claims.UID))
	return nil
}

// RefreshToken 用刷新令牌换取新的访问令牌
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, tokenError(err)
	}

	if _, err := s.sessionRepo.FindBySessionID(ctx, claims.SessionID); err != nil {
		return nil, apperrors.New(apperrors.ErrTokenExpired, "登录会话已失效")
	}

	user, err := s.userRepo.FindByUID(ctx, claims.UID)
	if err != nil || !user.CanLogin() {
		return nil, apperrors.New(apperrors.ErrTokenInvalid, "用户不可用")
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(subjectOf(user, claims.SessionID))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrEncryption, "生成访问令牌失败")
	}
	_ = s.sessionRepo.UpdateLastActive(ctx, claims.SessionID)

	return s.response(user, accessToken, refreshToken), nil
}

// ValidateToken 验证访问令牌
func (s *authService) ValidateToken(ctx context.Context, token string) (*TokenClaims, error) {
	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, tokenError(err)
	}
	if claims.TokenType != utils.TokenTypeAccess {
		return nil, apperrors.New(apperrors.ErrTokenInvalid, "不是访问令牌")
	}

	// 登出后令牌立即失效
	if _, err := s.sessionRepo.FindBySessionID(ctx, claims.SessionID); err != nil {
		return nil, apperrors.New(apperrors.ErrTokenExpired, "登录会话已失效")
	}

	return &TokenClaims{
		UserID:      claims.UserID,
		UID:         claims.UID,
		Username:    claims.Username,
		DisplayName: claims.DisplayName,
		SessionID:   claims.SessionID,
		IssuedAt:    claims.IssuedAt.Unix(),
		ExpiresAt:   claims.ExpiresAt.Unix(),
	}, nil
}

// RevokeAllSessions 撤销用户全部登录会话
func (s *authService) RevokeAllSessions(ctx context.Context, userID uint) error {
	if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseDelete, "撤销会话失败")
	}
	return nil
}

// CleanupExpiredSessions 清理过期登录会话
func (s *authService) CleanupExpiredSessions(ctx context.Context) error {
	return s.sessionRepo.CleanupExpired(ctx)
}

func (s *authService) response(user *models.User, accessToken, refreshToken string) *AuthResponse {
	return &AuthResponse{
		User:         newProfile(user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtManager.GetTokenExpiry(utils.TokenTypeAccess).Seconds()),
		TokenType:    "Bearer",
	}
}

func subjectOf(user *models.User, sessionID string) utils.TokenSubject {
	return utils.TokenSubject{
		UserID:      user.ID,
		UID:         user.UID,
		Username:    user.Username,
		DisplayName: user.DisplayName(),
		SessionID:   sessionID,
	}
}

func tokenError(err error) error {
	if errors.Is(err, utils.ErrExpiredToken) {
		return apperrors.New(apperrors.ErrTokenExpired)
	}
	return apperrors.Wrap(err, apperrors.ErrTokenInvalid)
}

// validateRegisterRequest 验证注册请求
func validateRegisterRequest(req *RegisterRequest) error {
	if len(req.Username) < 3 || len(req.Username) > 20 {
		return apperrors.New(apperrors.ErrInvalidParam, "用户名长度必须在3-20个字符之间")
	}
	if !usernamePattern.MatchString(req.Username) {
		return apperrors.New(apperrors.ErrInvalidParam, "用户名只能包含字母、数字和下划线")
	}
	if req.Password != req.ConfirmPassword {
		return apperrors.New(apperrors.ErrInvalidParam, "两次输入的密码不一致")
	}
	if err := utils.ValidatePasswordStrength(req.Password); err != nil {
		return apperrors.New(apperrors.ErrInvalidParam, err.Error())
	}
	return nil
}
