package service

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/wfunc/cookie-game/internal/errors"
	"github.com/wfunc/cookie-game/internal/models"
	"github.com/wfunc/cookie-game/internal/repository"
	"github.com/wfunc/cookie-game/internal/utils"
	"go.uber.org/zap"
)

// userService 用户资料服务实现
type userService struct {
	userRepo    repository.UserRepository
	authRepo    repository.UserAuthRepository
	sessionRepo repository.UserSessionRepository
	log         *zap.Logger
}

// NewUserService 创建用户服务
func NewUserService(
	userRepo repository.UserRepository,
	authRepo repository.UserAuthRepository,
	sessionRepo repository.UserSessionRepository,
	log *zap.Logger,
) UserService {
	return &userService{
		userRepo:    userRepo,
		authRepo:    authRepo,
		sessionRepo: sessionRepo,
		log:         log,
	}
}

func (s *userService) find(ctx context.Context, uid string) (*models.User, error) {
	user, err := s.userRepo.FindByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.New(apperrors.ErrNotFound, "用户不存在")
		}
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "获取用户失败")
	}
	return user, nil
}

// GetProfile 获取用户资料
func (s *userService) GetProfile(ctx context.Context, uid string) (*Profile, error) {
	user, err := s.find(ctx, uid)
	if err != nil {
		return nil, err
	}
	return newProfile(user), nil
}

// UpdateNickname 修改昵称，排行榜显示名在下一次同步时更新
func (s *userService) UpdateNickname(ctx context.Context, uid, nickname string) (*Profile, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" || len([]rune(nickname)) > 50 {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "昵称长度必须在1-50个字符之间")
	}

	user, err := s.find(ctx, uid)
	if err != nil {
		return nil, err
	}
	user.Nickname = nickname
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.log.Error("更新昵称失败", zap.String("uid", uid), zap.Error(err))
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseUpdate, "更新昵称失败")
	}
	return newProfile(user), nil
}

// ChangePassword 修改密码，成功后撤销全部登录会话
func (s *userService) ChangePassword(ctx context.Context, uid, oldPassword, newPassword string) error {
	if err := utils.ValidatePasswordStrength(newPassword); err != nil {
		return apperrors.New(apperrors.ErrInvalidParam, err.Error())
	}

	user, err := s.find(ctx, uid)
	if err != nil {
		return err
	}
	auth, err := s.authRepo.FindByUserID(ctx, user.ID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "获取认证信息失败")
	}

	valid, err := utils.VerifyPassword(oldPassword, auth.Password)
	if err != nil || !valid {
		return apperrors.New(apperrors.ErrAuthentication, "原密码错误")
	}

	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrEncryption, "密码加密失败")
	}
	if err := s.authRepo.UpdatePassword(ctx, user.ID, hashed); err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseUpdate, "更新密码失败")
	}
	if err := s.sessionRepo.DeleteByUserID(ctx, user.ID); err != nil {
		s.log.Warn("撤销登录会话失败", zap.String("uid", uid), zap.Error(err))
	}

	s.log.Info("密码已修改", zap.String("uid", uid))
	return nil
}
