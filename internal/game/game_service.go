package game

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/wfunc/cookie-game/internal/errors"
	"github.com/wfunc/cookie-game/internal/game/catalog"
	"github.com/wfunc/cookie-game/internal/repository"
	"go.uber.org/zap"
)

// GameService 游戏服务（业务逻辑层）
type GameService struct {
	sessionManager *SessionManager
	leaderboard    repository.LeaderboardRepository
	logger         *zap.Logger
	allowReset     bool
	boardLimit     int
}

// GameServiceConfig 游戏服务配置
type GameServiceConfig struct {
	Sessions         *SessionManager
	Leaderboard      repository.LeaderboardRepository
	Logger           *zap.Logger
	AllowReset       bool
	LeaderboardLimit int
}

// NewGameService 创建游戏服务
func NewGameService(config *GameServiceConfig) *GameService {
	log := config.Logger
	if log == nil {
		log = zap.NewNop()
	}
	limit := config.LeaderboardLimit
	if limit <= 0 || limit > repository.MaxLeaderboardLimit {
		limit = repository.MaxLeaderboardLimit
	}
	return &GameService{
		sessionManager: config.Sessions,
		leaderboard:    config.Leaderboard,
		logger:         log,
		allowReset:     config.AllowReset,
		boardLimit:     limit,
	}
}

// Sessions 会话管理器
func (s *GameService) Sessions() *SessionManager {
	return s.sessionManager
}

// OpenSession 打开或恢复会话
func (s *GameService) OpenSession(ctx context.Context, owner *Identity) (*OpenSessionResponse, error) {
	session, err := s.sessionManager.Open(ctx, owner)
	if err != nil {
		return nil, sessionError(err)
	}
	return &OpenSessionResponse{
		Owner:        session.Key,
		Restored:     session.Restored,
		OfflineAward: session.OfflineAward,
		State:        session.View(),
	}, nil
}

// CloseSession 关闭会话（执行最终保存）
func (s *GameService) CloseSession(ctx context.Context, owner *Identity) error {
	if err := s.sessionManager.Close(ctx, ownerKey(owner)); err != nil {
		return sessionError(err)
	}
	return nil
}

// SessionInfo 会话信息
func (s *GameService) SessionInfo(owner *Identity) (*SessionInfo, error) {
	session, err := s.session(owner)
	if err != nil {
		return nil, err
	}
	return &SessionInfo{
		Owner:        session.Key,
		Phase:        session.Phase(),
		StartTime:    session.StartTime,
		LastActivity: session.LastActivity(),
		Duration:     time.Since(session.StartTime).Seconds(),
	}, nil
}

// State 当前状态视图
func (s *GameService) State(owner *Identity) (*StateView, error) {
	session, err := s.session(owner)
	if err != nil {
		return nil, err
	}
	return session.View(), nil
}

// Click 手动点击
func (s *GameService) Click(owner *Identity) (*ActionResponse, error) {
	session, err := s.session(owner)
	if err != nil {
		return nil, err
	}
	gained, err := session.Click()
	if err != nil {
		return nil, sessionError(err)
	}
	return &ActionResponse{Applied: true, Gained: gained, State: session.View()}, nil
}

// BuyBuilding 购买建筑
func (s *GameService) BuyBuilding(owner *Identity, id string) (*ActionResponse, error) {
	session, err := s.session(owner)
	if err != nil {
		return nil, err
	}
	ok, err := session.BuyBuilding(id)
	if err != nil {
		return nil, sessionError(err)
	}
	return &ActionResponse{Applied: ok, State: session.View()}, nil
}

// BuyUpgrade 购买升级
func (s *GameService) BuyUpgrade(owner *Identity, id string) (*ActionResponse, error) {
	session, err := s.session(owner)
	if err != nil {
		return nil, err
	}
	ok, err := session.BuyUpgrade(id)
	if err != nil {
		return nil, sessionError(err)
	}
	return &ActionResponse{Applied: ok, State: session.View()}, nil
}

// Prestige 转生，累计饼干未达门槛时拒绝
func (s *GameService) Prestige(ctx context.Context, owner *Identity) (*PrestigeResponse, error) {
	session, err := s.session(owner)
	if err != nil {
		return nil, err
	}
	if !session.Engine().CanPrestige() {
		return nil, apperrors.Newf(apperrors.ErrPrestigeLocked, "需要累计 %s 饼干", FormatDisplay(catalog.PrestigeThreshold))
	}

	level, err := session.Prestige(ctx)
	if err != nil {
		return nil, sessionError(err)
	}
	return &PrestigeResponse{
		PrestigeLevel:      level,
		PrestigeMultiplier: catalog.PrestigeMultiplierFor(level),
		State:              session.View(),
	}, nil
}

// Save 立即保存
func (s *GameService) Save(ctx context.Context, owner *Identity) error {
	session, err := s.session(owner)
	if err != nil {
		return err
	}
	if err := session.Save(ctx); err != nil {
		return apperrors.Wrap(err, apperrors.ErrStorageWrite)
	}
	return nil
}

// Reset 清空进度
func (s *GameService) Reset(owner *Identity) (*StateView, error) {
	if !s.allowReset {
		return nil, apperrors.New(apperrors.ErrResetDisabled)
	}
	session, err := s.session(owner)
	if err != nil {
		return nil, err
	}
	if err := session.Reset(); err != nil {
		return nil, sessionError(err)
	}
	s.logger.Info("玩家重置进度", zap.String("owner", session.Key))
	return session.View(), nil
}

// Catalog 静态目录
func (s *GameService) Catalog() *CatalogResponse {
	return &CatalogResponse{
		Buildings:              catalog.Buildings(),
		Upgrades:               catalog.Upgrades(),
		Achievements:           catalog.Achievements(),
		PrestigeThreshold:      catalog.PrestigeThreshold,
		PrestigeMultiplierBase: catalog.PrestigeMultiplierBase,
	}
}

// Leaderboard 排行榜，owner 不为空时附带自己的名次
func (s *GameService) Leaderboard(ctx context.Context, limit int, owner *Identity) (*LeaderboardResponse, error) {
	if s.leaderboard == nil {
		return nil, apperrors.New(apperrors.ErrStorageUnavailable, "排行榜未配置")
	}
	if limit <= 0 || limit > s.boardLimit {
		limit = s.boardLimit
	}

	entries, err := s.leaderboard.Top(ctx, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}

	resp := &LeaderboardResponse{Entries: entries, Limit: limit}
	if owner != nil {
		rank, err := s.leaderboard.Rank(ctx, owner.ID)
		if err != nil {
			s.logger.Warn("查询名次失败", zap.String("owner", owner.ID), zap.Error(err))
		}
		resp.MyRank = rank
	}
	return resp, nil
}

func (s *GameService) session(owner *Identity) (*Session, error) {
	session, err := s.sessionManager.GetFor(owner)
	if err != nil {
		return nil, sessionError(err)
	}
	return session, nil
}

// sessionError 会话错误转换为应用错误
func sessionError(err error) error {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return apperrors.New(apperrors.ErrSessionNotFound)
	case errors.Is(err, ErrSessionLimit):
		return apperrors.New(apperrors.ErrSessionLimit)
	case errors.Is(err, ErrSessionClosed):
		return apperrors.New(apperrors.ErrSessionClosed)
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}
	return apperrors.Wrap(err, apperrors.ErrStorageRead)
}
