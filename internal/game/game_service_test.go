package game

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/wfunc/cookie-game/internal/adapter"
	apperrors "github.com/wfunc/cookie-game/internal/errors"
	"github.com/wfunc/cookie-game/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GameServiceTestSuite 游戏服务测试套件
type GameServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *GameService
	ctx     context.Context
	owner   *Identity
}

func (s *GameServiceTestSuite) SetupTest() {
	s.db = repository.SetupTestDB()
	s.ctx = context.Background()
	s.owner = &Identity{ID: "uid-alice", DisplayName: "alice"}

	board := repository.NewLeaderboardRepository(s.db)
	persister := NewStorePersister(&StorePersisterConfig{
		Local:       adapter.NewMemoryAdapter(),
		States:      repository.NewGameStateRepository(s.db),
		Leaderboard: board,
	})
	sessions := NewSessionManager(&SessionConfig{
		Logger:    zap.NewNop(),
		Persister: persister,
		Clock:     NewFakeClock(testStart),
		Timers:    slowTimers,
	})
	s.service = NewGameService(&GameServiceConfig{
		Sessions:    sessions,
		Leaderboard: board,
		Logger:      zap.NewNop(),
		AllowReset:  true,
	})
}

func (s *GameServiceTestSuite) TearDownTest() {
	_ = s.service.Sessions().Shutdown(s.ctx)
	repository.CleanupTestDB(s.db)
}

func (s *GameServiceTestSuite) TestOpenSessionFresh() {
	resp, err := s.service.OpenSession(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Equal("uid-alice", resp.Owner)
	s.False(resp.Restored)
	s.Equal(0.0, resp.OfflineAward.Amount)
	s.Len(resp.State.Buildings, 10)
}

func (s *GameServiceTestSuite) TestActionsWithoutSession() {
	_, err := s.service.Click(s.owner)
	s.True(apperrors.Is(err, apperrors.ErrSessionNotFound))

	_, err = s.service.State(nil)
	s.True(apperrors.Is(err, apperrors.ErrSessionNotFound))

	err = s.service.CloseSession(s.ctx, nil)
	s.True(apperrors.Is(err, apperrors.ErrSessionNotFound))
}

func (s *GameServiceTestSuite) TestClickAndBuy() {
	_, err := s.service.OpenSession(s.ctx, nil)
	s.Require().NoError(err)

	for i := 0; i < 15; i++ {
		resp, err := s.service.Click(nil)
		s.Require().NoError(err)
		s.True(resp.Applied)
		s.Equal(1.0, resp.Gained)
	}

	resp, err := s.service.BuyBuilding(nil, "cursor")
	s.Require().NoError(err)
	s.True(resp.Applied)
	s.Equal(0.0, resp.State.Cookies)
	s.Equal(1, resp.State.Buildings[0].Count)

	// 资金不足不是错误
	resp, err = s.service.BuyBuilding(nil, "cursor")
	s.Require().NoError(err)
	s.False(resp.Applied)

	resp, err = s.service.BuyBuilding(nil, "no_such_building")
	s.Require().NoError(err)
	s.False(resp.Applied)

	resp, err = s.service.BuyUpgrade(nil, "reinforced_cursor")
	s.Require().NoError(err)
	s.False(resp.Applied)
}

func (s *GameServiceTestSuite) TestPrestigeLocked() {
	_, err := s.service.OpenSession(s.ctx, s.owner)
	s.Require().NoError(err)

	_, err = s.service.Prestige(s.ctx, s.owner)
	s.True(apperrors.Is(err, apperrors.ErrPrestigeLocked))
}

func (s *GameServiceTestSuite) TestPrestigeSavesAndMirrors() {
	_, err := s.service.OpenSession(s.ctx, s.owner)
	s.Require().NoError(err)

	session, err := s.service.Sessions().GetFor(s.owner)
	s.Require().NoError(err)
	setCookies(session.Engine(), 2e12)

	resp, err := s.service.Prestige(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Equal(1, resp.PrestigeLevel)
	s.Equal(1.5, resp.PrestigeMultiplier)
	s.Equal(0.0, resp.State.Cookies)
	s.Equal(2e12, resp.State.TotalCookies)

	board, err := s.service.Leaderboard(s.ctx, 10, s.owner)
	s.Require().NoError(err)
	s.Require().Len(board.Entries, 1)
	s.Equal(1, board.Entries[0].PrestigeLevel)
	s.Equal(1, board.MyRank)
}

func (s *GameServiceTestSuite) TestSaveAndReopen() {
	_, err := s.service.OpenSession(s.ctx, s.owner)
	s.Require().NoError(err)
	_, err = s.service.Click(s.owner)
	s.Require().NoError(err)
	s.Require().NoError(s.service.Save(s.ctx, s.owner))
	s.Require().NoError(s.service.CloseSession(s.ctx, s.owner))

	resp, err := s.service.OpenSession(s.ctx, s.owner)
	s.Require().NoError(err)
	s.True(resp.Restored)
	s.Equal(1.0, resp.State.TotalCookies)
}

func (s *GameServiceTestSuite) TestReset() {
	_, err := s.service.OpenSession(s.ctx, nil)
	s.Require().NoError(err)
	_, err = s.service.Click(nil)
	s.Require().NoError(err)

	view, err := s.service.Reset(nil)
	s.Require().NoError(err)
	s.Equal(0.0, view.TotalCookies)

	s.service.allowReset = false
	_, err = s.service.Reset(nil)
	s.True(apperrors.Is(err, apperrors.ErrResetDisabled))
}

func (s *GameServiceTestSuite) TestLeaderboardOrdering() {
	board := repository.NewLeaderboardRepository(s.db)
	for i := 1; i <= 5; i++ {
		entry := leaderboardEntry(&Identity{ID: fmt.Sprintf("uid-%d", i)},
			&Snapshot{TotalCookies: float64(i * 100)}, time.Now())
		s.Require().NoError(board.Upsert(s.ctx, entry))
	}

	resp, err := s.service.Leaderboard(s.ctx, 3, nil)
	s.Require().NoError(err)
	s.Equal(3, resp.Limit)
	s.Require().Len(resp.Entries, 3)
	s.Equal("uid-5", resp.Entries[0].UserKey)
	s.Equal("uid-3", resp.Entries[2].UserKey)
	s.Equal(0, resp.MyRank)

	// 超出上限按上限处理
	resp, err = s.service.Leaderboard(s.ctx, 1000, nil)
	s.Require().NoError(err)
	s.Equal(repository.MaxLeaderboardLimit, resp.Limit)
	s.Len(resp.Entries, 5)
}

func (s *GameServiceTestSuite) TestSessionInfo() {
	_, err := s.service.OpenSession(s.ctx, s.owner)
	s.Require().NoError(err)

	info, err := s.service.SessionInfo(s.owner)
	s.Require().NoError(err)
	s.Equal(PhaseActive, info.Phase)
	s.Equal("uid-alice", info.Owner)
}

func TestGameServiceSuite(t *testing.T) {
	suite.Run(t, new(GameServiceTestSuite))
}

func TestGameService_Catalog(t *testing.T) {
	svc := NewGameService(&GameServiceConfig{})
	cat := svc.Catalog()

	require.Len(t, cat.Buildings, 10)
	assert.Len(t, cat.Upgrades, 6)
	assert.Len(t, cat.Achievements, 6)
	assert.Equal(t, 1e12, cat.PrestigeThreshold)
	assert.Equal(t, 0.5, cat.PrestigeMultiplierBase)
}

func TestGameService_LeaderboardUnconfigured(t *testing.T) {
	svc := NewGameService(&GameServiceConfig{})
	_, err := svc.Leaderboard(context.Background(), 10, nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrStorageUnavailable))
}
