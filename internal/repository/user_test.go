package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/wfunc/cookie-game/internal/models"
	"gorm.io/gorm"
)

// UserRepositoryTestSuite 用户仓储测试套件
type UserRepositoryTestSuite struct {
	suite.Suite
	db       *gorm.DB
	repo     UserRepository
	authRepo UserAuthRepository
	sessRepo UserSessionRepository
}

func (suite *UserRepositoryTestSuite) SetupTest() {
	suite.db = SetupTestDB()
	suite.repo = NewUserRepository(suite.db)
	suite.authRepo = NewUserAuthRepository(suite.db)
	suite.sessRepo = NewUserSessionRepository(suite.db)
}

func (suite *UserRepositoryTestSuite) TearDownTest() {
	CleanupTestDB(suite.db)
}

// TestUserRepository_Create 测试创建用户
func (suite *UserRepositoryTestSuite) TestUserRepository_Create() {
	ctx := context.Background()

	user := &models.User{
		Username: "testuser",
		Email:    "test@example.com",
	}

	err := suite.repo.Create(ctx, user)
	assert.NoError(suite.T(), err)
	assert.NotZero(suite.T(), user.ID)
	// 创建时自动生成UID和默认昵称
	assert.Len(suite.T(), user.UID, 36)
	assert.Equal(suite.T(), "testuser", user.Nickname)
	assert.Equal(suite.T(), "active", user.Status)

	found, err := suite.repo.FindByUID(ctx, user.UID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), user.ID, found.ID)
}

// TestUserRepository_FindByUsername 测试根据用户名查找
func (suite *UserRepositoryTestSuite) TestUserRepository_FindByUsername() {
	ctx := context.Background()

	user := &models.User{Username: "findbyusername", Email: "findby@example.com"}
	assert.NoError(suite.T(), suite.repo.Create(ctx, user))

	found, err := suite.repo.FindByUsername(ctx, "findbyusername")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), user.ID, found.ID)

	found, err = suite.repo.FindByEmail(ctx, "findby@example.com")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), user.ID, found.ID)

	// 测试不存在的用户
	_, err = suite.repo.FindByUsername(ctx, "notexist")
	assert.ErrorIs(suite.T(), err, ErrUserNotFound)
}

// TestUserRepository_UpdateLastLogin 测试更新登录信息
func (suite *UserRepositoryTestSuite) TestUserRepository_UpdateLastLogin() {
	ctx := context.Background()
	user := SeedTestUser(suite.T(), suite.db, "loginuser")

	assert.NoError(suite.T(), suite.repo.UpdateLastLogin(ctx, user.ID, "127.0.0.1"))

	found, err := suite.repo.FindByID(ctx, user.ID)
	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), found.LastLoginAt)
	assert.Equal(suite.T(), "127.0.0.1", found.LastLoginIP)
}

// TestUserAuthRepository_LoginAttempts 测试登录失败计数
func (suite *UserRepositoryTestSuite) TestUserAuthRepository_LoginAttempts() {
	ctx := context.Background()
	user := SeedTestUser(suite.T(), suite.db, "authuser")

	auth := &models.UserAuth{UserID: user.ID, Password: "hashed"}
	assert.NoError(suite.T(), suite.authRepo.Create(ctx, auth))

	assert.NoError(suite.T(), suite.authRepo.UpdateLoginAttempts(ctx, user.ID, 3))
	found, err := suite.authRepo.FindByUserID(ctx, user.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 3, found.LoginAttempts)

	assert.NoError(suite.T(), suite.authRepo.ResetLoginAttempts(ctx, user.ID))
	found, err = suite.authRepo.FindByUserID(ctx, user.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, found.LoginAttempts)
}

// TestUserSessionRepository 测试会话的创建与过期
func (suite *UserRepositoryTestSuite) TestUserSessionRepository() {
	ctx := context.Background()
	user := SeedTestUser(suite.T(), suite.db, "sessuser")

	active := &models.UserSession{UserID: user.ID, SessionID: "s-active", ExpireAt: time.Now().Add(time.Hour)}
	expired := &models.UserSession{UserID: user.ID, SessionID: "s-expired", ExpireAt: time.Now().Add(-time.Hour)}
	assert.NoError(suite.T(), suite.sessRepo.Create(ctx, active))
	assert.NoError(suite.T(), suite.sessRepo.Create(ctx, expired))

	_, err := suite.sessRepo.FindBySessionID(ctx, "s-active")
	assert.NoError(suite.T(), err)
	_, err = suite.sessRepo.FindBySessionID(ctx, "s-expired")
	assert.Error(suite.T(), err)

	sessions, err := suite.sessRepo.FindByUserID(ctx, user.ID)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), sessions, 1)

	assert.NoError(suite.T(), suite.sessRepo.CleanupExpired(ctx))
	assert.NoError(suite.T(), suite.sessRepo.Delete(ctx, "s-active"))
	_, err = suite.sessRepo.FindBySessionID(ctx, "s-active")
	assert.Error(suite.T(), err)
}

func TestUserRepositorySuite(t *testing.T) {
	suite.Run(t, new(UserRepositoryTestSuite))
}
