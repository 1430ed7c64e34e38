package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/cookie-game/internal/models"
)

func TestManager_LazyRepositories(t *testing.T) {
	m := NewManager(TestDB(t))

	assert.Same(t, m.GetDB(), m.GetDB())
	assert.Equal(t, m.GameState(), m.GameState())
	assert.Equal(t, m.Leaderboard(), m.Leaderboard())
	assert.NotNil(t, m.User())
	assert.NotNil(t, m.UserAuth())
	assert.NotNil(t, m.UserSession())
}

func TestManager_WithTransactionRollback(t *testing.T) {
	ctx := context.Background()
	m := NewManager(TestDB(t))

	boom := errors.New("boom")
	err := m.WithTransaction(ctx, func(tx *Manager) error {
		require.NoError(t, tx.GameState().Upsert(ctx, CreateTestGameState("uid-tx", 100)))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	row, err := m.GameState().FindByUserKey(ctx, "uid-tx")
	require.NoError(t, err)
	assert.Nil(t, row)

	err = m.WithTransaction(ctx, func(tx *Manager) error {
		return tx.Leaderboard().Upsert(ctx, &models.LeaderboardEntry{UserKey: "uid-tx", Username: "tx", TotalCookies: 5})
	})
	require.NoError(t, err)
	top, err := m.Leaderboard().Top(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}

func TestRepository_WithTxBindsTransaction(t *testing.T) {
	ctx := context.Background()
	db := TestDB(t)
	repo := NewGameStateRepository(db)

	tx := db.Begin()
	txRepo := repo.WithTx(tx).(GameStateRepository)
	assert.Same(t, tx, txRepo.GetDB())
	require.NoError(t, txRepo.Upsert(ctx, CreateTestGameState("uid-withtx", 7)))
	require.NoError(t, tx.Rollback().Error)

	row, err := repo.FindByUserKey(ctx, "uid-withtx")
	require.NoError(t, err)
	assert.Nil(t, row)
}
