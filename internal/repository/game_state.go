package repository

import (
	"context"
	"errors"

	"github.com/wfunc/cookie-game/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GameStateRepository 玩家存档仓储接口
type GameStateRepository interface {
	BaseRepository
	// Upsert 按 user_key 创建或更新存档
	Upsert(ctx context.Context, state *models.GameState) error
	// FindByUserKey 查询存档，不存在时返回 nil, nil
	FindByUserKey(ctx context.Context, userKey string) (*models.GameState, error)
	Delete(ctx context.Context, userKey string) error
}

// gameStateRepo 玩家存档仓储实现
type gameStateRepo struct {
	*BaseRepo
}

// NewGameStateRepository 创建存档仓储
func NewGameStateRepository(db *gorm.DB) GameStateRepository {
	return &gameStateRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Upsert 创建或更新存档（不会产生重复行）
func (r *gameStateRepo) Upsert(ctx context.Context, state *models.GameState) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"cookies", "total_cookies", "cps", "click_power",
			"buildings", "upgrades", "achievements",
			"prestige_level", "prestige_multiplier", "last_active", "updated_at",
		}),
	}).Create(state).Error
}

// FindByUserKey 根据玩家键查询存档
func (r *gameStateRepo) FindByUserKey(ctx context.Context, userKey string) (*models.GameState, error) {
	var state models.GameState
	err := r.db.WithContext(ctx).Where("user_key = ?", userKey).First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &state, nil
}

// Delete 删除存档
func (r *gameStateRepo) Delete(ctx context.Context, userKey string) error {
	return r.db.WithContext(ctx).
		Where("user_key = ?", userKey).
		Delete(&models.GameState{}).Error
}

// WithTx 使用事务
func (r *gameStateRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &gameStateRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
