package repository

import (
	"context"

	"github.com/wfunc/cookie-game/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxLeaderboardLimit 排行榜单次最多返回条数
const MaxLeaderboardLimit = 100

// LeaderboardRepository 排行榜仓储接口
type LeaderboardRepository interface {
	BaseRepository
	// Upsert 按 user_key 创建或更新排行榜记录
	Upsert(ctx context.Context, entry *models.LeaderboardEntry) error
	// Top 按累计饼干数降序返回前n条
	Top(ctx context.Context, n int) ([]*models.LeaderboardEntry, error)
	// Rank 查询玩家名次（从1开始），未上榜返回0
	Rank(ctx context.Context, userKey string) (int, error)
}

// leaderboardRepo 排行榜仓储实现
type leaderboardRepo struct {
	*BaseRepo
}

// NewLeaderboardRepository 创建排行榜仓储
func NewLeaderboardRepository(db *gorm.DB) LeaderboardRepository {
	return &leaderboardRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Upsert 创建或更新排行榜记录
func (r *leaderboardRepo) Upsert(ctx context.Context, entry *models.LeaderboardEntry) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "total_cookies", "prestige_level", "updated_at"}),
	}).Create(entry).Error
}

// Top 查询排行榜前n名
func (r *leaderboardRepo) Top(ctx context.Context, n int) ([]*models.LeaderboardEntry, error) {
	if n <= 0 || n > MaxLeaderboardLimit {
		n = MaxLeaderboardLimit
	}
	var entries []*models.LeaderboardEntry
	err := r.db.WithContext(ctx).
		Order("total_cookies DESC").
		Order("updated_at ASC").
		Limit(n).
		Find(&entries).Error
	return entries, err
}

// Rank 查询玩家名次
func (r *leaderboardRepo) Rank(ctx context.Context, userKey string) (int, error) {
	var entry models.LeaderboardEntry
	err := r.db.WithContext(ctx).Where("user_key = ?", userKey).Limit(1).Find(&entry).Error
	if err != nil {
		return 0, err
	}
	if entry.ID == 0 {
		return 0, nil
	}

	var ahead int64
	err = r.db.WithContext(ctx).
		Model(&models.LeaderboardEntry{}).
		Where("total_cookies > ?", entry.TotalCookies).
		Count(&ahead).Error
	if err != nil {
		return 0, err
	}
	return int(ahead) + 1, nil
}

// WithTx 使用事务
func (r *leaderboardRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &leaderboardRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
