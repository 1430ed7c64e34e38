package database

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/wfunc/cookie-game/internal/logger"
	"github.com/wfunc/cookie-game/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Models 需要迁移的模型
func Models() []interface{} {
	return []interface{}{
		// 用户相关
		&models.User{},
		&models.UserAuth{},
		&models.UserSession{},

		// 存档与排行榜
		&models.GameState{},
		&models.LeaderboardEntry{},
	}
}

// 排行榜按 total_cookies 倒序读取
var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_leaderboard_rank ON leaderboard(total_cookies DESC, updated_at)",
	"CREATE INDEX IF NOT EXISTS idx_game_states_updated_at ON game_states(updated_at)",
	"CREATE INDEX IF NOT EXISTS idx_user_sessions_expire_at ON user_sessions(expire_at)",
}

// AutoMigrate 迁移全局数据库
func AutoMigrate() error {
	return Migrate(DB)
}

// Migrate 自动迁移数据库表结构
func Migrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("数据库未初始化")
	}

	// 获取迁移锁，避免多个进程同时迁移
	if dbPath := sqliteFilePath(db); dbPath != "" {
		CleanupStaleLocks(filepath.Dir(dbPath))
		lockFile, err := acquireMigrationLock(dbPath)
		if err != nil {
			logger.Error("无法获取迁移锁", zap.Error(err))
			return fmt.Errorf("获取迁移锁失败: %w", err)
		}
		defer releaseMigrationLock(lockFile)
	}

	logger.Info("开始数据库迁移...")

	for _, model := range Models() {
		if err := db.AutoMigrate(model); err != nil {
			logger.Error("迁移失败",
				zap.String("model", fmt.Sprintf("%T", model)),
				zap.Error(err),
			)
			return fmt.Errorf("迁移 %T 失败: %w", model, err)
		}
		logger.Debug("迁移成功", zap.String("model", fmt.Sprintf("%T", model)))
	}

	createIndexes(db)

	logger.Info("数据库迁移完成")
	return nil
}

// createIndexes 创建额外索引，失败只记录警告
func createIndexes(db *gorm.DB) {
	for _, idx := range indexes {
		if err := db.Exec(idx).Error; err != nil && !strings.Contains(err.Error(), "already exists") {
			logger.Warn("创建索引失败", zap.String("index", idx), zap.Error(err))
		}
	}
}

// DropAllTables 删除所有表（仅用于测试环境）
func DropAllTables(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("数据库未初始化")
	}

	tables := Models()
	// 反序删除
	for i := len(tables) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(tables[i]); err != nil {
			logger.Error("删除表失败", zap.String("model", fmt.Sprintf("%T", tables[i])), zap.Error(err))
			return err
		}
	}

	logger.Info("所有表已删除")
	return nil
}
