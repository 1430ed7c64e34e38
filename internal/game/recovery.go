package game

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RecoveryManager 存档恢复管理器
// 加载快照、按目录合并、结算离线收益
type RecoveryManager struct {
	logger    *zap.Logger
	persister StatePersister
	clock     Clock
	timeout   time.Duration // 加载超时时间
}

// NewRecoveryManager 创建恢复管理器
func NewRecoveryManager(logger *zap.Logger, persister StatePersister, clock Clock, timeout time.Duration) *RecoveryManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &RecoveryManager{
		logger:    logger,
		persister: persister,
		clock:     clock,
		timeout:   timeout,
	}
}

// Recovered 恢复结果
type Recovered struct {
	Engine   *Engine
	Award    OfflineAward
	Restored bool // 是否从存档恢复（false表示首次游戏）
}

// Recover 为指定身份恢复游戏引擎
// 没有存档时返回全新引擎；读取失败时返回错误，避免用空进度覆盖已有存档
func (rm *RecoveryManager) Recover(ctx context.Context, owner *Identity, opts ...EngineOption) (*Recovered, error) {
	if rm.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rm.timeout)
		defer cancel()
	}

	opts = append([]EngineOption{WithClock(rm.clock)}, opts...)
	engine := NewEngine(opts...)

	snap, err := rm.persister.Load(ctx, owner)
	if err != nil {
		rm.logger.Error("加载存档失败",
			zap.String("owner", ownerKey(owner)),
			zap.Error(err))
		return nil, fmt.Errorf("加载存档失败: %w", err)
	}

	if snap == nil {
		rm.logger.Info("未找到存档，开始新游戏", zap.String("owner", ownerKey(owner)))
		return &Recovered{Engine: engine}, nil
	}

	award := engine.Restore(snap)

	rm.logger.Info("存档恢复成功",
		zap.String("owner", ownerKey(owner)),
		zap.Float64("offline_seconds", award.ElapsedSeconds),
		zap.Float64("offline_award", award.Amount))

	return &Recovered{Engine: engine, Award: award, Restored: true}, nil
}
