package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wfunc/cookie-game/internal/adapter"
	"github.com/wfunc/cookie-game/internal/models"
	"github.com/wfunc/cookie-game/internal/repository"
	"go.uber.org/zap"
)

// DefaultLocalSlot 未登录玩家的本地存档槽名
const DefaultLocalSlot = "cookieClickerSave"

// Identity 已登录玩家身份
type Identity struct {
	ID          string `json:"id"`           // 稳定唯一标识（用户UID）
	DisplayName string `json:"display_name"` // 排行榜显示名
}

// StatePersister 状态持久化接口
// owner 为 nil 表示未登录，使用本地存档槽
type StatePersister interface {
	Save(ctx context.Context, owner *Identity, snap *Snapshot) error
	// Load 不存在存档时返回 nil, nil
	Load(ctx context.Context, owner *Identity) (*Snapshot, error)
}

// LeaderboardMirror 排行榜镜像接口
type LeaderboardMirror interface {
	Mirror(ctx context.Context, owner *Identity, snap *Snapshot) error
}

// LeaderboardNotifier 排行榜变更通知（由推送层实现）
type LeaderboardNotifier interface {
	LeaderboardUpdated(entry *models.LeaderboardEntry)
}

// SlotStore 本地存档槽
type SlotStore interface {
	Get(ctx context.Context, slot string) ([]byte, error)
	Set(ctx context.Context, slot string, data []byte) error
}

// MemoryStatePersister 内存状态持久化（用于测试）
type MemoryStatePersister struct {
	mu      sync.RWMutex
	states  map[string][]byte
	board   map[string]*models.LeaderboardEntry
	saves   int
	failing error
}

// NewMemoryStatePersister 创建内存持久化器
func NewMemoryStatePersister() *MemoryStatePersister {
	return &MemoryStatePersister{
		states: make(map[string][]byte),
		board:  make(map[string]*models.LeaderboardEntry),
	}
}

// Fail 之后的读写都返回 err，传 nil 恢复
func (p *MemoryStatePersister) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failing = err
}

// Save 保存状态（编码后保存，避免共享切片）
func (p *MemoryStatePersister) Save(ctx context.Context, owner *Identity, snap *Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failing != nil {
		return p.failing
	}
	data, err := snap.Encode()
	if err != nil {
		return err
	}
	p.states[ownerKey(owner)] = data
	p.saves++
	if owner != nil {
		p.board[owner.ID] = leaderboardEntry(owner, snap, time.Now())
	}
	return nil
}

// Load 加载状态
func (p *MemoryStatePersister) Load(ctx context.Context, owner *Identity) (*Snapshot, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.failing != nil {
		return nil, p.failing
	}
	data, ok := p.states[ownerKey(owner)]
	if !ok {
		return nil, nil
	}
	return DecodeSnapshot(data)
}

// Mirror 更新排行榜
func (p *MemoryStatePersister) Mirror(ctx context.Context, owner *Identity, snap *Snapshot) error {
	if owner == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failing != nil {
		return p.failing
	}
	p.board[owner.ID] = leaderboardEntry(owner, snap, time.Now())
	return nil
}

// SaveCount 成功保存的次数
func (p *MemoryStatePersister) SaveCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.saves
}

// LeaderboardEntry 读取排行榜记录
func (p *MemoryStatePersister) LeaderboardEntry(id string) *models.LeaderboardEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.board[id]
}

// StorePersister 按身份选择存储目标的持久化器
// 未登录写本地存档槽；已登录写远端存档表并镜像到排行榜
type StorePersister struct {
	local     SlotStore
	slot      string
	states    repository.GameStateRepository
	board     repository.LeaderboardRepository
	notifiers []LeaderboardNotifier
	logger    *zap.Logger
}

// StorePersisterConfig 持久化器配置
type StorePersisterConfig struct {
	Local       SlotStore
	LocalSlot   string
	States      repository.GameStateRepository
	Leaderboard repository.LeaderboardRepository
	Logger      *zap.Logger
}

// NewStorePersister 创建持久化器
func NewStorePersister(cfg *StorePersisterConfig) *StorePersister {
	slot := cfg.LocalSlot
	if slot == "" {
		slot = DefaultLocalSlot
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &StorePersister{
		local:  cfg.Local,
		slot:   slot,
		states: cfg.States,
		board:  cfg.Leaderboard,
		logger: log,
	}
}

// AddNotifier 注册排行榜变更通知
func (p *StorePersister) AddNotifier(n LeaderboardNotifier) {
	p.notifiers = append(p.notifiers, n)
}

// Save 保存状态
func (p *StorePersister) Save(ctx context.Context, owner *Identity, snap *Snapshot) error {
	if owner == nil {
		return p.saveLocal(ctx, snap)
	}
	if p.states == nil {
		return errors.New("远端存储未配置")
	}

	row, err := snapshotToModel(owner.ID, snap)
	if err != nil {
		return fmt.Errorf("序列化存档失败: %w", err)
	}
	if err := p.states.Upsert(ctx, row); err != nil {
		return fmt.Errorf("保存存档失败: %w", err)
	}

	// 排行榜只是投影，镜像失败不影响存档结果，下次保存或镜像周期会补上
	if err := p.Mirror(ctx, owner, snap); err != nil {
		p.logger.Warn("存档已保存，排行榜镜像失败",
			zap.String("owner", owner.ID),
			zap.Error(err))
	}
	return nil
}

func (p *StorePersister) saveLocal(ctx context.Context, snap *Snapshot) error {
	if p.local == nil {
		return errors.New("本地存档槽未配置")
	}
	data, err := snap.Encode()
	if err != nil {
		return fmt.Errorf("序列化存档失败: %w", err)
	}
	if err := p.local.Set(ctx, p.slot, data); err != nil {
		return fmt.Errorf("写入本地存档失败: %w", err)
	}
	return nil
}

// Load 加载状态，不存在时返回 nil, nil
func (p *StorePersister) Load(ctx context.Context, owner *Identity) (*Snapshot, error) {
	if owner == nil {
		if p.local == nil {
			return nil, errors.New("本地存档槽未配置")
		}
		data, err := p.local.Get(ctx, p.slot)
		if errors.Is(err, adapter.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("读取本地存档失败: %w", err)
		}
		snap, err := DecodeSnapshot(data)
		if err != nil {
			return nil, fmt.Errorf("解析本地存档失败: %w", err)
		}
		return snap, nil
	}

	if p.states == nil {
		return nil, errors.New("远端存储未配置")
	}
	row, err := p.states.FindByUserKey(ctx, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("查询存档失败: %w", err)
	}
	if row == nil {
		return nil, nil
	}
	return modelToSnapshot(row)
}

// Mirror 将精简记录写入排行榜
func (p *StorePersister) Mirror(ctx context.Context, owner *Identity, snap *Snapshot) error {
	if owner == nil || p.board == nil {
		return nil
	}

	entry := leaderboardEntry(owner, snap, time.Now())
	if err := p.board.Upsert(ctx, entry); err != nil {
		return fmt.Errorf("更新排行榜失败: %w", err)
	}

	for _, n := range p.notifiers {
		n.LeaderboardUpdated(entry)
	}
	p.logger.Debug("排行榜已更新",
		zap.String("user_key", entry.UserKey),
		zap.Float64("total_cookies", entry.TotalCookies))
	return nil
}

func ownerKey(owner *Identity) string {
	if owner == nil {
		return DefaultLocalSlot
	}
	return owner.ID
}

func leaderboardEntry(owner *Identity, snap *Snapshot, now time.Time) *models.LeaderboardEntry {
	name := owner.DisplayName
	if name == "" {
		name = "Anonymous"
	}
	return &models.LeaderboardEntry{
		UserKey:       owner.ID,
		Username:      name,
		TotalCookies:  snap.TotalCookies,
		PrestigeLevel: snap.PrestigeLevel,
		UpdatedAt:     now,
	}
}

// snapshotToModel 快照转换为存档表记录
func snapshotToModel(userKey string, snap *Snapshot) (*models.GameState, error) {
	buildings, err := json.Marshal(snap.Buildings)
	if err != nil {
		return nil, err
	}
	upgrades, err := json.Marshal(snap.Upgrades)
	if err != nil {
		return nil, err
	}
	achievements, err := json.Marshal(snap.Achievements)
	if err != nil {
		return nil, err
	}

	lastActive := snap.LastActiveTime()
	if lastActive.IsZero() {
		lastActive = time.Now()
	}

	return &models.GameState{
		UserKey:            userKey,
		Cookies:            snap.Cookies,
		TotalCookies:       snap.TotalCookies,
		CPS:                snap.CPS,
		ClickPower:         snap.ClickPower,
		Buildings:          string(buildings),
		Upgrades:           string(upgrades),
		Achievements:       string(achievements),
		PrestigeLevel:      snap.PrestigeLevel,
		PrestigeMultiplier: snap.PrestigeMultiplier,
		LastActive:         lastActive,
		UpdatedAt:          time.Now(),
	}, nil
}

// modelToSnapshot 存档表记录转换为快照
func modelToSnapshot(row *models.GameState) (*Snapshot, error) {
	snap := &Snapshot{
		Cookies:            row.Cookies,
		TotalCookies:       row.TotalCookies,
		CPS:                row.CPS,
		ClickPower:         row.ClickPower,
		PrestigeLevel:      row.PrestigeLevel,
		PrestigeMultiplier: row.PrestigeMultiplier,
	}
	if !row.LastActive.IsZero() {
		snap.LastActive = row.LastActive.UnixMilli()
	}
	if err := decodeColumn(row.Buildings, &snap.Buildings); err != nil {
		return nil, fmt.Errorf("解析建筑数据失败: %w", err)
	}
	if err := decodeColumn(row.Upgrades, &snap.Upgrades); err != nil {
		return nil, fmt.Errorf("解析升级数据失败: %w", err)
	}
	if err := decodeColumn(row.Achievements, &snap.Achievements); err != nil {
		return nil, fmt.Errorf("解析成就数据失败: %w", err)
	}
	return snap, nil
}

func decodeColumn(data string, out interface{}) error {
	if data == "" || data == "null" {
		return nil
	}
	return json.Unmarshal([]byte(data), out)
}
