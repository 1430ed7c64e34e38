package game

import (
	"sync"
	"time"

	"github.com/wfunc/cookie-game/internal/game/catalog"
)

// DefaultTickInterval 默认tick间隔（10Hz）
const DefaultTickInterval = 100 * time.Millisecond

// Engine 游戏状态引擎
// 独占持有 GameState，所有操作在同一把锁内完成
type Engine struct {
	mu             sync.Mutex
	state          *GameState
	clock          Clock
	ticksPerSecond float64
}

// EngineOption 引擎选项
type EngineOption func(*Engine)

// WithClock 指定时间源
func WithClock(c Clock) EngineOption {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithTickInterval 指定tick间隔，每tick的产量随之换算
func WithTickInterval(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.ticksPerSecond = float64(time.Second) / float64(d)
		}
	}
}

// NewEngine 创建引擎，初始为全新状态
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		clock:          RealClock{},
		ticksPerSecond: float64(time.Second) / float64(DefaultTickInterval),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.state = NewGameState(e.clock.Now())
	return e
}

// TicksPerSecond 每秒tick次数
func (e *Engine) TicksPerSecond() float64 {
	return e.ticksPerSecond
}

// Click 手动点击，返回本次获得的饼干数
func (e *Engine) Click() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	gain := e.state.ClickPower * e.state.PrestigeMultiplier
	e.state.Cookies += gain
	e.state.TotalCookies += gain
	e.checkAchievementsLocked()
	return gain
}

// BuyBuilding 购买建筑，ID未知或饼干不足时不做任何修改并返回false
func (e *Engine) BuyBuilding(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	b := e.state.findBuilding(id)
	if b == nil {
		return false
	}
	cost := BuildingCost(b.BaseCost, b.Count)
	if e.state.Cookies < cost {
		return false
	}

	e.state.Cookies -= cost
	b.Count++
	e.recomputeRateLocked()
	e.checkAchievementsLocked()
	return true
}

// BuyUpgrade 购买升级，ID未知、已购买或饼干不足时返回false
func (e *Engine) BuyUpgrade(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	u := e.state.findUpgrade(id)
	if u == nil || u.Purchased || e.state.Cookies < u.Cost {
		return false
	}

	e.state.Cookies -= u.Cost
	u.Purchased = true
	e.recomputeRateLocked()
	e.checkAchievementsLocked()
	return true
}

// Tick 按固定节奏累加产量，返回本tick获得的饼干数
func (e *Engine) Tick() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	gain := e.state.CPS * e.state.PrestigeMultiplier / e.ticksPerSecond
	e.state.Cookies += gain
	e.state.TotalCookies += gain
	return gain
}

// RecomputeRate 重新计算每秒产量
func (e *Engine) RecomputeRate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recomputeRateLocked()
}

func (e *Engine) recomputeRateLocked() float64 {
	e.state.CPS = e.state.productionRate()
	return e.state.CPS
}

// CheckAchievements 检查成就，返回新解锁的成就ID
func (e *Engine) CheckAchievements() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.checkAchievementsLocked()
}

func (e *Engine) checkAchievementsLocked() []string {
	facts := e.state.facts()
	var unlocked []string
	for i := range e.state.Achievements {
		a := &e.state.Achievements[i]
		if a.Unlocked {
			continue
		}
		if a.Condition.Evaluate(facts) {
			a.Unlocked = true
			unlocked = append(unlocked, a.ID)
		}
	}
	return unlocked
}

// CanPrestige 累计饼干是否达到声望门槛
func (e *Engine) CanPrestige() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.TotalCookies >= catalog.PrestigeThreshold
}

// Prestige 声望重置，返回新的声望等级
// 引擎本身不检查门槛，由调用方决定
func (e *Engine) Prestige() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	old := e.state
	level := old.PrestigeLevel + 1

	next := NewGameState(e.clock.Now())
	next.TotalCookies = old.TotalCookies
	next.Achievements = append([]Achievement(nil), old.Achievements...)
	next.PrestigeLevel = level
	next.PrestigeMultiplier = catalog.PrestigeMultiplierFor(level)
	e.state = next

	e.recomputeRateLocked()
	e.checkAchievementsLocked()
	return level
}

// Reset 完全重置（包括声望等级）
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = NewGameState(e.clock.Now())
}

// State 返回当前状态的只读副本
func (e *Engine) State() *GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Snapshot 生成持久化快照，同时刷新 LastActive
func (e *Engine) Snapshot() *Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.LastActive = e.clock.Now()
	return newSnapshot(e.state)
}

// View 生成展示视图
func (e *Engine) View() *StateView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return newStateView(e.state)
}

// Restore 合并快照并安装为当前状态，然后结算离线收益
func (e *Engine) Restore(snap *Snapshot) OfflineAward {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	e.state = MergeSnapshot(snap, now)
	award := reconcileOffline(e.state, now)
	e.checkAchievementsLocked()
	return award
}
