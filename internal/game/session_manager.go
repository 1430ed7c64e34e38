package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrSessionNotFound 会话不存在
	ErrSessionNotFound = errors.New("会话不存在")
	// ErrSessionLimit 会话数量已达上限
	ErrSessionLimit = errors.New("会话数量已达上限")
	// ErrSessionClosed 会话已关闭
	ErrSessionClosed = errors.New("会话已关闭")
)

// Timers 会话定时器间隔
type Timers struct {
	Tick   time.Duration // 产出tick
	Save   time.Duration // 自动保存
	Mirror time.Duration // 排行榜镜像（仅登录玩家）
}

// DefaultTimers 默认定时器配置
func DefaultTimers() Timers {
	return Timers{
		Tick:   DefaultTickInterval,
		Save:   10 * time.Second,
		Mirror: 5 * time.Second,
	}
}

func (t Timers) withDefaults() Timers {
	def := DefaultTimers()
	if t.Tick <= 0 {
		t.Tick = def.Tick
	}
	if t.Save <= 0 {
		t.Save = def.Save
	}
	if t.Mirror <= 0 {
		t.Mirror = def.Mirror
	}
	return t
}

// Session 单个玩家的游戏会话
// 持有一个引擎，tick/自动保存/排行榜镜像三个循环运行在同一个errgroup上
type Session struct {
	Key          string
	Owner        *Identity
	OfflineAward OfflineAward
	Restored     bool
	StartTime    time.Time

	engine    *Engine
	persister StatePersister
	mirror    LeaderboardMirror
	lifecycle *Lifecycle
	timers    Timers
	logger    *zap.Logger

	mu           sync.RWMutex
	saveMu       sync.Mutex // 快照与写入一起串行，写入顺序与快照顺序一致
	lastActivity time.Time
	cancel       context.CancelFunc
	group        *errgroup.Group
	closeOnce    sync.Once
	closeErr     error
}

// Engine 会话持有的引擎
func (s *Session) Engine() *Engine {
	return s.engine
}

// Phase 会话当前阶段
func (s *Session) Phase() SessionPhase {
	return s.lifecycle.Phase()
}

// LastActivity 最后一次玩家操作时间
func (s *Session) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

func (s *Session) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
}

func (s *Session) active() error {
	if s.lifecycle.Phase() != PhaseActive {
		return ErrSessionClosed
	}
	return nil
}

// start 启动会话循环
func (s *Session) start(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	g, gctx := errgroup.WithContext(ctx)

	s.mu.Lock()
	s.cancel = cancel
	s.group = g
	s.mu.Unlock()

	g.Go(func() error { return s.tickLoop(gctx) })
	g.Go(func() error { return s.saveLoop(gctx) })
	if s.Owner != nil && s.mirror != nil {
		g.Go(func() error { return s.mirrorLoop(gctx) })
	}

	return s.lifecycle.Trigger(EventLoaded)
}

func (s *Session) tickLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.timers.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.engine.Tick()
			if unlocked := s.engine.CheckAchievements(); len(unlocked) > 0 {
				s.logger.Info("解锁成就",
					zap.String("owner", s.Key),
					zap.Strings("achievements", unlocked))
			}
		}
	}
}

func (s *Session) saveLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.timers.Save)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			// 保存失败只记录日志，下个周期重试
			_ = s.Save(ctx)
		}
	}
}

func (s *Session) mirrorLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.timers.Mirror)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.mirror.Mirror(ctx, s.Owner, s.engine.Snapshot()); err != nil {
				s.logger.Warn("排行榜镜像失败",
					zap.String("owner", s.Key),
					zap.Error(err))
			}
		}
	}
}

// Save 立即保存当前进度，失败不影响内存状态
func (s *Session) Save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	snap := s.engine.Snapshot()
	if err := s.persister.Save(ctx, s.Owner, snap); err != nil {
		s.logger.Error("保存存档失败",
			zap.String("owner", s.Key),
			zap.Error(err))
		return err
	}
	s.logger.Debug("存档已保存",
		zap.String("owner", s.Key),
		zap.Float64("total_cookies", snap.TotalCookies))
	return nil
}

// Click 手动点击
func (s *Session) Click() (float64, error) {
	if err := s.active(); err != nil {
		return 0, err
	}
	s.touch()
	gained := s.engine.Click()
	s.engine.CheckAchievements()
	return gained, nil
}

// BuyBuilding 购买建筑，资金不足等情况返回 false
func (s *Session) BuyBuilding(id string) (bool, error) {
	if err := s.active(); err != nil {
		return false, err
	}
	s.touch()
	ok := s.engine.BuyBuilding(id)
	if ok {
		s.engine.CheckAchievements()
	}
	return ok, nil
}

// BuyUpgrade 购买升级
func (s *Session) BuyUpgrade(id string) (bool, error) {
	if err := s.active(); err != nil {
		return false, err
	}
	s.touch()
	return s.engine.BuyUpgrade(id), nil
}

// Prestige 转生并立即保存
func (s *Session) Prestige(ctx context.Context) (int, error) {
	if err := s.active(); err != nil {
		return 0, err
	}
	s.touch()
	level := s.engine.Prestige()
	s.logger.Info("玩家转生",
		zap.String("owner", s.Key),
		zap.Int("prestige_level", level))

	// 保存失败不回滚内存状态
	_ = s.Save(ctx)
	return level, nil
}

// Reset 清空进度
func (s *Session) Reset() error {
	if err := s.active(); err != nil {
		return err
	}
	s.touch()
	s.engine.Reset()
	return nil
}

// View 当前状态视图
func (s *Session) View() *StateView {
	return s.engine.View()
}

// Close 停止循环并执行最终保存，可重复调用
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		if err := s.lifecycle.Trigger(EventClose); err != nil {
			s.closeErr = err
			return
		}

		s.stopLoops()
		s.closeErr = s.Save(ctx)
		_ = s.lifecycle.Trigger(EventClosed)
	})
	return s.closeErr
}

// stopLoops 取消并等待三个循环退出
func (s *Session) stopLoops() {
	s.mu.RLock()
	cancel, g := s.cancel, s.group
	s.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
	if g != nil {
		_ = g.Wait()
	}
}

// SessionConfig 会话管理器配置
type SessionConfig struct {
	Logger         *zap.Logger
	Persister      StatePersister
	Mirror         LeaderboardMirror // 为空时尝试使用 Persister
	Clock          Clock
	Timers         Timers
	SessionTimeout time.Duration
	MaxSessions    int
}

// SessionManager 游戏会话管理器，每个存档键最多一个会话
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opening  map[string]*sync.Mutex

	logger          *zap.Logger
	persister       StatePersister
	mirror          LeaderboardMirror
	recoveryManager *RecoveryManager
	clock           Clock
	timers          Timers
	sessionTimeout  time.Duration
	maxSessions     int

	ctx    context.Context
	cancel context.CancelFunc
}

// NewSessionManager 创建会话管理器
func NewSessionManager(config *SessionConfig) *SessionManager {
	log := config.Logger
	if log == nil {
		log = zap.NewNop()
	}
	clk := config.Clock
	if clk == nil {
		clk = RealClock{}
	}
	mirror := config.Mirror
	if mirror == nil {
		if m, ok := config.Persister.(LeaderboardMirror); ok {
			mirror = m
		}
	}
	timeout := config.SessionTimeout
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	maxSessions := config.MaxSessions
	if maxSessions <= 0 {
		maxSessions = 1000
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &SessionManager{
		sessions:        make(map[string]*Session),
		opening:         make(map[string]*sync.Mutex),
		logger:          log,
		persister:       config.Persister,
		mirror:          mirror,
		recoveryManager: NewRecoveryManager(log, config.Persister, clk, 0),
		clock:           clk,
		timers:          config.Timers.withDefaults(),
		sessionTimeout:  timeout,
		maxSessions:     maxSessions,
		ctx:             ctx,
		cancel:          cancel,
	}
}

// SetTimers 修改定时器间隔，仅对之后创建的会话生效
func (sm *SessionManager) SetTimers(t Timers) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.timers = t.withDefaults()
}

func (sm *SessionManager) openLock(key string) *sync.Mutex {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	l, ok := sm.opening[key]
	if !ok {
		l = &sync.Mutex{}
		sm.opening[key] = l
	}
	return l
}

// Open 打开会话：已存在则直接返回，否则加载存档并结算离线收益
func (sm *SessionManager) Open(ctx context.Context, owner *Identity) (*Session, error) {
	key := ownerKey(owner)

	// 同一存档键的并发打开串行化，避免重复加载
	l := sm.openLock(key)
	l.Lock()
	defer l.Unlock()

	if s, err := sm.Get(key); err == nil {
		s.touch()
		return s, nil
	}

	sm.mu.RLock()
	full := len(sm.sessions) >= sm.maxSessions
	timers := sm.timers
	sm.mu.RUnlock()
	if full {
		return nil, ErrSessionLimit
	}

	lifecycle := NewLifecycle()
	lifecycle.OnStateChange(func(from, to SessionPhase) {
		sm.logger.Debug("会话状态变更",
			zap.String("owner", key),
			zap.String("from", string(from)),
			zap.String("to", string(to)))
	})

	recovered, err := sm.recoveryManager.Recover(ctx, owner, WithTickInterval(timers.Tick))
	if err != nil {
		_ = lifecycle.Trigger(EventClose)
		return nil, err
	}

	now := time.Now()
	s := &Session{
		Key:          key,
		Owner:        owner,
		OfflineAward: recovered.Award,
		Restored:     recovered.Restored,
		StartTime:    now,
		engine:       recovered.Engine,
		persister:    sm.persister,
		mirror:       sm.mirror,
		lifecycle:    lifecycle,
		timers:       timers,
		logger:       sm.logger,
		lastActivity: now,
	}
	if err := s.start(sm.ctx); err != nil {
		s.stopLoops()
		return nil, fmt.Errorf("启动会话失败: %w", err)
	}

	sm.mu.Lock()
	sm.sessions[key] = s
	sm.mu.Unlock()

	sm.logger.Info("打开游戏会话",
		zap.String("owner", key),
		zap.Bool("restored", recovered.Restored),
		zap.Float64("offline_award", recovered.Award.Amount))

	return s, nil
}

// Get 获取会话
func (sm *SessionManager) Get(key string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	s, ok := sm.sessions[key]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// GetFor 按身份获取会话
func (sm *SessionManager) GetFor(owner *Identity) (*Session, error) {
	return sm.Get(ownerKey(owner))
}

// Close 关闭会话（最终保存后移除）
// 持有该键的打开锁直到最终保存完成，期间同键的 Open 会等待并加载最终存档
func (sm *SessionManager) Close(ctx context.Context, key string) error {
	l := sm.openLock(key)
	l.Lock()
	defer l.Unlock()

	sm.mu.Lock()
	s, ok := sm.sessions[key]
	if ok {
		delete(sm.sessions, key)
	}
	sm.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	err := s.Close(ctx)
	sm.logger.Info("关闭游戏会话",
		zap.String("owner", key),
		zap.Duration("duration", time.Since(s.StartTime)),
		zap.Error(err))
	return err
}

// CleanupInactiveSessions 关闭超时未操作的会话
func (sm *SessionManager) CleanupInactiveSessions(ctx context.Context) int {
	now := time.Now()

	sm.mu.RLock()
	var idle []string
	for key, s := range sm.sessions {
		if now.Sub(s.LastActivity()) > sm.sessionTimeout {
			idle = append(idle, key)
		}
	}
	sm.mu.RUnlock()

	for _, key := range idle {
		if err := sm.Close(ctx, key); err != nil && !errors.Is(err, ErrSessionNotFound) {
			sm.logger.Error("关闭超时会话失败",
				zap.String("owner", key),
				zap.Error(err))
			continue
		}
		sm.logger.Info("清理超时会话", zap.String("owner", key))
	}
	return len(idle)
}

// StartCleanupTask 启动清理任务
func (sm *SessionManager) StartCleanupTask(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				sm.logger.Info("停止会话清理任务")
				return
			case <-ticker.C:
				sm.CleanupInactiveSessions(ctx)
			}
		}
	}()
}

// Shutdown 关闭所有会话，每个会话都执行最终保存
func (sm *SessionManager) Shutdown(ctx context.Context) error {
	sm.mu.RLock()
	keys := make([]string, 0, len(sm.sessions))
	for key := range sm.sessions {
		keys = append(keys, key)
	}
	sm.mu.RUnlock()

	var errs []error
	for _, key := range keys {
		if err := sm.Close(ctx, key); err != nil && !errors.Is(err, ErrSessionNotFound) {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}
	sm.cancel()

	sm.logger.Info("会话管理器已关闭", zap.Int("sessions", len(keys)))
	return errors.Join(errs...)
}

// ActiveSessions 当前会话数
func (sm *SessionManager) ActiveSessions() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}
