package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// slowTimers 测试中不希望触发的循环使用很长的间隔
var slowTimers = Timers{Tick: time.Hour, Save: time.Hour, Mirror: time.Hour}

func newTestManager(t *testing.T, p StatePersister, timers Timers) *SessionManager {
	t.Helper()
	sm := NewSessionManager(&SessionConfig{
		Logger:         zap.NewNop(),
		Persister:      p,
		Clock:          NewFakeClock(testStart),
		Timers:         timers,
		SessionTimeout: time.Hour,
		MaxSessions:    10,
	})
	t.Cleanup(func() { _ = sm.Shutdown(context.Background()) })
	return sm
}

func TestSessionManager_OpenIsIdempotent(t *testing.T) {
	sm := newTestManager(t, NewMemoryStatePersister(), slowTimers)
	ctx := context.Background()

	s1, err := sm.Open(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultLocalSlot, s1.Key)
	assert.False(t, s1.Restored)
	assert.Equal(t, PhaseActive, s1.Phase())

	s2, err := sm.Open(ctx, nil)
	require.NoError(t, err)
	assert.Same(t, s1, s2)
	assert.Equal(t, 1, sm.ActiveSessions())

	owner := &Identity{ID: "user-1", DisplayName: "alice"}
	s3, err := sm.Open(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "user-1", s3.Key)
	assert.Equal(t, 2, sm.ActiveSessions())

	got, err := sm.GetFor(owner)
	require.NoError(t, err)
	assert.Same(t, s3, got)
}

func TestSessionManager_CloseSavesFinalState(t *testing.T) {
	p := NewMemoryStatePersister()
	sm := newTestManager(t, p, slowTimers)
	ctx := context.Background()

	s, err := sm.Open(ctx, nil)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := s.Click()
		require.NoError(t, err)
	}

	require.NoError(t, sm.Close(ctx, s.Key))
	assert.Equal(t, PhaseClosed, s.Phase())
	assert.Equal(t, 0, sm.ActiveSessions())
	assert.Equal(t, 1, p.SaveCount())

	snap, err := p.Load(ctx, nil)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 5.0, snap.Cookies)
	assert.Equal(t, 5.0, snap.TotalCookies)

	// 关闭后的操作被拒绝
	_, err = s.Click()
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.NoError(t, s.Close(ctx))
	assert.Equal(t, 1, p.SaveCount())

	assert.ErrorIs(t, sm.Close(ctx, s.Key), ErrSessionNotFound)
}

func TestSessionManager_ReopenRestoresProgress(t *testing.T) {
	p := NewMemoryStatePersister()
	sm := newTestManager(t, p, slowTimers)
	ctx := context.Background()
	owner := &Identity{ID: "user-1"}

	s, err := sm.Open(ctx, owner)
	require.NoError(t, err)
	setCookies(s.Engine(), 100)
	ok, err := s.BuyBuilding("grandma")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, sm.Close(ctx, s.Key))

	s, err = sm.Open(ctx, owner)
	require.NoError(t, err)
	assert.True(t, s.Restored)
	assert.Equal(t, 1, s.Engine().State().findBuilding("grandma").Count)
}

func TestSession_TickLoop(t *testing.T) {
	sm := newTestManager(t, NewMemoryStatePersister(), Timers{Tick: 5 * time.Millisecond, Save: time.Hour, Mirror: time.Hour})

	s, err := sm.Open(context.Background(), nil)
	require.NoError(t, err)
	setCookies(s.Engine(), 100)
	ok, err := s.BuyBuilding("grandma")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		return s.Engine().State().Cookies > 0
	}, time.Second, 5*time.Millisecond)
}

func TestSession_AutosaveLoop(t *testing.T) {
	p := NewMemoryStatePersister()
	sm := newTestManager(t, p, Timers{Tick: time.Hour, Save: 10 * time.Millisecond, Mirror: time.Hour})

	_, err := sm.Open(context.Background(), nil)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return p.SaveCount() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestSession_AutosaveFailureKeepsState(t *testing.T) {
	p := NewMemoryStatePersister()
	sm := newTestManager(t, p, Timers{Tick: time.Hour, Save: 5 * time.Millisecond, Mirror: time.Hour})

	s, err := sm.Open(context.Background(), nil)
	require.NoError(t, err)
	_, err = s.Click()
	require.NoError(t, err)

	p.Fail(errors.New("disk full"))
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, 1.0, s.Engine().State().Cookies)
	assert.Equal(t, PhaseActive, s.Phase())
	assert.Error(t, s.Save(context.Background()))

	p.Fail(nil)
	assert.Eventually(t, func() bool {
		return p.SaveCount() > 0
	}, time.Second, 5*time.Millisecond)
}

func TestSession_MirrorLoopOnlyForIdentity(t *testing.T) {
	p := NewMemoryStatePersister()
	sm := newTestManager(t, p, Timers{Tick: time.Hour, Save: time.Hour, Mirror: 5 * time.Millisecond})
	ctx := context.Background()

	owner := &Identity{ID: "user-1", DisplayName: "alice"}
	s, err := sm.Open(ctx, owner)
	require.NoError(t, err)
	_, err = s.Click()
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		e := p.LeaderboardEntry("user-1")
		return e != nil && e.TotalCookies == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "alice", p.LeaderboardEntry("user-1").Username)
	assert.Equal(t, 0, p.SaveCount())
}

func TestSession_PrestigeSavesImmediately(t *testing.T) {
	p := NewMemoryStatePersister()
	sm := newTestManager(t, p, slowTimers)
	ctx := context.Background()

	s, err := sm.Open(ctx, nil)
	require.NoError(t, err)
	setCookies(s.Engine(), 1e12)

	level, err := s.Prestige(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, level)
	assert.Equal(t, 1, p.SaveCount())

	snap, err := p.Load(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.PrestigeLevel)
	assert.Equal(t, 1.5, snap.PrestigeMultiplier)
	assert.Equal(t, 1e12, snap.TotalCookies)
}

func TestSessionManager_MaxSessions(t *testing.T) {
	sm := NewSessionManager(&SessionConfig{
		Persister:   NewMemoryStatePersister(),
		Timers:      slowTimers,
		MaxSessions: 1,
	})
	defer sm.Shutdown(context.Background())

	_, err := sm.Open(context.Background(), nil)
	require.NoError(t, err)

	_, err = sm.Open(context.Background(), &Identity{ID: "user-1"})
	assert.ErrorIs(t, err, ErrSessionLimit)

	// 已存在的会话不受上限影响
	_, err = sm.Open(context.Background(), nil)
	assert.NoError(t, err)
}

func TestSessionManager_OpenLoadFailure(t *testing.T) {
	p := NewMemoryStatePersister()
	p.Fail(errors.New("timeout"))
	sm := newTestManager(t, p, slowTimers)

	s, err := sm.Open(context.Background(), &Identity{ID: "user-1"})
	assert.Error(t, err)
	assert.Nil(t, s)
	assert.Equal(t, 0, sm.ActiveSessions())
}

func TestSessionManager_CleanupInactiveSessions(t *testing.T) {
	p := NewMemoryStatePersister()
	sm := NewSessionManager(&SessionConfig{
		Persister:      p,
		Timers:         slowTimers,
		SessionTimeout: time.Millisecond,
	})
	defer sm.Shutdown(context.Background())

	_, err := sm.Open(context.Background(), nil)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)

	assert.Equal(t, 1, sm.CleanupInactiveSessions(context.Background()))
	assert.Equal(t, 0, sm.ActiveSessions())
	assert.Equal(t, 1, p.SaveCount())
}

func TestSessionManager_Shutdown(t *testing.T) {
	p := NewMemoryStatePersister()
	sm := NewSessionManager(&SessionConfig{Persister: p, Timers: slowTimers})
	ctx := context.Background()

	_, err := sm.Open(ctx, nil)
	require.NoError(t, err)
	_, err = sm.Open(ctx, &Identity{ID: "user-1"})
	require.NoError(t, err)

	require.NoError(t, sm.Shutdown(ctx))
	assert.Equal(t, 0, sm.ActiveSessions())
	assert.Equal(t, 2, p.SaveCount())
}

func TestTimers_Defaults(t *testing.T) {
	got := Timers{Save: time.Minute}.withDefaults()
	assert.Equal(t, DefaultTickInterval, got.Tick)
	assert.Equal(t, time.Minute, got.Save)
	assert.Equal(t, 5*time.Second, got.Mirror)
}

// gatedPersister 布防后下一次 Save 在写入前阻塞，直到放行
type gatedPersister struct {
	*MemoryStatePersister

	mu      sync.Mutex
	armed   bool
	entered chan struct{}
	release chan struct{}
}

func newGatedPersister() *gatedPersister {
	return &gatedPersister{MemoryStatePersister: NewMemoryStatePersister()}
}

func (g *gatedPersister) arm() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.armed = true
	g.entered = make(chan struct{})
	g.release = make(chan struct{})
}

func (g *gatedPersister) Save(ctx context.Context, owner *Identity, snap *Snapshot) error {
	g.mu.Lock()
	armed := g.armed
	g.armed = false
	entered, release := g.entered, g.release
	g.mu.Unlock()

	if armed {
		close(entered)
		<-release
	}
	return g.MemoryStatePersister.Save(ctx, owner, snap)
}

func TestSessionManager_ReopenWaitsForFinalSave(t *testing.T) {
	p := newGatedPersister()
	sm := newTestManager(t, p, slowTimers)
	ctx := context.Background()

	s, err := sm.Open(ctx, nil)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		_, err := s.Click()
		require.NoError(t, err)
	}

	p.arm()
	closed := make(chan error, 1)
	go func() { closed <- sm.Close(ctx, s.Key) }()
	<-p.entered

	type result struct {
		s   *Session
		err error
	}
	reopened := make(chan result, 1)
	go func() {
		rs, err := sm.Open(ctx, nil)
		reopened <- result{rs, err}
	}()

	select {
	case <-reopened:
		t.Fatal("最终保存完成前不应重新打开会话")
	case <-time.After(50 * time.Millisecond):
	}

	close(p.release)
	require.NoError(t, <-closed)

	r := <-reopened
	require.NoError(t, r.err)
	assert.NotSame(t, s, r.s)
	assert.True(t, r.s.Restored)
	assert.Equal(t, 50.0, r.s.Engine().Snapshot().Cookies)
	assert.Equal(t, 1, sm.ActiveSessions())

	// 新会话再次保存不会覆盖掉已有进度
	require.NoError(t, r.s.Save(ctx))
	snap, err := p.Load(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 50.0, snap.TotalCookies)
}

func TestSession_SavesLandInSnapshotOrder(t *testing.T) {
	p := newGatedPersister()
	sm := newTestManager(t, p, slowTimers)
	ctx := context.Background()

	s, err := sm.Open(ctx, nil)
	require.NoError(t, err)
	setCookies(s.Engine(), 1e12)
	require.True(t, s.Engine().BuyBuilding("cursor"))

	// 模拟自动保存：快照在转生之前取得，写入被阻塞
	p.arm()
	autosaved := make(chan error, 1)
	go func() { autosaved <- s.Save(ctx) }()
	<-p.entered

	prestiged := make(chan int, 1)
	go func() {
		level, _ := s.Prestige(ctx)
		prestiged <- level
	}()

	select {
	case <-prestiged:
		t.Fatal("转生保存应等待进行中的保存")
	case <-time.After(50 * time.Millisecond):
	}

	close(p.release)
	require.NoError(t, <-autosaved)
	assert.Equal(t, 1, <-prestiged)

	snap, err := p.Load(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.PrestigeLevel)
	for _, b := range snap.Buildings {
		assert.Zero(t, b.Count, b.ID)
	}
	assert.Equal(t, 2, p.SaveCount())
}

func TestSession_StartFailureStopsLoops(t *testing.T) {
	lc := NewLifecycle()
	require.NoError(t, lc.Trigger(EventClose))

	s := &Session{
		Key:       DefaultLocalSlot,
		engine:    NewEngine(),
		persister: NewMemoryStatePersister(),
		lifecycle: lc,
		timers:    Timers{Tick: time.Millisecond, Save: time.Hour, Mirror: time.Hour},
		logger:    zap.NewNop(),
	}
	require.Error(t, s.start(context.Background()))

	stopped := make(chan struct{})
	go func() {
		s.stopLoops()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("启动失败后循环应当退出")
	}
}
