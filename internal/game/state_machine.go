package game

import (
	"fmt"
	"sync"
	"time"
)

// SessionPhase 会话生命周期阶段
type SessionPhase string

const (
	PhaseLoading SessionPhase = "loading" // 加载存档中
	PhaseActive  SessionPhase = "active"  // 运行中（tick/自动保存）
	PhaseClosing SessionPhase = "closing" // 停止循环，执行最终保存
	PhaseClosed  SessionPhase = "closed"  // 已关闭
)

// 生命周期事件
const (
	EventLoaded = "loaded"
	EventClose  = "close"
	EventClosed = "closed"
)

// phaseTransition 阶段转换定义
type phaseTransition struct {
	From  SessionPhase
	Event string
	To    SessionPhase
}

var phaseTransitions = []phaseTransition{
	{From: PhaseLoading, Event: EventLoaded, To: PhaseActive},
	{From: PhaseLoading, Event: EventClose, To: PhaseClosing},
	{From: PhaseActive, Event: EventClose, To: PhaseClosing},
	{From: PhaseClosing, Event: EventClosed, To: PhaseClosed},
}

// Lifecycle 会话生命周期状态机
type Lifecycle struct {
	mu          sync.RWMutex
	current     SessionPhase
	transitions map[string]SessionPhase
	lastUpdate  time.Time

	onStateChange func(from, to SessionPhase)
}

// NewLifecycle 创建生命周期状态机，初始为加载阶段
func NewLifecycle() *Lifecycle {
	lc := &Lifecycle{
		current:     PhaseLoading,
		transitions: make(map[string]SessionPhase),
		lastUpdate:  time.Now(),
	}
	for _, t := range phaseTransitions {
		lc.transitions[transitionKey(t.From, t.Event)] = t.To
	}
	return lc
}

func transitionKey(phase SessionPhase, event string) string {
	return fmt.Sprintf("%s:%s", phase, event)
}

// Trigger 触发事件
func (lc *Lifecycle) Trigger(event string) error {
	lc.mu.Lock()
	from := lc.current
	to, ok := lc.transitions[transitionKey(from, event)]
	if !ok {
		lc.mu.Unlock()
		return fmt.Errorf("无效的状态转换: 状态=%s, 事件=%s", from, event)
	}
	lc.current = to
	lc.lastUpdate = time.Now()
	cb := lc.onStateChange
	lc.mu.Unlock()

	if cb != nil {
		cb(from, to)
	}
	return nil
}

// CanTransition 检查是否可以转换
func (lc *Lifecycle) CanTransition(event string) bool {
	lc.mu.RLock()
	defer lc.mu.RUnlock()
	_, ok := lc.transitions[transitionKey(lc.current, event)]
	return ok
}

// Phase 当前阶段
func (lc *Lifecycle) Phase() SessionPhase {
	lc.mu.RLock()
	defer lc.mu.RUnlock()
	return lc.current
}

// OnStateChange 设置状态变更回调
func (lc *Lifecycle) OnStateChange(fn func(from, to SessionPhase)) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.onStateChange = fn
}
