package adapter

import (
	"context"
	"sync"
)

// MemoryAdapter 内存存档槽，进程退出即丢失
type MemoryAdapter struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// NewMemoryAdapter 创建内存适配器
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		slots: make(map[string][]byte),
	}
}

// Connect 内存适配器无需连接
func (a *MemoryAdapter) Connect(ctx context.Context) error { return nil }

// Close 关闭
func (a *MemoryAdapter) Close() error { return nil }

// Ping 测试连接
func (a *MemoryAdapter) Ping(ctx context.Context) error { return nil }

// Get 读取存档槽
func (a *MemoryAdapter) Get(ctx context.Context, slot string) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	data, ok := a.slots[slot]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// Set 写入存档槽
func (a *MemoryAdapter) Set(ctx context.Context, slot string, data []byte) error {
	if len(data) == 0 {
		return ErrInvalidData
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.slots[slot] = append([]byte(nil), data...)
	return nil
}

// Delete 删除存档槽
func (a *MemoryAdapter) Delete(ctx context.Context, slot string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.slots[slot]; !ok {
		return ErrNotFound
	}
	delete(a.slots, slot)
	return nil
}
