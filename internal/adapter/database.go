package adapter

import (
	"context"
	"errors"
)

// SlotStore 本地存档槽适配器接口
// 以字符串为键保存一段不透明的存档数据，未登录玩家的存档写入这里
type SlotStore interface {
	// 基础操作
	Connect(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error

	// 存档槽操作
	Get(ctx context.Context, slot string) ([]byte, error)
	Set(ctx context.Context, slot string, data []byte) error
	Delete(ctx context.Context, slot string) error
}

// AdapterType 适配器类型
type AdapterType string

const (
	AdapterTypeStandalone AdapterType = "standalone" // 单机版：SQLite 文件
	AdapterTypeMemory     AdapterType = "memory"     // 进程内存（测试、临时体验）
)

// Config 适配器配置
type Config struct {
	Type   AdapterType   `mapstructure:"type"`
	SQLite *SQLiteConfig `mapstructure:"sqlite"`
}

// SQLiteConfig SQLite配置
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// Errors
var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidData  = errors.New("invalid data")
	ErrNotConnected = errors.New("adapter not connected")
)

// NewAdapter 创建适配器的工厂函数
func NewAdapter(config *Config) (SlotStore, error) {
	if config == nil {
		return nil, errors.New("adapter config is nil")
	}
	switch config.Type {
	case AdapterTypeStandalone, "":
		return NewStandaloneAdapter(config.SQLite)
	case AdapterTypeMemory:
		return NewMemoryAdapter(), nil
	default:
		return nil, errors.New("unknown adapter type")
	}
}
