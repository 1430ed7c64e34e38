package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// StandaloneAdapter 单机版适配器实现（SQLite）
type StandaloneAdapter struct {
	db     *sql.DB
	config *SQLiteConfig
}

// NewStandaloneAdapter 创建单机版适配器
func NewStandaloneAdapter(config *SQLiteConfig) (*StandaloneAdapter, error) {
	if config == nil || config.Path == "" {
		config = &SQLiteConfig{
			Path: "./data/local-save.db",
		}
	}

	return &StandaloneAdapter{
		config: config,
	}, nil
}

// Connect 连接数据库
func (a *StandaloneAdapter) Connect(ctx context.Context) error {
	if a.config.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(a.config.Path), 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", a.config.Path)
	if err != nil {
		return fmt.Errorf("open sqlite database: %w", err)
	}

	// 设置连接池参数
	db.SetMaxOpenConns(1) // SQLite不支持并发写入
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// 启用WAL模式以提高性能
	if a.config.Path != ":memory:" {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
			db.Close()
			return fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	a.db = db

	if err := a.initSchema(ctx); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	return nil
}

// Close 关闭数据库连接
func (a *StandaloneAdapter) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// Ping 测试连接
func (a *StandaloneAdapter) Ping(ctx context.Context) error {
	if a.db == nil {
		return ErrNotConnected
	}
	return a.db.PingContext(ctx)
}

// Get 读取存档槽
func (a *StandaloneAdapter) Get(ctx context.Context, slot string) ([]byte, error) {
	if a.db == nil {
		return nil, ErrNotConnected
	}

	var data []byte
	err := a.db.QueryRowContext(ctx,
		`SELECT data FROM save_slots WHERE slot = ?`, slot,
	).Scan(&data)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}

	return data, nil
}

// Set 写入存档槽（存在则覆盖）
func (a *StandaloneAdapter) Set(ctx context.Context, slot string, data []byte) error {
	if a.db == nil {
		return ErrNotConnected
	}
	if len(data) == 0 {
		return ErrInvalidData
	}

	query := `
		INSERT INTO save_slots (slot, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`

	if _, err := a.db.ExecContext(ctx, query, slot, data, time.Now()); err != nil {
		return fmt.Errorf("set slot: %w", err)
	}

	return nil
}

// Delete 删除存档槽
func (a *StandaloneAdapter) Delete(ctx context.Context, slot string) error {
	if a.db == nil {
		return ErrNotConnected
	}

	result, err := a.db.ExecContext(ctx, `DELETE FROM save_slots WHERE slot = ?`, slot)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// initSchema 初始化数据库表结构
func (a *StandaloneAdapter) initSchema(ctx context.Context) error {
	schemas := []string{
		// 存档槽表
		`CREATE TABLE IF NOT EXISTS save_slots (
			slot TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
	}

	for _, schema := range schemas {
		if _, err := a.db.ExecContext(ctx, schema); err != nil {
			return err
		}
	}

	return nil
}
