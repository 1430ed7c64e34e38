package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	// 包目录下没有配置文件，只使用默认值
	cfg, _, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "cookieClickerSave", cfg.Storage.Slot)
	assert.Equal(t, 100*time.Millisecond, cfg.Game.TickInterval)
	assert.Equal(t, 10*time.Second, cfg.Game.SaveInterval)
	assert.Equal(t, 5*time.Second, cfg.Game.LeaderboardInterval)
	assert.Equal(t, 100, cfg.Game.LeaderboardLimit)
	assert.Equal(t, "/ws/leaderboard", cfg.WebSocket.Path)
	assert.Equal(t, "cookie-game", cfg.Security.JWT.Issuer)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  driver: postgres
  dsn: "host=localhost user=cookie dbname=cookie"
game:
  tick_interval: 50ms
  save_interval: 30s
  allow_reset: false
log:
  modules:
    game: debug
`)

	cfg, _, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 50*time.Millisecond, cfg.Game.TickInterval)
	assert.Equal(t, 30*time.Second, cfg.Game.SaveInterval)
	assert.False(t, cfg.Game.AllowReset)
	assert.Equal(t, "debug", cfg.Log.Modules["game"])
	// 未覆盖的键保持默认
	assert.Equal(t, 5*time.Second, cfg.Game.LeaderboardInterval)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("COOKIE_GAME_SERVER_PORT", "7070")
	t.Setenv("COOKIE_GAME_GAME_MAX_SESSIONS", "5")
	path := writeConfig(t, "server:\n  host: 127.0.0.1\n")

	cfg, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Game.MaxSessions)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown driver", "database:\n  driver: oracle\n"},
		{"bad port", "server:\n  port: 70000\n"},
		{"zero tick", "game:\n  tick_interval: 0s\n"},
		{"leaderboard limit", "game:\n  leaderboard_limit: 500\n"},
		{"broken yaml", "server: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}
