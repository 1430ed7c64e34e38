package game

import (
	"time"

	"github.com/wfunc/cookie-game/internal/game/catalog"
	"github.com/wfunc/cookie-game/internal/models"
)

// OpenSessionResponse 打开会话响应
type OpenSessionResponse struct {
	Owner        string       `json:"owner"`
	Restored     bool         `json:"restored"` // 是否从存档恢复
	OfflineAward OfflineAward `json:"offline_award"`
	State        *StateView   `json:"state"`
}

// ActionResponse 玩家操作响应
// 资金不足等无效操作不是错误，Applied 为 false
type ActionResponse struct {
	Applied bool       `json:"applied"`
	Gained  float64    `json:"gained,omitempty"`
	State   *StateView `json:"state"`
}

// PrestigeResponse 转生响应
type PrestigeResponse struct {
	PrestigeLevel      int        `json:"prestige_level"`
	PrestigeMultiplier float64    `json:"prestige_multiplier"`
	State              *StateView `json:"state"`
}

// SessionInfo 会话信息
type SessionInfo struct {
	Owner        string       `json:"owner"`
	Phase        SessionPhase `json:"phase"`
	StartTime    time.Time    `json:"start_time"`
	LastActivity time.Time    `json:"last_activity"`
	Duration     float64      `json:"duration"`
}

// CatalogResponse 静态目录
type CatalogResponse struct {
	Buildings              []catalog.BuildingDef    `json:"buildings"`
	Upgrades               []catalog.UpgradeDef     `json:"upgrades"`
	Achievements           []catalog.AchievementDef `json:"achievements"`
	PrestigeThreshold      float64                  `json:"prestige_threshold"`
	PrestigeMultiplierBase float64                  `json:"prestige_multiplier_base"`
}

// LeaderboardResponse 排行榜响应
type LeaderboardResponse struct {
	Entries []*models.LeaderboardEntry `json:"entries"`
	Limit   int                        `json:"limit"`
	MyRank  int                        `json:"my_rank,omitempty"` // 0表示未上榜或未登录
}
