package models

import "time"

// LeaderboardEntry 排行榜记录（由存档派生的只读投影）
type LeaderboardEntry struct {
	ID            uint      `gorm:"primaryKey" json:"-"`
	UserKey       string    `gorm:"uniqueIndex;size:64;not null" json:"user_id"`
	Username      string    `gorm:"size:100" json:"username"`
	TotalCookies  float64   `gorm:"not null;default:0;index" json:"total_cookies"`
	PrestigeLevel int       `gorm:"not null;default:0" json:"prestige_level"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName 指定表名
func (LeaderboardEntry) TableName() string {
	return "leaderboard"
}
