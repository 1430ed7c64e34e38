package models

import (
	"time"
)

// GameState 玩家存档表（每个玩家一行，按 user_key 唯一）
type GameState struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserKey            string    `gorm:"uniqueIndex;size:64;not null" json:"user_key"`
	Cookies            float64   `gorm:"not null;default:0" json:"cookies"`
	TotalCookies       float64   `gorm:"not null;default:0;index" json:"total_cookies"`
	CPS                float64   `gorm:"column:cps;not null;default:0" json:"cps"`
	ClickPower         float64   `gorm:"not null;default:1" json:"click_power"`
	Buildings          string    `gorm:"type:text" json:"buildings"`    // JSON [{id,count}]
	Upgrades           string    `gorm:"type:text" json:"upgrades"`     // JSON [{id,purchased}]
	Achievements       string    `gorm:"type:text" json:"achievements"` // JSON [{id,unlocked}]
	PrestigeLevel      int       `gorm:"not null;default:0" json:"prestige_level"`
	PrestigeMultiplier float64   `gorm:"not null;default:1" json:"prestige_multiplier"`
	LastActive         time.Time `json:"last_active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// TableName 指定表名
func (GameState) TableName() string {
	return "game_states"
}
