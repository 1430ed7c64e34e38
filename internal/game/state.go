package game

import (
	"time"

	"github.com/wfunc/cookie-game/internal/game/catalog"
)

// Building 运行时建筑（目录定义 + 拥有数量）
type Building struct {
	catalog.BuildingDef
	Count int `json:"count"`
}

// Upgrade 运行时升级（目录定义 + 是否已购买）
type Upgrade struct {
	catalog.UpgradeDef
	Purchased bool `json:"purchased"`
}

// Achievement 运行时成就（目录定义 + 是否已解锁）
type Achievement struct {
	catalog.AchievementDef
	Unlocked bool `json:"unlocked"`
}

// GameState 玩家进度聚合
type GameState struct {
	Cookies            float64       `json:"cookies"`
	TotalCookies       float64       `json:"total_cookies"`
	CPS                float64       `json:"cps"` // 未乘声望倍率
	ClickPower         float64       `json:"click_power"`
	Buildings          []Building    `json:"buildings"`
	Upgrades           []Upgrade     `json:"upgrades"`
	Achievements       []Achievement `json:"achievements"`
	PrestigeLevel      int           `json:"prestige_level"`
	PrestigeMultiplier float64       `json:"prestige_multiplier"`
	LastActive         time.Time     `json:"last_active"`
}

// NewGameState 创建全新的游戏状态（目录默认值）
func NewGameState(now time.Time) *GameState {
	s := &GameState{
		ClickPower:         1,
		PrestigeMultiplier: 1,
		LastActive:         now,
	}
	for _, b := range catalog.Buildings() {
		s.Buildings = append(s.Buildings, Building{BuildingDef: b})
	}
	for _, u := range catalog.Upgrades() {
		s.Upgrades = append(s.Upgrades, Upgrade{UpgradeDef: u})
	}
	for _, a := range catalog.Achievements() {
		s.Achievements = append(s.Achievements, Achievement{AchievementDef: a})
	}
	return s
}

// Clone 深拷贝
func (s *GameState) Clone() *GameState {
	c := *s
	c.Buildings = append([]Building(nil), s.Buildings...)
	c.Upgrades = append([]Upgrade(nil), s.Upgrades...)
	c.Achievements = append([]Achievement(nil), s.Achievements...)
	return &c
}

// EffectiveCPS 实际每秒产量（含声望倍率）
func (s *GameState) EffectiveCPS() float64 {
	return s.CPS * s.PrestigeMultiplier
}

// BuildingCount 建筑总数
func (s *GameState) BuildingCount() int {
	n := 0
	for _, b := range s.Buildings {
		n += b.Count
	}
	return n
}

func (s *GameState) findBuilding(id string) *Building {
	for i := range s.Buildings {
		if s.Buildings[i].ID == id {
			return &s.Buildings[i]
		}
	}
	return nil
}

func (s *GameState) findUpgrade(id string) *Upgrade {
	for i := range s.Upgrades {
		if s.Upgrades[i].ID == id {
			return &s.Upgrades[i]
		}
	}
	return nil
}

func (s *GameState) facts() catalog.Facts {
	counts := make([]int, len(s.Buildings))
	for i, b := range s.Buildings {
		counts[i] = b.Count
	}
	return catalog.Facts{
		TotalCookies:   s.TotalCookies,
		BuildingCounts: counts,
		PrestigeLevel:  s.PrestigeLevel,
	}
}

// productionRate 根据建筑和已购升级计算基础产量（不含声望倍率）
func (s *GameState) productionRate() float64 {
	global := 1.0
	perBuilding := make(map[string]float64)
	for _, u := range s.Upgrades {
		if !u.Purchased {
			continue
		}
		if u.IsGlobal() {
			global *= u.Multiplier
			continue
		}
		if m, ok := perBuilding[u.AppliesTo]; ok {
			perBuilding[u.AppliesTo] = m * u.Multiplier
		} else {
			perBuilding[u.AppliesTo] = u.Multiplier
		}
	}

	total := 0.0
	for _, b := range s.Buildings {
		rate := b.BaseProduction * float64(b.Count)
		if m, ok := perBuilding[b.ID]; ok {
			rate *= m
		}
		total += rate
	}
	return total * global
}
