package game

import (
	"encoding/json"
	"math"
	"time"

	"github.com/wfunc/cookie-game/internal/game/catalog"
)

// BuildingRecord 建筑存档记录
type BuildingRecord struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

// UpgradeRecord 升级存档记录
type UpgradeRecord struct {
	ID        string `json:"id"`
	Purchased bool   `json:"purchased"`
}

// AchievementRecord 成就存档记录，只保存ID和解锁状态
type AchievementRecord struct {
	ID       string `json:"id"`
	Unlocked bool   `json:"unlocked"`
}

// Snapshot 游戏状态快照（持久化格式）
// LastActive 为毫秒时间戳
type Snapshot struct {
	Cookies            float64             `json:"cookies"`
	TotalCookies       float64             `json:"totalCookies"`
	CPS                float64             `json:"cps"`
	ClickPower         float64             `json:"clickPower"`
	Buildings          []BuildingRecord    `json:"buildings"`
	Upgrades           []UpgradeRecord     `json:"upgrades"`
	Achievements       []AchievementRecord `json:"achievements"`
	PrestigeLevel      int                 `json:"prestigeLevel"`
	PrestigeMultiplier float64             `json:"prestigeMultiplier"`
	LastActive         int64               `json:"lastActive"`
}

// rawSnapshot 宽松解码结构，兼容旧版字段名和缺失字段
type rawSnapshot struct {
	Cookies            *float64            `json:"cookies"`
	TotalCookies       *float64            `json:"totalCookies"`
	LegacyTotal        *float64            `json:"total_cookies"`
	CPS                *float64            `json:"cps"`
	ClickPower         *float64            `json:"clickPower"`
	Buildings          []BuildingRecord    `json:"buildings"`
	Upgrades           []UpgradeRecord     `json:"upgrades"`
	Achievements       []AchievementRecord `json:"achievements"`
	PrestigeLevel      *float64            `json:"prestigeLevel"`
	LegacyLevel        *float64            `json:"prestige_level"`
	PrestigeMultiplier *float64            `json:"prestigeMultiplier"`
	LegacyMultiplier   *float64            `json:"multiplier"`
	LastActive         *float64            `json:"lastActive"`
}

// UnmarshalJSON 解码快照，缺失字段取全新状态的默认值
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw rawSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = Snapshot{
		Cookies:            pick(0, raw.Cookies),
		TotalCookies:       pick(0, raw.TotalCookies, raw.LegacyTotal),
		CPS:                pick(0, raw.CPS),
		ClickPower:         pick(1, raw.ClickPower),
		Buildings:          raw.Buildings,
		Upgrades:           raw.Upgrades,
		Achievements:       raw.Achievements,
		PrestigeLevel:      int(pick(0, raw.PrestigeLevel, raw.LegacyLevel)),
		PrestigeMultiplier: pick(1, raw.PrestigeMultiplier, raw.LegacyMultiplier),
		LastActive:         int64(pick(0, raw.LastActive)),
	}
	return nil
}

// pick 返回第一个非空值，都为空时返回默认值
func pick(def float64, vals ...*float64) float64 {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return def
}

// DecodeSnapshot 从JSON解码快照
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Encode 编码为JSON
func (s *Snapshot) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// LastActiveTime 返回 LastActive 对应的时间
func (s *Snapshot) LastActiveTime() time.Time {
	if s.LastActive <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(s.LastActive)
}

func newSnapshot(st *GameState) *Snapshot {
	snap := &Snapshot{
		Cookies:            st.Cookies,
		TotalCookies:       st.TotalCookies,
		CPS:                st.CPS,
		ClickPower:         st.ClickPower,
		Buildings:          make([]BuildingRecord, 0, len(st.Buildings)),
		Upgrades:           make([]UpgradeRecord, 0, len(st.Upgrades)),
		Achievements:       make([]AchievementRecord, 0, len(st.Achievements)),
		PrestigeLevel:      st.PrestigeLevel,
		PrestigeMultiplier: st.PrestigeMultiplier,
		LastActive:         st.LastActive.UnixMilli(),
	}
	for _, b := range st.Buildings {
		snap.Buildings = append(snap.Buildings, BuildingRecord{ID: b.ID, Count: b.Count})
	}
	for _, u := range st.Upgrades {
		snap.Upgrades = append(snap.Upgrades, UpgradeRecord{ID: u.ID, Purchased: u.Purchased})
	}
	for _, a := range st.Achievements {
		snap.Achievements = append(snap.Achievements, AchievementRecord{ID: a.ID, Unlocked: a.Unlocked})
	}
	return snap
}

// MergeSnapshot 以目录为基准合并快照，生成可安装的状态
// 未知ID丢弃；目录中有而快照中没有的条目取默认值；非法数值回退为默认值
func MergeSnapshot(snap *Snapshot, now time.Time) *GameState {
	st := NewGameState(now)
	if snap == nil {
		return st
	}

	st.Cookies = nonNegative(snap.Cookies, 0)
	st.TotalCookies = nonNegative(snap.TotalCookies, 0)
	st.CPS = nonNegative(snap.CPS, 0)
	st.ClickPower = positive(snap.ClickPower, 1)

	counts := make(map[string]int, len(snap.Buildings))
	for _, r := range snap.Buildings {
		if _, dup := counts[r.ID]; !dup && r.Count > 0 {
			counts[r.ID] = r.Count
		}
	}
	for i := range st.Buildings {
		st.Buildings[i].Count = counts[st.Buildings[i].ID]
	}

	purchased := make(map[string]bool, len(snap.Upgrades))
	for _, r := range snap.Upgrades {
		purchased[r.ID] = purchased[r.ID] || r.Purchased
	}
	for i := range st.Upgrades {
		st.Upgrades[i].Purchased = purchased[st.Upgrades[i].ID]
	}

	unlocked := make(map[string]bool, len(snap.Achievements))
	for _, r := range snap.Achievements {
		unlocked[r.ID] = unlocked[r.ID] || r.Unlocked
	}
	for i := range st.Achievements {
		st.Achievements[i].Unlocked = unlocked[st.Achievements[i].ID]
	}

	if snap.PrestigeLevel > 0 {
		st.PrestigeLevel = snap.PrestigeLevel
	}
	st.PrestigeMultiplier = catalog.PrestigeMultiplierFor(st.PrestigeLevel)

	if snap.LastActive > 0 {
		st.LastActive = time.UnixMilli(snap.LastActive)
	}
	return st
}

func nonNegative(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return def
	}
	return v
}

func positive(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return def
	}
	return v
}
