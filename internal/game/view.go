package game

import (
	"time"

	"github.com/wfunc/cookie-game/internal/game/catalog"
)

// BuildingView 建筑展示信息
type BuildingView struct {
	Building
	Cost        float64 `json:"cost"`
	CostDisplay string  `json:"cost_display"`
	Affordable  bool    `json:"affordable"`
}

// UpgradeView 升级展示信息
type UpgradeView struct {
	Upgrade
	Available  bool `json:"available"` // 未购买且满足解锁条件
	Affordable bool `json:"affordable"`
}

// StateView 展示层使用的派生视图
type StateView struct {
	Cookies                float64        `json:"cookies"`
	CookiesDisplay         string         `json:"cookies_display"`
	TotalCookies           float64        `json:"total_cookies"`
	TotalCookiesDisplay    string         `json:"total_cookies_display"`
	CPS                    float64        `json:"cps"`
	EffectiveCPS           float64        `json:"effective_cps"`
	EffectiveCPSDisplay    string         `json:"effective_cps_display"`
	ClickPower             float64        `json:"click_power"`
	ClickValue             float64        `json:"click_value"`
	Buildings              []BuildingView `json:"buildings"`
	Upgrades               []UpgradeView  `json:"upgrades"`
	AvailableUpgrades      []string       `json:"available_upgrades"`
	Achievements           []Achievement  `json:"achievements"`
	UnlockedAchievements   int            `json:"unlocked_achievements"`
	PrestigeLevel          int            `json:"prestige_level"`
	PrestigeMultiplier     float64        `json:"prestige_multiplier"`
	CanPrestige            bool           `json:"can_prestige"`
	NextPrestigeMultiplier float64        `json:"next_prestige_multiplier"`
	LastActive             time.Time      `json:"last_active"`
}

func newStateView(st *GameState) *StateView {
	v := &StateView{
		Cookies:                st.Cookies,
		CookiesDisplay:         FormatDisplay(st.Cookies),
		TotalCookies:           st.TotalCookies,
		TotalCookiesDisplay:    FormatDisplay(st.TotalCookies),
		CPS:                    st.CPS,
		EffectiveCPS:           st.EffectiveCPS(),
		EffectiveCPSDisplay:    FormatDisplay(st.EffectiveCPS()),
		ClickPower:             st.ClickPower,
		ClickValue:             st.ClickPower * st.PrestigeMultiplier,
		Achievements:           append([]Achievement(nil), st.Achievements...),
		PrestigeLevel:          st.PrestigeLevel,
		PrestigeMultiplier:     st.PrestigeMultiplier,
		CanPrestige:            st.TotalCookies >= catalog.PrestigeThreshold,
		NextPrestigeMultiplier: catalog.PrestigeMultiplierFor(st.PrestigeLevel + 1),
		LastActive:             st.LastActive,
		AvailableUpgrades:      []string{},
	}

	for _, b := range st.Buildings {
		cost := BuildingCost(b.BaseCost, b.Count)
		v.Buildings = append(v.Buildings, BuildingView{
			Building:    b,
			Cost:        cost,
			CostDisplay: FormatDisplay(cost),
			Affordable:  st.Cookies >= cost,
		})
	}

	for _, u := range st.Upgrades {
		available := !u.Purchased && st.TotalCookies >= u.UnlockCondition
		v.Upgrades = append(v.Upgrades, UpgradeView{
			Upgrade:    u,
			Available:  available,
			Affordable: !u.Purchased && st.Cookies >= u.Cost,
		})
		if available {
			v.AvailableUpgrades = append(v.AvailableUpgrades, u.ID)
		}
	}

	for _, a := range st.Achievements {
		if a.Unlocked {
			v.UnlockedAchievements++
		}
	}
	return v
}
