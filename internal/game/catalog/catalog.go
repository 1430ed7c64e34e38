package catalog

// 目标常量
const (
	// TargetAll 全局倍率升级的作用目标
	TargetAll = "all"
)

// 声望相关常量
const (
	PrestigeThreshold      = 1e12 // 声望所需的累计饼干数（1万亿）
	PrestigeMultiplierBase = 0.5  // 每级声望增加50%产量
)

// BuildingDef 建筑定义（静态数据）
type BuildingDef struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	Icon           string  `json:"icon"`
	BaseCost       float64 `json:"base_cost"`
	BaseProduction float64 `json:"base_production"` // 每个单位每秒产量
}

// UpgradeDef 升级定义（静态数据）
type UpgradeDef struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Icon            string  `json:"icon"`
	Cost            float64 `json:"cost"`
	Multiplier      float64 `json:"multiplier"`
	AppliesTo       string  `json:"applies_to"`       // 建筑ID 或 "all"
	UnlockCondition float64 `json:"unlock_condition"` // 解锁所需的累计饼干数，0表示无条件
}

// IsGlobal 是否为全局倍率升级
func (u UpgradeDef) IsGlobal() bool {
	return u.AppliesTo == TargetAll
}

// AchievementDef 成就定义（静态数据）
type AchievementDef struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Condition   Condition `json:"condition"`
}

var buildings = []BuildingDef{
	{ID: "cursor", Name: "Cursor", BaseCost: 15, BaseProduction: 0.1, Description: "Autoclicks once every 10 seconds", Icon: "👆"},
	{ID: "grandma", Name: "Grandma", BaseCost: 100, BaseProduction: 1, Description: "A nice grandma to bake more cookies", Icon: "👵"},
	{ID: "farm", Name: "Farm", BaseCost: 1100, BaseProduction: 8, Description: "Grows cookie plants from cookie seeds", Icon: "🌾"},
	{ID: "mine", Name: "Mine", BaseCost: 12000, BaseProduction: 47, Description: "Mines out cookie dough and chocolate chips", Icon: "⛏️"},
	{ID: "factory", Name: "Factory", BaseCost: 130000, BaseProduction: 260, Description: "Produces large quantities of cookies", Icon: "🏭"},
	{ID: "bank", Name: "Bank", BaseCost: 1400000, BaseProduction: 1400, Description: "Generates cookies from interest", Icon: "🏦"},
	{ID: "temple", Name: "Temple", BaseCost: 20000000, BaseProduction: 7800, Description: "Full of precious chocolate", Icon: "⛩️"},
	{ID: "wizard", Name: "Wizard Tower", BaseCost: 330000000, BaseProduction: 44000, Description: "Summons cookies with magic spells", Icon: "🧙"},
	{ID: "shipment", Name: "Shipment", BaseCost: 5100000000, BaseProduction: 260000, Description: "Brings in fresh cookies from the cookie planet", Icon: "🚀"},
	{ID: "alchemy", Name: "Alchemy Lab", BaseCost: 75000000000, BaseProduction: 1600000, Description: "Turns gold into cookies", Icon: "⚗️"},
}

var upgrades = []UpgradeDef{
	{ID: "reinforced_cursor", Name: "Reinforced Index Finger", Cost: 100, Multiplier: 2, AppliesTo: "cursor", UnlockCondition: 1, Description: "The mouse and cursors are twice as efficient", Icon: "💪"},
	{ID: "grandma_helper", Name: "Grandma's Helpers", Cost: 1000, Multiplier: 2, AppliesTo: "grandma", UnlockCondition: 1, Description: "Grandmas are twice as efficient", Icon: "👶"},
	{ID: "fertilizer", Name: "Cheap Fertilizer", Cost: 11000, Multiplier: 2, AppliesTo: "farm", UnlockCondition: 10, Description: "Farms are twice as efficient", Icon: "🌱"},
	{ID: "sugar_gas", Name: "Sugar Gas", Cost: 120000, Multiplier: 2, AppliesTo: "mine", UnlockCondition: 50, Description: "Mines are twice as efficient", Icon: "⛽"},
	{ID: "megadrill", Name: "Megadrill", Cost: 1200000, Multiplier: 2, AppliesTo: "factory", UnlockCondition: 100, Description: "Factories are twice as efficient", Icon: "🔩"},
	{ID: "golden_switch", Name: "Golden Switch", Cost: 999999999, Multiplier: 2, AppliesTo: TargetAll, UnlockCondition: 1000000, Description: "All production doubled", Icon: "✨"},
}

var achievements = []AchievementDef{
	{ID: "first_cookie", Name: "Wake and Bake", Description: "Bake your first cookie", Icon: "🍪", Condition: TotalCookiesAtLeast(1)},
	{ID: "hundred_cookies", Name: "Making Dough", Description: "Bake 100 cookies", Icon: "💯", Condition: TotalCookiesAtLeast(100)},
	{ID: "thousand_cookies", Name: "So Much Dough", Description: "Bake 1,000 cookies", Icon: "🎉", Condition: TotalCookiesAtLeast(1000)},
	{ID: "first_building", Name: "Click Delegator", Description: "Purchase your first building", Icon: "🏠", Condition: AnyBuildingOwned()},
	{ID: "ten_buildings", Name: "Entrepreneur", Description: "Own 10 buildings", Icon: "💼", Condition: BuildingCountSumAtLeast(10)},
	{ID: "first_prestige", Name: "Rebirth", Description: "Prestige for the first time", Icon: "♻️", Condition: PrestigeLevelAtLeast(1)},
}

// Buildings 返回建筑定义副本（按目录顺序）
func Buildings() []BuildingDef {
	out := make([]BuildingDef, len(buildings))
	copy(out, buildings)
	return out
}

// Upgrades 返回升级定义副本
func Upgrades() []UpgradeDef {
	out := make([]UpgradeDef, len(upgrades))
	copy(out, upgrades)
	return out
}

// Achievements 返回成就定义副本
func Achievements() []AchievementDef {
	out := make([]AchievementDef, len(achievements))
	copy(out, achievements)
	return out
}

// Building 根据ID查找建筑定义
func Building(id string) (BuildingDef, bool) {
	for _, b := range buildings {
		if b.ID == id {
			return b, true
		}
	}
	return BuildingDef{}, false
}

// Upgrade 根据ID查找升级定义
func Upgrade(id string) (UpgradeDef, bool) {
	for _, u := range upgrades {
		if u.ID == id {
			return u, true
		}
	}
	return UpgradeDef{}, false
}

// Achievement 根据ID查找成就定义
func Achievement(id string) (AchievementDef, bool) {
	for _, a := range achievements {
		if a.ID == id {
			return a, true
		}
	}
	return AchievementDef{}, false
}

// PrestigeMultiplierFor 计算指定声望等级的倍率
func PrestigeMultiplierFor(level int) float64 {
	if level < 0 {
		level = 0
	}
	return 1 + float64(level)*PrestigeMultiplierBase
}
