package game

import (
	"math"
	"strconv"
)

const (
	// CostGrowth 建筑价格增长系数
	CostGrowth = 1.15
	// MaxOfflineSeconds 离线收益上限（24小时）
	MaxOfflineSeconds = 86400.0
)

// BuildingCost 计算建筑当前价格：floor(baseCost * 1.15^count)
func BuildingCost(baseCost float64, count int) float64 {
	if count < 0 {
		count = 0
	}
	return math.Floor(baseCost * math.Pow(CostGrowth, float64(count)))
}

// 显示单位，从大到小
var displayUnits = []struct {
	scale  float64
	suffix string
}{
	{1e12, "T"},
	{1e9, "B"},
	{1e6, "M"},
	{1e3, "K"},
}

// FormatDisplay 格式化数字用于显示
// 小于1000时截断为整数，否则保留一位小数并加单位后缀
func FormatDisplay(n float64) string {
	for _, u := range displayUnits {
		if n >= u.scale {
			return strconv.FormatFloat(n/u.scale, 'f', 1, 64) + u.suffix
		}
	}
	return strconv.FormatFloat(math.Floor(n), 'f', 0, 64)
}

// OfflineProduction 计算离线收益
// elapsedSeconds 为负时按0处理（时钟漂移），超过24小时按24小时计算
func OfflineProduction(cps, prestigeMultiplier, elapsedSeconds float64) float64 {
	if elapsedSeconds < 0 || math.IsNaN(elapsedSeconds) {
		elapsedSeconds = 0
	}
	if elapsedSeconds > MaxOfflineSeconds {
		elapsedSeconds = MaxOfflineSeconds
	}
	award := cps * prestigeMultiplier * elapsedSeconds
	if award < 0 || math.IsNaN(award) {
		return 0
	}
	return award
}
