package catalog

// ConditionKind 成就条件类型
type ConditionKind string

const (
	CondTotalCookiesAtLeast     ConditionKind = "total_cookies_at_least"
	CondAnyBuildingOwned        ConditionKind = "any_building_owned"
	CondBuildingCountSumAtLeast ConditionKind = "building_count_sum_at_least"
	CondPrestigeLevelAtLeast    ConditionKind = "prestige_level_at_least"
)

// Condition 成就解锁条件（数据描述，由 Evaluate 解释执行）
type Condition struct {
	Kind      ConditionKind `json:"kind"`
	Threshold float64       `json:"threshold,omitempty"`
}

// Facts 条件判定所需的状态视图
type Facts struct {
	TotalCookies   float64
	BuildingCounts []int
	PrestigeLevel  int
}

// TotalCookiesAtLeast 累计饼干数达到阈值
func TotalCookiesAtLeast(n float64) Condition {
	return Condition{Kind: CondTotalCookiesAtLeast, Threshold: n}
}

// AnyBuildingOwned 至少拥有一座建筑
func AnyBuildingOwned() Condition {
	return Condition{Kind: CondAnyBuildingOwned}
}

// BuildingCountSumAtLeast 建筑总数达到阈值
func BuildingCountSumAtLeast(n int) Condition {
	return Condition{Kind: CondBuildingCountSumAtLeast, Threshold: float64(n)}
}

// PrestigeLevelAtLeast 声望等级达到阈值
func PrestigeLevelAtLeast(n int) Condition {
	return Condition{Kind: CondPrestigeLevelAtLeast, Threshold: float64(n)}
}

// Evaluate 判定条件是否满足，未知类型视为不满足
func (c Condition) Evaluate(f Facts) bool {
	switch c.Kind {
	case CondTotalCookiesAtLeast:
		return f.TotalCookies >= c.Threshold
	case CondAnyBuildingOwned:
		for _, n := range f.BuildingCounts {
			if n > 0 {
				return true
			}
		}
		return false
	case CondBuildingCountSumAtLeast:
		sum := 0
		for _, n := range f.BuildingCounts {
			sum += n
		}
		return float64(sum) >= c.Threshold
	case CondPrestigeLevelAtLeast:
		return float64(f.PrestigeLevel) >= c.Threshold
	default:
		return false
	}
}
