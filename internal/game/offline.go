package game

import "time"

// OfflineAward 离线收益结算结果
type OfflineAward struct {
	ElapsedSeconds  float64 `json:"elapsed_seconds"`  // 实际离线时长（已钳制为非负）
	CreditedSeconds float64 `json:"credited_seconds"` // 计入收益的时长（不超过24小时）
	Amount          float64 `json:"amount"`
}

// reconcileOffline 结算离线收益
// 先按已加载的建筑和升级重算产量，再计算收益，避免快照中的cps过期
func reconcileOffline(st *GameState, now time.Time) OfflineAward {
	st.CPS = st.productionRate()

	elapsed := now.Sub(st.LastActive).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	credited := elapsed
	if credited > MaxOfflineSeconds {
		credited = MaxOfflineSeconds
	}

	amount := OfflineProduction(st.CPS, st.PrestigeMultiplier, elapsed)
	if amount > 0 {
		st.Cookies += amount
		st.TotalCookies += amount
	}
	st.LastActive = now

	return OfflineAward{
		ElapsedSeconds:  elapsed,
		CreditedSeconds: credited,
		Amount:          amount,
	}
}
