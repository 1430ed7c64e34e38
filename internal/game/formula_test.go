package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wfunc/cookie-game/internal/game/catalog"
)

func TestBuildingCost(t *testing.T) {
	// count=0 时价格等于基础价格
	for _, b := range catalog.Buildings() {
		assert.Equal(t, b.BaseCost, BuildingCost(b.BaseCost, 0), b.ID)
	}

	assert.Equal(t, 17.0, BuildingCost(15, 1))
	assert.Equal(t, 19.0, BuildingCost(15, 2))
	assert.Equal(t, 152.0, BuildingCost(100, 3))
}

func TestBuildingCostStrictlyIncreasing(t *testing.T) {
	for _, b := range catalog.Buildings() {
		prev := BuildingCost(b.BaseCost, 0)
		for n := 1; n <= 60; n++ {
			cur := BuildingCost(b.BaseCost, n)
			assert.Greater(t, cur, prev, "%s count=%d", b.ID, n)
			prev = cur
		}
	}
}

func TestFormatDisplay(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{0.9, "0"},
		{999, "999"},
		{999.99, "999"},
		{1000, "1.0K"},
		{1500, "1.5K"},
		{2500000, "2.5M"},
		{3.2e9, "3.2B"},
		{1e12, "1.0T"},
		{4.5e15, "4500.0T"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDisplay(tt.in), "输入 %v", tt.in)
	}
}

func TestFormatDisplayStable(t *testing.T) {
	for _, v := range []float64{12.3, 12345, 9.87e8} {
		assert.Equal(t, FormatDisplay(v), FormatDisplay(v))
	}
}

func TestOfflineProduction(t *testing.T) {
	assert.Equal(t, 72000.0, OfflineProduction(10, 2, 3600))
	// 超过上限按86400秒计算
	assert.Equal(t, 10*2*86400.0, OfflineProduction(10, 2, 100000))
	// 负时间按0处理
	assert.Equal(t, 0.0, OfflineProduction(10, 2, -500))
	assert.Equal(t, 0.0, OfflineProduction(0, 1, 3600))
}
