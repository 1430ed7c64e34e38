package game

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	e, clk := newTestEngine(t)
	setCookies(e, 5000)
	require.True(t, e.BuyBuilding("cursor"))
	require.True(t, e.BuyBuilding("grandma"))
	require.True(t, e.BuyUpgrade("grandma_helper"))
	e.Click()
	clk.Advance(time.Second)

	snap := e.Snapshot()
	data, err := snap.Encode()
	require.NoError(t, err)

	decoded, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, snap, decoded)

	// 合并后字段与原状态一致，成就条件从目录恢复
	st := MergeSnapshot(decoded, clk.Now())
	orig := e.State()
	assert.Equal(t, orig.Cookies, st.Cookies)
	assert.Equal(t, orig.TotalCookies, st.TotalCookies)
	assert.Equal(t, orig.CPS, st.CPS)
	assert.Equal(t, orig.ClickPower, st.ClickPower)
	assert.Equal(t, orig.Buildings, st.Buildings)
	assert.Equal(t, orig.Upgrades, st.Upgrades)
	assert.Equal(t, orig.Achievements, st.Achievements)
	assert.Equal(t, orig.PrestigeLevel, st.PrestigeLevel)
	assert.Equal(t, orig.PrestigeMultiplier, st.PrestigeMultiplier)
	assert.Equal(t, orig.LastActive.UnixMilli(), st.LastActive.UnixMilli())
	for _, a := range st.Achievements {
		assert.NotEmpty(t, a.Condition.Kind, a.ID)
	}
}

func TestSnapshot_SnapshotRefreshesLastActive(t *testing.T) {
	e, clk := newTestEngine(t)
	clk.Advance(time.Hour)
	snap := e.Snapshot()
	assert.Equal(t, testStart.Add(time.Hour).UnixMilli(), snap.LastActive)
	assert.Equal(t, testStart.Add(time.Hour), e.State().LastActive)
}

func TestDecodeSnapshot_MissingFields(t *testing.T) {
	snap, err := DecodeSnapshot([]byte(`{"cookies": 12}`))
	require.NoError(t, err)

	assert.Equal(t, 12.0, snap.Cookies)
	assert.Equal(t, 0.0, snap.TotalCookies)
	assert.Equal(t, 1.0, snap.ClickPower)
	assert.Equal(t, 1.0, snap.PrestigeMultiplier)
	assert.Equal(t, int64(0), snap.LastActive)
	assert.Nil(t, snap.Buildings)
}

func TestDecodeSnapshot_LegacyKeys(t *testing.T) {
	snap, err := DecodeSnapshot([]byte(`{"total_cookies": 4200, "prestige_level": 2, "multiplier": 2}`))
	require.NoError(t, err)

	assert.Equal(t, 4200.0, snap.TotalCookies)
	assert.Equal(t, 2, snap.PrestigeLevel)
	assert.Equal(t, 2.0, snap.PrestigeMultiplier)

	// 新字段优先
	snap, err = DecodeSnapshot([]byte(`{"totalCookies": 10, "total_cookies": 99}`))
	require.NoError(t, err)
	assert.Equal(t, 10.0, snap.TotalCookies)
}

func TestDecodeSnapshot_NullFields(t *testing.T) {
	snap, err := DecodeSnapshot([]byte(`{"cookies": null, "clickPower": null, "achievements": null}`))
	require.NoError(t, err)
	assert.Equal(t, 0.0, snap.Cookies)
	assert.Equal(t, 1.0, snap.ClickPower)
}

func TestDecodeSnapshot_Invalid(t *testing.T) {
	_, err := DecodeSnapshot([]byte(`not json`))
	assert.Error(t, err)
}

func TestDecodeSnapshot_FullLegacyObjects(t *testing.T) {
	// 旧版存档中建筑和成就带有完整的展示字段
	data := []byte(`{
		"cookies": 50,
		"buildings": [{"id":"cursor","name":"Cursor","baseCost":15,"baseProduction":0.1,"count":3,"icon":"👆"}],
		"achievements": [{"id":"first_cookie","name":"Wake and Bake","unlocked":true}]
	}`)
	snap, err := DecodeSnapshot(data)
	require.NoError(t, err)
	require.Len(t, snap.Buildings, 1)
	assert.Equal(t, 3, snap.Buildings[0].Count)
	assert.True(t, snap.Achievements[0].Unlocked)
}

func TestMergeSnapshot_SchemaDrift(t *testing.T) {
	now := testStart
	snap := &Snapshot{
		Cookies:    -5,
		ClickPower: 0,
		Buildings: []BuildingRecord{
			{ID: "cursor", Count: 4},
			{ID: "time_machine", Count: 7},
			{ID: "grandma", Count: -3},
		},
		Upgrades: []UpgradeRecord{
			{ID: "reinforced_cursor", Purchased: true},
			{ID: "removed_upgrade", Purchased: true},
		},
		Achievements: []AchievementRecord{
			{ID: "first_cookie", Unlocked: true},
			{ID: "legacy_achievement", Unlocked: true},
		},
		PrestigeLevel:      -1,
		PrestigeMultiplier: 9,
	}

	st := MergeSnapshot(snap, now)

	assert.Equal(t, 0.0, st.Cookies)
	assert.Equal(t, 1.0, st.ClickPower)
	assert.Len(t, st.Buildings, 10)
	assert.Equal(t, 4, st.findBuilding("cursor").Count)
	assert.Equal(t, 0, st.findBuilding("grandma").Count)
	assert.Nil(t, st.findBuilding("time_machine"))
	assert.Len(t, st.Upgrades, 6)
	assert.True(t, st.findUpgrade("reinforced_cursor").Purchased)

	// 目录中新增的成就默认未解锁，快照中的未知成就被丢弃
	assert.Len(t, st.Achievements, 6)
	assert.True(t, findAchievement(st, "first_cookie").Unlocked)
	assert.False(t, findAchievement(st, "first_prestige").Unlocked)
	assert.Nil(t, findAchievement(st, "legacy_achievement"))

	// 声望倍率由等级推导
	assert.Equal(t, 0, st.PrestigeLevel)
	assert.Equal(t, 1.0, st.PrestigeMultiplier)
	assert.Equal(t, now, st.LastActive)
}

func TestMergeSnapshot_PrestigeMultiplierDerived(t *testing.T) {
	st := MergeSnapshot(&Snapshot{PrestigeLevel: 3, PrestigeMultiplier: 1}, testStart)
	assert.Equal(t, 3, st.PrestigeLevel)
	assert.Equal(t, 2.5, st.PrestigeMultiplier)
}

func TestMergeSnapshot_Nil(t *testing.T) {
	st := MergeSnapshot(nil, testStart)
	assert.Equal(t, NewGameState(testStart), st)
}

func TestSnapshot_JSONFieldNames(t *testing.T) {
	e, _ := newTestEngine(t)
	data, err := json.Marshal(e.Snapshot())
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	for _, key := range []string{"cookies", "totalCookies", "cps", "clickPower", "buildings", "upgrades", "achievements", "prestigeLevel", "prestigeMultiplier", "lastActive"} {
		assert.Contains(t, m, key)
	}
}
