package profile

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvenConcurrency(t *testing.T) {
	cases := map[int]int{
		7:  8,
		16: 16,
		1:  2,
		0:  0,
		-3: -3,
	}
	for in, want := range cases {
		assert.Equal(t, want, EvenConcurrency(in), "concurrency %d", in)
	}
}

func TestFloorPowerOfTwo(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{7, 4},
		{12, 8},
		{32, 32},
		{1, 1},
		{0.75, 0.5},
		{0, 0},
		{-2, -2},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FloorPowerOfTwo(c.in), "memory %v", c.in)
	}
}

func TestApplyFallbacks(t *testing.T) {
	p := New()
	p.Geo = GeoConfig{SpoofingEnabled: true}
	p.Timezone = TimezoneConfig{SpoofingEnabled: true}
	p.ApplyFallbacks()

	assert.Equal(t, FallbackLatitude, p.Geo.Latitude)
	assert.Equal(t, FallbackLongitude, p.Geo.Longitude)
	assert.Equal(t, FallbackZoneID, p.Timezone.ZoneID)
}

func TestApplyFallbacksLeavesDisabledRecords(t *testing.T) {
	p := New()
	p.Geo = GeoConfig{}
	p.Timezone = TimezoneConfig{}
	p.ApplyFallbacks()

	assert.Zero(t, p.Geo.Latitude)
	assert.Zero(t, p.Geo.Longitude)
	assert.Empty(t, p.Timezone.ZoneID)
}

func TestIsFontNoiseEnabled(t *testing.T) {
	p := New()
	assert.False(t, p.IsFontNoiseEnabled(), "record default is 0 percent")

	p.Fonts.OffsetNoiseProbPercent = 10
	assert.True(t, p.IsFontNoiseEnabled())

	p.Canvas.MeasureTextNoiseEnabled = false
	assert.False(t, p.IsFontNoiseEnabled())
}

func TestCloneIsIndependent(t *testing.T) {
	p := New()
	p.Fonts.Whitelist = []string{"Arial"}

	c := p.Clone()
	c.Fonts.Whitelist[0] = "Verdana"
	c.Screen.Width = 1

	assert.Equal(t, "Arial", p.Fonts.Whitelist[0])
	assert.Zero(t, p.Screen.Width)
}

func TestDefaultJSONIsObject(t *testing.T) {
	var doc map[string]any
	require.NoError(t, json.Unmarshal(DefaultJSON, &doc))
	assert.EqualValues(t, 11223344, doc["global_seed"])
	assert.Contains(t, doc, "ua_config")
	assert.Contains(t, doc, "geo")
}

func TestBatteryMarshalInfinity(t *testing.T) {
	b := BatteryConfig{Charging: true, DischargingTime: math.Inf(1), Level: 0.5}
	out, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, `{"spoofing_enabled":false,"charging":true,"charging_time":0,"discharging_time":null,"level":0.5}`, string(out))

	b.DischargingTime = 3600
	out, err = json.Marshal(b)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"discharging_time":3600`)
}

func TestValidate(t *testing.T) {
	assert.Empty(t, New().Validate())

	p := New()
	p.Fonts.OffsetNoiseProbPercent = 150
	p.Geo.Latitude = 95
	p.Network.EffectiveType = "5g"

	issues := p.Validate()
	require.Len(t, issues, 3)

	fields := make([]string, 0, len(issues))
	for _, i := range issues {
		fields = append(fields, i.Field)
	}
	assert.ElementsMatch(t, []string{
		"Profile.Fonts.OffsetNoiseProbPercent",
		"Profile.Geo.Latitude",
		"Profile.Network.EffectiveType",
	}, fields)
}
