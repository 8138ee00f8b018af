// Package profile holds the typed fingerprint profile: one record per
// spoofable subsystem, the compiled-in defaults every field falls back to,
// and the transforms that turn configured values into plausible hardware
// values.
package profile

import (
	_ "embed"
	"encoding/json"
	"math"
)

// DefaultJSON is the built-in profile document used when neither the launch
// argument nor the adjacent file yields a usable payload.
//
//go:embed default.json
var DefaultJSON []byte

// Fallback values substituted for degenerate configurations.
const (
	FallbackLatitude  = 51.5074
	FallbackLongitude = -0.1278
	FallbackZoneID    = "Europe/London"
)

// Profile is the process-wide fingerprint identity. It is built once by the
// loader and treated as immutable afterwards.
type Profile struct {
	GlobalSeed int `json:"global_seed"`

	UA       UserAgentConfig `json:"ua_config"`
	WebGL    WebGLConfig     `json:"webgl"`
	Hardware HardwareConfig  `json:"hardware"`
	Screen   ScreenConfig    `json:"screen"`
	Canvas   CanvasConfig    `json:"canvas"`
	Fonts    FontsConfig     `json:"fonts"`
	Audio    AudioConfig     `json:"audio"`
	Plugins  PluginsConfig   `json:"plugins"`
	Rects    RectsConfig     `json:"rects"`
	Network  NetworkConfig   `json:"network"`
	Battery  BatteryConfig   `json:"battery"`
	WebRTC   WebRTCConfig    `json:"webrtc"`
	Timezone TimezoneConfig  `json:"timezone"`
	Geo      GeoConfig       `json:"geo"`
}

// UserAgentConfig overrides navigator identity. Empty UAString or Platform
// means "do not override" for that getter.
type UserAgentConfig struct {
	Enabled         bool   `json:"enabled"`
	UAString        string `json:"ua_string"`
	Platform        string `json:"platform"`
	PlatformVersion string `json:"platform_version"`
	Mobile          bool   `json:"mobile"`
	Language        string `json:"language"`
}

type WebGLConfig struct {
	Vendor             string  `json:"vendor"`
	Renderer           string  `json:"renderer"`
	ClearColorNoise    float64 `json:"clear_color_noise"`
	ViewportNoiseMax   int     `json:"viewport_noise_max"`
	ReadPixelsNoiseMax int     `json:"read_pixels_noise_max"`
}

// HardwareConfig values are stored normalized: Concurrency is even and
// MemoryGB is a power of two.
type HardwareConfig struct {
	Concurrency int     `json:"concurrency"`
	MemoryGB    float64 `json:"memory_gb"`
}

type ScreenConfig struct {
	Enabled    bool `json:"enable_spoofing"`
	Width      int  `json:"width" validate:"gte=0"`
	Height     int  `json:"height" validate:"gte=0"`
	ColorDepth int  `json:"color_depth" validate:"gte=0"`
}

type CanvasConfig struct {
	MeasureTextNoiseEnabled bool `json:"measure_text_noise_enable"`
	FillTextOffsetMax       int  `json:"fill_text_offset_max" validate:"gte=0"`
}

type FontsConfig struct {
	OffsetNoiseProbPercent int      `json:"offset_noise_prob_percent" validate:"gte=0,lte=100"`
	Whitelist              []string `json:"whitelist"`
}

type AudioConfig struct {
	SpoofingEnabled      bool    `json:"spoofing_enabled"`
	SampleRateOffset     float64 `json:"sample_rate_offset"`
	SampleRateOffsetMax  int     `json:"sample_rate_offset_max"`
	ReductionNoiseFactor float64 `json:"reduction_noise_factor" validate:"gte=0"`
}

type PluginsConfig struct {
	DescriptionNoiseMax int `json:"description_noise_max" validate:"gte=0"`
}

type RectsConfig struct {
	NoiseFactor float64 `json:"noise_factor" validate:"gte=0"`
}

type NetworkConfig struct {
	SpoofingEnabled bool    `json:"spoofing_enabled"`
	Downlink        float64 `json:"downlink" validate:"gte=0"`
	RTT             float64 `json:"rtt" validate:"gte=0"`
	EffectiveType   string  `json:"effective_type" validate:"omitempty,oneof=slow-2g 2g 3g 4g"`
	SaveData        bool    `json:"save_data"`
}

type BatteryConfig struct {
	SpoofingEnabled bool    `json:"spoofing_enabled"`
	Charging        bool    `json:"charging"`
	ChargingTime    float64 `json:"charging_time"`
	DischargingTime float64 `json:"discharging_time"`
	Level           float64 `json:"level" validate:"gte=0,lte=1"`
}

// MarshalJSON writes an infinite discharging time as null. JSON has no
// infinity, and a null decodes back to the +Inf field default.
func (b BatteryConfig) MarshalJSON() ([]byte, error) {
	type plain BatteryConfig
	out := struct {
		plain
		DischargingTime *float64 `json:"discharging_time"`
	}{plain: plain(b)}
	if !math.IsInf(b.DischargingTime, 0) && !math.IsNaN(b.DischargingTime) {
		out.DischargingTime = &b.DischargingTime
	}
	return json.Marshal(out)
}

type WebRTCConfig struct {
	PreventIPLeak       bool `json:"prevent_ip_leak"`
	DeviceLabelNoiseMax int  `json:"device_label_noise_max" validate:"gte=0"`
}

type TimezoneConfig struct {
	SpoofingEnabled bool   `json:"spoofing_enabled"`
	ZoneID          string `json:"zone_id"`
}

type GeoConfig struct {
	SpoofingEnabled bool    `json:"spoofing_enabled"`
	Latitude        float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude       float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Accuracy        float64 `json:"accuracy" validate:"gte=0"`
}

// New returns a profile populated with the record defaults, the values a
// subsystem keeps when its JSON object is absent altogether.
func New() *Profile {
	return &Profile{
		UA: UserAgentConfig{
			Platform:        "Win32",
			PlatformVersion: "13.0.0",
			Language:        "en-US",
		},
		WebGL: WebGLConfig{
			Vendor:             "Google Inc. (NVIDIA)",
			Renderer:           "ANGLE (NVIDIA, NVIDIA GeForce RTX 4090 Direct3D11, vs_5_0, ps_5_0)",
			ClearColorNoise:    0.005,
			ViewportNoiseMax:   15,
			ReadPixelsNoiseMax: 3,
		},
		Hardware: HardwareConfig{Concurrency: 16, MemoryGB: 32},
		Screen:   ScreenConfig{ColorDepth: 24},
		Canvas:   CanvasConfig{MeasureTextNoiseEnabled: true, FillTextOffsetMax: 3},
		Audio:    AudioConfig{SampleRateOffsetMax: 99, ReductionNoiseFactor: 0.001},
		Plugins:  PluginsConfig{DescriptionNoiseMax: 9},
		Rects:    RectsConfig{NoiseFactor: 0.000005},
		Network:  NetworkConfig{Downlink: 10, RTT: 50, EffectiveType: "4g"},
		Battery:  BatteryConfig{Charging: true, Level: 1},
		WebRTC:   WebRTCConfig{PreventIPLeak: true, DeviceLabelNoiseMax: 9},
		Timezone: TimezoneConfig{ZoneID: "America/New_York"},
		Geo: GeoConfig{
			SpoofingEnabled: true,
			Latitude:        FallbackLatitude,
			Longitude:       FallbackLongitude,
			Accuracy:        10,
		},
	}
}

// EvenConcurrency rounds a positive odd core count up to the next even one.
// Real CPUs expose even logical core counts.
func EvenConcurrency(n int) int {
	if n > 0 && n%2 != 0 {
		return n + 1
	}
	return n
}

// FloorPowerOfTwo rounds a positive memory size down to the nearest power of
// two, the only buckets navigator.deviceMemory ever reports.
func FloorPowerOfTwo(gb float64) float64 {
	if gb > 0 {
		return math.Pow(2, math.Floor(math.Log2(gb)))
	}
	return gb
}

// ApplyFallbacks replaces degenerate values that would otherwise be exposed
// verbatim: a (0,0) position and an empty zone id.
func (p *Profile) ApplyFallbacks() {
	if p.Geo.SpoofingEnabled && p.Geo.Latitude == 0 && p.Geo.Longitude == 0 {
		p.Geo.Latitude = FallbackLatitude
		p.Geo.Longitude = FallbackLongitude
	}
	if p.Timezone.SpoofingEnabled && p.Timezone.ZoneID == "" {
		p.Timezone.ZoneID = FallbackZoneID
	}
}

// IsFontNoiseEnabled reports whether canvas text metrics may be perturbed.
func (p *Profile) IsFontNoiseEnabled() bool {
	return p.Canvas.MeasureTextNoiseEnabled && p.Fonts.OffsetNoiseProbPercent > 0
}

// Clone returns a deep copy so callers can derive variants without touching
// a published profile.
func (p *Profile) Clone() *Profile {
	c := *p
	c.Fonts.Whitelist = append([]string(nil), p.Fonts.Whitelist...)
	return &c
}
