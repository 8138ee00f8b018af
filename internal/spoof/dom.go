package spoof

import (
	"math"
	"strings"

	"github.com/stupside/veil/internal/noise"
	"github.com/stupside/veil/internal/profile"
)

// WebRTC IP handling policies understood by Chrome.
const (
	WebRTCPolicyDefault              = "default"
	WebRTCPolicyDisableNonProxiedUDP = "disable_non_proxied_udp"
)

// ClientRect perturbs a layout box by at most rects.noise_factor per edge.
// Each component is keyed on its own value, so an element keeps the same box
// between calls.
func ClientRect(p *profile.Profile, r Rect) Rect {
	if p == nil || p.Rects.NoiseFactor == 0 {
		return r
	}
	shift := func(v float64, i int) float64 {
		return v + noise.Generate(p.GlobalSeed, math.Mod(v, noiseInputPeriod)+float64(i), p.Rects.NoiseFactor)
	}
	return Rect{X: shift(r.X, 0), Y: shift(r.Y, 1), Width: shift(r.Width, 2), Height: shift(r.Height, 3)}
}

// PluginDescription pads a plugin description with up to
// plugins.description_noise_max trailing spaces. Rendering is unchanged
// while hashes of the plugin list differ per seed.
func PluginDescription(p *profile.Profile, name, description string) string {
	if p == nil {
		return description
	}
	return description + padding(p.GlobalSeed, name, p.Plugins.DescriptionNoiseMax)
}

// DeviceLabel pads a media device label the same way, bounded by
// webrtc.device_label_noise_max. Empty labels, reported before permission
// is granted, stay empty.
func DeviceLabel(p *profile.Profile, label string) string {
	if p == nil || label == "" {
		return label
	}
	return label + padding(p.GlobalSeed, label, p.WebRTC.DeviceLabelNoiseMax)
}

func padding(seed int, key string, limit int) string {
	if limit <= 0 {
		return ""
	}
	combined := noise.Combine(noise.StableHash(key), seed)
	n := int(math.Abs(noise.Generate(seed, noise.Input(combined), float64(limit+1))))
	return strings.Repeat(" ", min(n, limit))
}

// WebRTCPolicy returns the IP handling policy for the profile.
func WebRTCPolicy(p *profile.Profile) string {
	if p != nil && p.WebRTC.PreventIPLeak {
		return WebRTCPolicyDisableNonProxiedUDP
	}
	return WebRTCPolicyDefault
}
