package loader

import (
	"math"

	"github.com/stupside/veil/internal/profile"
)

// decode applies a parsed JSON document to p. Objects that are absent keep
// their record defaults; within a present object every key falls back to its
// own field default.
func decode(root dict, p *profile.Profile) {
	p.GlobalSeed = root.IntOr("global_seed", 0)

	if ua, ok := root.Dict("ua_config"); ok {
		p.UA.Enabled = ua.BoolOr("enabled", false)
		p.UA.UAString = ua.StringOr("ua_string", p.UA.UAString)
		p.UA.Platform = ua.StringOr("platform", p.UA.Platform)
		p.UA.PlatformVersion = ua.StringOr("platform_version", p.UA.PlatformVersion)
		p.UA.Mobile = ua.BoolOr("mobile", false)
		p.UA.Language = ua.StringOr("language", p.UA.Language)
	}

	if gl, ok := root.Dict("webgl"); ok {
		p.WebGL.Vendor = gl.StringOr("vendor", p.WebGL.Vendor)
		p.WebGL.Renderer = gl.StringOr("renderer", p.WebGL.Renderer)
		p.WebGL.ClearColorNoise = gl.FloatOr("clear_color_noise", 0.005)
		p.WebGL.ViewportNoiseMax = gl.IntOr("viewport_noise_max", 15)
		p.WebGL.ReadPixelsNoiseMax = gl.IntOr("read_pixels_noise_max", 3)
	}

	if hw, ok := root.Dict("hardware"); ok {
		p.Hardware.Concurrency = profile.EvenConcurrency(hw.IntOr("concurrency", 16))
		p.Hardware.MemoryGB = profile.FloorPowerOfTwo(hw.FloatOr("memory_gb", 32))
	}

	if scr, ok := root.Dict("screen"); ok {
		p.Screen.Enabled = scr.BoolOr("enable_spoofing", false)
		p.Screen.Width = scr.IntOr("width", 1920)
		p.Screen.Height = scr.IntOr("height", 1080)
		p.Screen.ColorDepth = scr.IntOr("color_depth", 24)
	}

	if cvs, ok := root.Dict("canvas"); ok {
		p.Canvas.MeasureTextNoiseEnabled = cvs.BoolOr("measure_text_noise_enable", true)
		p.Canvas.FillTextOffsetMax = cvs.IntOr("fill_text_offset_max", 3)
	}

	if aud, ok := root.Dict("audio"); ok {
		p.Audio.SampleRateOffsetMax = aud.IntOr("sample_rate_offset_max", 100)
		p.Audio.SpoofingEnabled = aud.BoolOr("spoofing_enabled", false)
		p.Audio.SampleRateOffset = aud.FloatOr("sample_rate_offset", 0)
		p.Audio.ReductionNoiseFactor = aud.FloatOr("reduction_noise_factor", 0.001)
	}

	if plg, ok := root.Dict("plugins"); ok {
		p.Plugins.DescriptionNoiseMax = plg.IntOr("description_noise_max", 5)
	}

	if rects, ok := root.Dict("rects"); ok {
		p.Rects.NoiseFactor = rects.FloatOr("noise_factor", 0.000005)
	}

	if fonts, ok := root.Dict("fonts"); ok {
		p.Fonts.OffsetNoiseProbPercent = fonts.IntOr("offset_noise_prob_percent", 10)
		if list, ok := fonts.List("whitelist"); ok {
			p.Fonts.Whitelist = make([]string, 0, len(list))
			for _, v := range list {
				if name, ok := v.(string); ok {
					p.Fonts.Whitelist = append(p.Fonts.Whitelist, name)
				}
			}
		}
	}

	if net, ok := root.Dict("network"); ok {
		p.Network.SpoofingEnabled = net.BoolOr("spoofing_enabled", true)
		p.Network.Downlink = net.FloatOr("downlink", 10)
		p.Network.RTT = net.FloatOr("rtt", 50)
		p.Network.EffectiveType = net.StringOr("effective_type", p.Network.EffectiveType)
		p.Network.SaveData = net.BoolOr("save_data", false)
	}

	if bat, ok := root.Dict("battery"); ok {
		p.Battery.SpoofingEnabled = bat.BoolOr("spoofing_enabled", true)
		p.Battery.Charging = bat.BoolOr("charging", true)
		p.Battery.ChargingTime = bat.FloatOr("charging_time", 0)
		p.Battery.DischargingTime = bat.FloatOr("discharging_time", math.Inf(1))
		p.Battery.Level = bat.FloatOr("level", 1)
	}

	if rtc, ok := root.Dict("webrtc"); ok {
		p.WebRTC.PreventIPLeak = rtc.BoolOr("prevent_ip_leak", true)
		p.WebRTC.DeviceLabelNoiseMax = rtc.IntOr("device_label_noise_max", 5)
	}

	if geo, ok := root.Dict("geo"); ok {
		p.Geo.SpoofingEnabled = geo.BoolOr("spoofing_enabled", true)
		p.Geo.Latitude = geo.FloatOr("latitude", p.Geo.Latitude)
		p.Geo.Longitude = geo.FloatOr("longitude", p.Geo.Longitude)
		p.Geo.Accuracy = geo.FloatOr("accuracy", p.Geo.Accuracy)
	}

	if tz, ok := root.Dict("timezone"); ok {
		p.Timezone.SpoofingEnabled = tz.BoolOr("spoofing_enabled", true)
		p.Timezone.ZoneID = tz.StringOr("zone_id", p.Timezone.ZoneID)
	}
}
