package spoof

import (
	"github.com/stupside/veil/internal/profile"
)

// ScreenMetrics is the window.screen geometry.
type ScreenMetrics struct {
	Width       int `json:"width"`
	Height      int `json:"height"`
	ColorDepth  int `json:"colorDepth"`
	PixelDepth  int `json:"pixelDepth"`
	AvailLeft   int `json:"availLeft"`
	AvailTop    int `json:"availTop"`
	AvailWidth  int `json:"availWidth"`
	AvailHeight int `json:"availHeight"`
}

func screenOverride(value func(profile.ScreenConfig) int) func(*profile.Profile) (int, bool) {
	return func(p *profile.Profile) (int, bool) {
		return value(p.Screen), p.Screen.Enabled
	}
}

var (
	screenWidth = NewSubstitution("Screen.width",
		screenOverride(func(s profile.ScreenConfig) int { return s.Width }),
		func(h Host) int { return h.Screen.Width },
	)
	screenHeight = NewSubstitution("Screen.height",
		screenOverride(func(s profile.ScreenConfig) int { return s.Height }),
		func(h Host) int { return h.Screen.Height },
	)
	screenColorDepth = NewSubstitution("Screen.colorDepth",
		screenOverride(func(s profile.ScreenConfig) int { return s.ColorDepth }),
		func(h Host) int { return h.Screen.ColorDepth },
	)
	screenPixelDepth = NewSubstitution("Screen.pixelDepth",
		screenOverride(func(s profile.ScreenConfig) int { return s.ColorDepth }),
		func(h Host) int { return h.Screen.PixelDepth },
	)
	// A spoofed screen sits at the origin so the real monitor layout does
	// not leak through the available rectangle.
	screenAvailLeft = NewSubstitution("Screen.availLeft",
		screenOverride(func(profile.ScreenConfig) int { return 0 }),
		func(h Host) int { return h.Screen.AvailLeft },
	)
	screenAvailTop = NewSubstitution("Screen.availTop",
		screenOverride(func(profile.ScreenConfig) int { return 0 }),
		func(h Host) int { return h.Screen.AvailTop },
	)

	screenProperties = []Property{
		screenWidth,
		screenHeight,
		screenColorDepth,
		screenPixelDepth,
		screenAvailLeft,
		screenAvailTop,
	}
)

// Screen applies the screen overrides to measured. Available width and
// height are reported as measured.
func Screen(p *profile.Profile, measured ScreenMetrics) ScreenMetrics {
	value := func(v int) func() int { return func() int { return v } }

	out := measured
	out.Width = screenWidth.Get(p, value(measured.Width))
	out.Height = screenHeight.Get(p, value(measured.Height))
	out.ColorDepth = screenColorDepth.Get(p, value(measured.ColorDepth))
	out.PixelDepth = screenPixelDepth.Get(p, value(measured.PixelDepth))
	out.AvailLeft = screenAvailLeft.Get(p, value(measured.AvailLeft))
	out.AvailTop = screenAvailTop.Get(p, value(measured.AvailTop))
	return out
}
