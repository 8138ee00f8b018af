package spoof

import (
	"math"

	"github.com/stupside/veil/internal/noise"
	"github.com/stupside/veil/internal/profile"
)

// WEBGL_debug_renderer_info parameter names.
const (
	UnmaskedVendorWebGL   = 0x9245
	UnmaskedRendererWebGL = 0x9246
)

var (
	webGLVendor = NewSubstitution("WebGLRenderingContext.UNMASKED_VENDOR_WEBGL",
		func(p *profile.Profile) (string, bool) { return p.WebGL.Vendor, p.WebGL.Vendor != "" },
		func(h Host) string { return h.WebGLVendor },
	)
	webGLRenderer = NewSubstitution("WebGLRenderingContext.UNMASKED_RENDERER_WEBGL",
		func(p *profile.Profile) (string, bool) { return p.WebGL.Renderer, p.WebGL.Renderer != "" },
		func(h Host) string { return h.WebGLRenderer },
	)
)

func WebGLVendor(p *profile.Profile, measure func() string) string {
	return webGLVendor.Get(p, measure)
}

func WebGLRenderer(p *profile.Profile, measure func() string) string {
	return webGLRenderer.Get(p, measure)
}

// ClearColor perturbs the clear color components, each kept in [0, 1]. The
// channel index is part of the noise input so equal channels diverge.
func ClearColor(p *profile.Profile, rgba [4]float64) [4]float64 {
	if p == nil || p.WebGL.ClearColorNoise == 0 {
		return rgba
	}
	var out [4]float64
	for i, c := range rgba {
		out[i] = clamp(c+noise.Generate(p.GlobalSeed, c*255+float64(i), p.WebGL.ClearColorNoise), 0, 1)
	}
	return out
}

// MaxViewportDims lowers the reported MAX_VIEWPORT_DIMS by up to
// viewport_noise_max pixels. The result never exceeds the true limit.
func MaxViewportDims(p *profile.Profile, width, height int) (int, int) {
	if p == nil || p.WebGL.ViewportNoiseMax <= 0 {
		return width, height
	}
	scale := float64(p.WebGL.ViewportNoiseMax)
	dw := int(math.Round(math.Abs(noise.Generate(p.GlobalSeed, float64(width), scale))))
	dh := int(math.Round(math.Abs(noise.Generate(p.GlobalSeed, float64(height)+1, scale))))
	return width - dw, height - dh
}

// ReadPixels perturbs RGBA bytes in place by up to read_pixels_noise_max per
// channel. Alpha bytes are left alone so transparency survives.
func ReadPixels(p *profile.Profile, pixels []byte) {
	if p == nil || p.WebGL.ReadPixelsNoiseMax <= 0 {
		return
	}
	scale := float64(p.WebGL.ReadPixelsNoiseMax)
	for i, v := range pixels {
		if i%4 == 3 {
			continue
		}
		d := math.Round(noise.Generate(p.GlobalSeed, float64(i%noiseInputPeriod)+float64(v), scale))
		pixels[i] = byte(clamp(float64(v)+d, 0, 255))
	}
}

// noiseInputPeriod keeps pixel indexes small enough for Generate.
const noiseInputPeriod = 100000

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
