package spoof

import (
	"github.com/stupside/veil/internal/noise"
	"github.com/stupside/veil/internal/profile"
)

// DefaultSampleRateScale bounds sample-rate noise when the profile's maximum
// offset is not positive.
const DefaultSampleRateScale = 100.0

func audioEnabled(p *profile.Profile) bool { return p.Audio.SpoofingEnabled }

var (
	sampleRate = NewAdditive("BaseAudioContext.sampleRate",
		audioEnabled,
		sampleRateDelta,
		func(h Host) float64 { return h.SampleRate },
	)

	reduction = NewAdditive("DynamicsCompressorNode.reduction",
		audioEnabled,
		Seeded(func(p *profile.Profile) float64 { return p.Audio.ReductionNoiseFactor }),
		func(h Host) float64 { return h.Reduction },
	)
)

// sampleRateDelta uses the fixed offset when one is configured, otherwise
// seeded noise bounded by the maximum offset.
func sampleRateDelta(p *profile.Profile, rate float64) float64 {
	if p.Audio.SampleRateOffset != 0 {
		return p.Audio.SampleRateOffset
	}
	scale := float64(p.Audio.SampleRateOffsetMax)
	if scale <= 0 {
		scale = DefaultSampleRateScale
	}
	return noise.Generate(p.GlobalSeed, rate, scale)
}

// SampleRate returns the context sample rate a page observes.
func SampleRate(p *profile.Profile, rate float32) float32 {
	return rate + float32(sampleRate.Noise(p, float64(rate)))
}

// Reduction returns the compressor gain reduction, in dB, a page observes.
func Reduction(p *profile.Profile, value float32) float32 {
	return value + float32(reduction.Noise(p, float64(value)))
}
