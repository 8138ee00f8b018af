// Package noise implements the deterministic pseudo-noise shared by every
// spoofed surface. All functions are pure: identical arguments always yield
// bit-identical results, across goroutines and across process restarts.
package noise

import (
	"math"
	"unicode/utf16"
)

// phase keeps sin(seed+input) away from zero when seed and input are both 0.
const phase = 0.12345

// inputModulus bounds hash-derived noise inputs so the float addition inside
// Generate does not lose precision.
const inputModulus = 100000

// Generate returns sin(seed + input + 0.12345) * scale.
func Generate(seed int, input, scale float64) float64 {
	return math.Sin(float64(seed)+input+phase) * scale
}

// StableHash folds text with h = h*31 + unit over its UTF-16 code units,
// starting from zero and wrapping at 32 bits. Unlike the runtime map hash it
// is not randomized per process.
func StableHash(text string) uint32 {
	var h uint32
	for _, unit := range utf16.Encode([]rune(text)) {
		h = h*31 + uint32(unit)
	}
	return h
}

// Combine mixes the global seed into a text hash. XOR keeps small seed
// changes visible in the low bits used by Gate.
func Combine(hash uint32, seed int) uint32 {
	return hash ^ uint32(seed)
}

// Gate reports whether a combined hash falls under the configured
// probability, expressed in percent.
func Gate(combined uint32, percent int) bool {
	return int(combined%100) < percent
}

// Input maps a combined hash to the small range fed into Generate.
func Input(combined uint32) float64 {
	return float64(combined % inputModulus)
}

// Text returns the noise delta for a piece of text, or 0 when the
// probability gate rejects it. The gate is evaluated once per text value.
func Text(seed int, text string, percent int, scale float64) float64 {
	combined := Combine(StableHash(text), seed)
	if !Gate(combined, percent) {
		return 0
	}
	return Generate(seed, Input(combined), scale)
}
