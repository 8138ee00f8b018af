package browser

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stupside/veil/internal/noise"
	"github.com/stupside/veil/internal/profile"
	"github.com/stupside/veil/internal/spoof"
)

// noiseVM returns a JS runtime with the noise core installed for seed.
func noiseVM(t *testing.T, seed int) *goja.Runtime {
	t.Helper()
	vm := goja.New()
	_, err := vm.RunString(strings.ReplaceAll(noiseCoreJS, "{{SEED}}", strconv.Itoa(seed)))
	require.NoError(t, err)
	return vm
}

func eval(t *testing.T, vm *goja.Runtime, expr string) goja.Value {
	t.Helper()
	v, err := vm.RunString(expr)
	require.NoError(t, err, expr)
	return v
}

func TestScriptCompiles(t *testing.T) {
	p := uaProfile()
	p.Screen.Enabled = true
	p.Audio.SpoofingEnabled = true
	p.Network.SpoofingEnabled = true
	p.Battery.SpoofingEnabled = true
	p.Fonts.OffsetNoiseProbPercent = 100

	_, err := goja.Compile("veil.js", BuildScript(p), false)
	require.NoError(t, err)

	_, err = goja.Compile("probe.js", probeJS, false)
	require.NoError(t, err)
}

func TestScriptNoiseMatchesGo(t *testing.T) {
	for _, seed := range []int{0, 42, -9, 1 << 31} {
		vm := noiseVM(t, seed)
		for _, input := range []float64{0, 1.5, 44100, 99999} {
			got := eval(t, vm, fmt.Sprintf("__veil.noise(%v, 3)", input)).ToFloat()
			assert.Equal(t, noise.Generate(seed, input, 3), got, "seed %d input %v", seed, input)
		}
	}
}

func TestScriptHashMatchesGo(t *testing.T) {
	vm := noiseVM(t, 7)
	for _, text := range []string{"", "a", "Cwm fjordbank glyphs vext quiz", "héllo", "😀 emoji", strings.Repeat("z", 300)} {
		got := eval(t, vm, fmt.Sprintf("__veil.hash(%s)", jsString(text))).ToInteger()
		assert.Equal(t, int64(noise.StableHash(text)), got, "hash %q", text)

		combined := eval(t, vm, fmt.Sprintf("__veil.combine(__veil.hash(%s))", jsString(text))).ToInteger()
		assert.Equal(t, int64(noise.Combine(noise.StableHash(text), 7)), combined, "combine %q", text)
	}
}

func TestScriptTextNoiseMatchesGo(t *testing.T) {
	p := profile.New()
	p.GlobalSeed = 1234
	vm := noiseVM(t, p.GlobalSeed)

	for _, percent := range []int{0, 35, 100} {
		p.Fonts.OffsetNoiseProbPercent = percent
		for _, text := range []string{"Hello", "fingerprint", "mmmmmmmmmmlli", "x"} {
			expr := fmt.Sprintf("__veil.textNoise(%s, %d, %v)", jsString(text), percent, spoof.TextNoiseScale)
			got := eval(t, vm, expr).ToFloat()
			assert.Equal(t, spoof.TextNoise(p, text), got, "%q at %d%%", text, percent)
		}
	}
}

func TestScriptPaddingMatchesGo(t *testing.T) {
	p := profile.New()
	p.GlobalSeed = 99
	vm := noiseVM(t, p.GlobalSeed)

	for _, label := range []string{"Built-in Microphone", "FaceTime HD Camera", "PDF Viewer"} {
		want := strings.TrimPrefix(spoof.DeviceLabel(p, label), label)
		got := eval(t, vm, fmt.Sprintf("__veil.pad(%s, %d)", jsString(label), p.WebRTC.DeviceLabelNoiseMax)).String()
		assert.Equal(t, want, got, "%q", label)
	}
	assert.Equal(t, "", eval(t, vm, "__veil.pad('x', 0)").String())
}

func TestScriptFillTextOffsetMatchesGo(t *testing.T) {
	p := profile.New()
	p.GlobalSeed = 5
	vm := noiseVM(t, p.GlobalSeed)

	fill := strings.ReplaceAll(fillTextJS, "{{FILL_TEXT_MAX}}", strconv.Itoa(p.Canvas.FillTextOffsetMax))
	// Expose the snippet's offset helper without a canvas.
	fill = strings.Replace(fill, "  [typeof CanvasRenderingContext2D", "  globalThis.__offset = offset;\n  [typeof CanvasRenderingContext2D", 1)
	eval(t, vm, "var CanvasRenderingContext2D, OffscreenCanvasRenderingContext2D;")
	eval(t, vm, fill)

	dx, dy := spoof.FillTextOffset(p, "probe")
	assert.Equal(t, dx, eval(t, vm, "__offset('probe')[0]").ToFloat())
	assert.Equal(t, dy, eval(t, vm, "__offset('probe')[1]").ToFloat())
}
