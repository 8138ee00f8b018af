package loader

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stupside/veil/internal/profile"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeProfile(t *testing.T, doc string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(doc), 0o600))
	return dir
}

func resolve(t *testing.T, args []string, dir string) (*profile.Profile, Source) {
	t.Helper()
	return New(WithArgs(args), WithDir(dir), WithLogger(quietLogger())).Resolve()
}

func TestResolvePrecedence(t *testing.T) {
	dir := writeProfile(t, `{"global_seed":2}`)
	arg := Argument([]byte(`{"global_seed":1}`))

	p, src := resolve(t, []string{arg}, dir)
	assert.Equal(t, SourceArgument, src)
	assert.Equal(t, 1, p.GlobalSeed)

	p, src = resolve(t, nil, dir)
	assert.Equal(t, SourceFile, src)
	assert.Equal(t, 2, p.GlobalSeed)

	p, src = resolve(t, nil, t.TempDir())
	assert.Equal(t, SourceBuiltin, src)
	assert.Equal(t, 11223344, p.GlobalSeed)
}

func TestResolveFallsThroughBrokenTiers(t *testing.T) {
	fileDir := writeProfile(t, `{"global_seed":2}`)

	cases := map[string]string{
		"invalid base64": "--fingerprint-config=%%%not-base64",
		"malformed json": Argument([]byte(`{"global_seed":`)),
		"json array":     Argument([]byte(`[1,2,3]`)),
		"json null":      Argument([]byte(`null`)),
		"invalid utf8":   Argument([]byte("{\"ua_config\":{\"platform\":\"\xff\"}}")),
		"empty value":    "--fingerprint-config=",
	}
	for name, arg := range cases {
		t.Run(name, func(t *testing.T) {
			p, src := resolve(t, []string{arg}, fileDir)
			assert.Equal(t, SourceFile, src)
			assert.Equal(t, 2, p.GlobalSeed)
		})
	}
}

func TestResolveBrokenFileUsesBuiltin(t *testing.T) {
	dir := writeProfile(t, `{not json`)
	p, src := resolve(t, nil, dir)
	assert.Equal(t, SourceBuiltin, src)
	assert.Equal(t, 11223344, p.GlobalSeed)
}

func TestBuiltinProfile(t *testing.T) {
	p, src := New(WithArgs(nil), WithDir(""), WithLogger(quietLogger())).Resolve()
	require.Equal(t, SourceBuiltin, src)

	assert.True(t, p.UA.Enabled)
	assert.Equal(t, "Win32", p.UA.Platform)
	assert.Equal(t, 16, p.Hardware.Concurrency)
	assert.Equal(t, 32.0, p.Hardware.MemoryGB)
	assert.True(t, p.Screen.Enabled)
	assert.Equal(t, 100, p.Fonts.OffsetNoiseProbPercent)
	assert.Equal(t, "America/Los_Angeles", p.Timezone.ZoneID)
	assert.InDelta(t, 34.0522, p.Geo.Latitude, 1e-9)
	assert.Zero(t, p.Battery.DischargingTime)
	// Audio is absent from the built-in document.
	assert.Equal(t, 99, p.Audio.SampleRateOffsetMax)
}

func TestDecodeRecordAndFieldDefaults(t *testing.T) {
	p, err := Decode([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, 9, p.Plugins.DescriptionNoiseMax, "absent object keeps record default")
	assert.Equal(t, 99, p.Audio.SampleRateOffsetMax)

	p, err = Decode([]byte(`{"plugins":{},"audio":{}}`))
	require.NoError(t, err)
	assert.Equal(t, 5, p.Plugins.DescriptionNoiseMax, "present object uses field default")
	assert.Equal(t, 100, p.Audio.SampleRateOffsetMax)
}

func TestDecodeFieldTypeMismatch(t *testing.T) {
	p, err := Decode([]byte(`{"hardware":{"concurrency":"eight","memory_gb":12},"screen":{"width":"wide","height":900}}`))
	require.NoError(t, err)

	assert.Equal(t, 16, p.Hardware.Concurrency)
	assert.Equal(t, 8.0, p.Hardware.MemoryGB)
	assert.Equal(t, 1920, p.Screen.Width)
	assert.Equal(t, 900, p.Screen.Height)
}

func TestDecodeDoesNotCoerceScalars(t *testing.T) {
	def := profile.New()
	p, err := Decode([]byte(`{"hardware":{"concurrency":"8"},"ua_config":{"enabled":1,"language":42}}`))
	require.NoError(t, err)

	assert.Equal(t, 16, p.Hardware.Concurrency, "numeric strings are not numbers")
	assert.False(t, p.UA.Enabled, "numbers are not booleans")
	assert.Equal(t, def.UA.Language, p.UA.Language, "numbers are not strings")
}

func TestDecodeHardwareNormalization(t *testing.T) {
	cases := []struct {
		doc         string
		concurrency int
		memory      float64
	}{
		{`{"hardware":{"concurrency":7,"memory_gb":7}}`, 8, 4},
		{`{"hardware":{"concurrency":16,"memory_gb":12}}`, 16, 8},
		{`{"hardware":{"concurrency":3,"memory_gb":32}}`, 4, 32},
		{`{"hardware":{"concurrency":2.5}}`, 16, 32},
		{`{"hardware":{"concurrency":7.0}}`, 8, 32},
		{`{"hardware":{"concurrency":7.5}}`, 16, 32},
	}
	for _, c := range cases {
		p, err := Decode([]byte(c.doc))
		require.NoError(t, err)
		assert.Equal(t, c.concurrency, p.Hardware.Concurrency, c.doc)
		assert.Equal(t, c.memory, p.Hardware.MemoryGB, c.doc)
	}
}

func TestDecodeFallbacks(t *testing.T) {
	p, err := Decode([]byte(`{"geo":{"latitude":0,"longitude":0},"timezone":{"zone_id":""}}`))
	require.NoError(t, err)

	assert.Equal(t, profile.FallbackLatitude, p.Geo.Latitude)
	assert.Equal(t, profile.FallbackLongitude, p.Geo.Longitude)
	assert.Equal(t, profile.FallbackZoneID, p.Timezone.ZoneID)

	p, err = Decode([]byte(`{"geo":{"spoofing_enabled":false,"latitude":0,"longitude":0}}`))
	require.NoError(t, err)
	assert.Zero(t, p.Geo.Latitude)
}

func TestDecodeWhitelist(t *testing.T) {
	p, err := Decode([]byte(`{"fonts":{"whitelist":["Arial",3,"Verdana"]}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"Arial", "Verdana"}, p.Fonts.Whitelist)
	assert.Equal(t, 10, p.Fonts.OffsetNoiseProbPercent)
}

func TestDecodeUserAgentScenario(t *testing.T) {
	arg := Argument([]byte(`{"global_seed":100,"ua_config":{"enabled":true,"ua_string":"X","platform":"Y"}}`))
	p, src := resolve(t, []string{"--no-sandbox", arg}, "")

	require.Equal(t, SourceArgument, src)
	assert.Equal(t, 100, p.GlobalSeed)
	assert.Equal(t, "X", p.UA.UAString)
	assert.Equal(t, "Y", p.UA.Platform)
	assert.Equal(t, 16, p.Hardware.Concurrency)
}

func TestDecodeRejectsNonObject(t *testing.T) {
	_, err := Decode([]byte(`"text"`))
	assert.ErrorIs(t, err, ErrNotObject)

	_, err = Decode([]byte("\xfe{}"))
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestHasArgument(t *testing.T) {
	assert.True(t, HasArgument([]string{"show", Argument([]byte(`{}`))}))
	assert.True(t, HasArgument([]string{"--fingerprint-config"}))
	assert.False(t, HasArgument([]string{"--debug"}))
	assert.False(t, HasArgument([]string{"--", "--fingerprint-config=e30="}))
}

func TestSwitchValue(t *testing.T) {
	v, ok := switchValue([]string{"--fingerprint-config=a", "-fingerprint-config=b"}, SwitchName)
	assert.True(t, ok)
	assert.Equal(t, "b", v, "last occurrence wins")

	_, ok = switchValue([]string{"--", "--fingerprint-config=a"}, SwitchName)
	assert.False(t, ok)

	_, ok = switchValue([]string{"fingerprint-config=a", "--fingerprint-configx=a"}, SwitchName)
	assert.False(t, ok)

	v, ok = switchValue([]string{"--fingerprint-config"}, SwitchName)
	assert.True(t, ok)
	assert.Empty(t, v)
}

func TestPayload(t *testing.T) {
	doc := []byte(`{"global_seed":7}`)
	b, err := Payload(Encode(doc))
	require.NoError(t, err)
	assert.Equal(t, doc, b)

	_, err = Payload("***")
	assert.Error(t, err)
}
