package fingerprint

import (
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stupside/veil/internal/loader"
	"github.com/stupside/veil/internal/noise"
	"github.com/stupside/veil/internal/profile"
	"github.com/stupside/veil/internal/timezone"
)

type countingResolver struct {
	calls atomic.Int32
	build func() *profile.Profile
}

func (r *countingResolver) Resolve() (*profile.Profile, loader.Source) {
	r.calls.Add(1)
	return r.build(), loader.SourceFile
}

func keepLocal(t *testing.T) {
	t.Helper()
	prev := time.Local
	t.Setenv(timezone.EnvVar, os.Getenv(timezone.EnvVar))
	t.Cleanup(func() { time.Local = prev })
}

func withZone(zone string) func() *profile.Profile {
	return func() *profile.Profile {
		p := profile.New()
		p.GlobalSeed = 42
		p.Timezone = profile.TimezoneConfig{SpoofingEnabled: zone != "", ZoneID: zone}
		return p
	}
}

func TestStoreLoadsOnce(t *testing.T) {
	r := &countingResolver{build: withZone("")}
	s := NewStore(r, nil)
	assert.False(t, s.Loaded())

	var wg sync.WaitGroup
	seen := make([]*profile.Profile, 16)
	for i := range seen {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen[i] = s.Profile()
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, r.calls.Load())
	assert.True(t, s.Loaded())
	for _, p := range seen {
		assert.Same(t, seen[0], p)
	}
	assert.Equal(t, loader.SourceFile, s.Source())
}

func TestStoreEnforcesTimezoneOnLoad(t *testing.T) {
	keepLocal(t)

	e := &timezone.Enforcer{}
	s := NewStore(&countingResolver{build: withZone("Asia/Tokyo")}, e)

	require.NoError(t, s.EnforceTimezone(), "no-op before load")
	assert.Nil(t, e.Current())

	s.Profile()
	require.NotNil(t, e.Current())
	assert.Equal(t, "Asia/Tokyo", e.Current().String())
	assert.Equal(t, "Asia/Tokyo", os.Getenv(timezone.EnvVar))
}

func TestStoreInvalidZoneStillLoads(t *testing.T) {
	keepLocal(t)

	s := NewStore(&countingResolver{build: withZone("Not/AZone")}, nil)
	p := s.Profile()

	require.NotNil(t, p)
	assert.Equal(t, "Not/AZone", p.Timezone.ZoneID)
	assert.Nil(t, s.Enforcer().Current())
	assert.ErrorIs(t, s.EnforceTimezone(), timezone.ErrInvalidZone)
}

func TestStoreSkipsDisabledTimezone(t *testing.T) {
	keepLocal(t)

	s := NewStore(&countingResolver{build: withZone("")}, nil)
	s.Profile()
	assert.Nil(t, s.Enforcer().Current())
}

func TestStoreGenerateNoise(t *testing.T) {
	s := NewStore(&countingResolver{build: withZone("")}, nil)

	got := s.GenerateNoise(7, 2)
	assert.Equal(t, noise.Generate(42, 7, 2), got)
	assert.Equal(t, got, s.GenerateNoise(7, 2))
	assert.Zero(t, s.GenerateNoise(7, 0))
}
