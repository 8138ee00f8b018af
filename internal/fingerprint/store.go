// Package fingerprint publishes the process-wide profile. The profile is
// resolved lazily on first access, exactly once, and never mutated after.
package fingerprint

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/stupside/veil/internal/loader"
	"github.com/stupside/veil/internal/noise"
	"github.com/stupside/veil/internal/profile"
	"github.com/stupside/veil/internal/timezone"
)

// Resolver produces a profile and reports the tier it came from.
type Resolver interface {
	Resolve() (*profile.Profile, loader.Source)
}

// Store owns the published profile and the zone enforcer applied from it.
type Store struct {
	resolver Resolver
	enforcer *timezone.Enforcer

	once    sync.Once
	profile atomic.Pointer[profile.Profile]
	source  atomic.Int32
}

// NewStore returns a store that resolves through r on first access. A nil
// enforcer gets a private one.
func NewStore(r Resolver, e *timezone.Enforcer) *Store {
	if e == nil {
		e = &timezone.Enforcer{}
	}
	return &Store{resolver: r, enforcer: e}
}

// Profile returns the published profile, resolving it on the first call.
// Concurrent first callers block until the single resolution completes.
// The returned value must be treated as read-only.
func (s *Store) Profile() *profile.Profile {
	s.once.Do(s.load)
	return s.profile.Load()
}

// Loaded reports whether resolution has completed, without triggering it.
func (s *Store) Loaded() bool {
	return s.profile.Load() != nil
}

// Source returns the tier the profile was resolved from.
func (s *Store) Source() loader.Source {
	s.once.Do(s.load)
	return loader.Source(s.source.Load())
}

// Enforcer returns the zone enforcer driven by this store.
func (s *Store) Enforcer() *timezone.Enforcer {
	return s.enforcer
}

func (s *Store) load() {
	p, src := s.resolver.Resolve()
	s.source.Store(int32(src))
	s.profile.Store(p)

	if err := s.EnforceTimezone(); err != nil {
		slog.Warn("timezone not applied, keeping previous zone", "zone", p.Timezone.ZoneID, "error", err)
	}
}

// EnforceTimezone applies the profile's zone when timezone spoofing is on.
// Before the profile is loaded it does nothing.
func (s *Store) EnforceTimezone() error {
	p := s.profile.Load()
	if p == nil || !p.Timezone.SpoofingEnabled || p.Timezone.ZoneID == "" {
		return nil
	}
	return s.enforcer.Enforce(p.Timezone.ZoneID)
}

// GenerateNoise is the seeded noise function bound to the profile's global
// seed.
func (s *Store) GenerateNoise(input, scale float64) float64 {
	return noise.Generate(s.Profile().GlobalSeed, input, scale)
}

// Default is the process singleton, resolved from the launch arguments and
// the executable's directory. It is never torn down.
var Default = sync.OnceValue(func() *Store {
	return NewStore(loader.New(), &timezone.Enforcer{})
})

// Instance returns the process-wide profile.
func Instance() *profile.Profile {
	return Default().Profile()
}
