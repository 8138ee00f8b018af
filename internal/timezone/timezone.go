// Package timezone pins the process to a configured IANA zone.
package timezone

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	// Zone resolution must not depend on the host's zoneinfo files.
	_ "time/tzdata"
)

// EnvVar is read by child processes and C libraries for the local zone.
const EnvVar = "TZ"

var ErrInvalidZone = errors.New("invalid timezone")

// Enforcer installs a zone as the process default. Calls are serialized;
// enforcing the same zone twice is a no-op beyond re-setting the same state.
type Enforcer struct {
	mu      sync.Mutex
	current *time.Location
}

// Enforce sets EnvVar to zoneID, then resolves it and installs the result as
// time.Local. The variable is written even when resolution fails; in that
// case the previously installed zone stays in effect.
func (e *Enforcer) Enforce(zoneID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := os.Setenv(EnvVar, zoneID); err != nil {
		slog.Warn("failed to set timezone variable", "zone", zoneID, "error", err)
	}

	loc, err := resolve(zoneID)
	if err != nil {
		return err
	}

	time.Local = loc
	e.current = loc

	slog.Debug("timezone enforced", "zone", zoneID)
	return nil
}

// Current returns the last zone installed by Enforce, or nil.
func (e *Enforcer) Current() *time.Location {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Valid reports whether zoneID names a zone Enforce would install.
func Valid(zoneID string) bool {
	_, err := resolve(zoneID)
	return err == nil
}

// resolve rejects the empty id and "Local", which time.LoadLocation maps to
// UTC and the host zone respectively.
func resolve(zoneID string) (*time.Location, error) {
	if zoneID == "" || zoneID == "Local" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidZone, zoneID)
	}
	loc, err := time.LoadLocation(zoneID)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidZone, zoneID, err)
	}
	return loc, nil
}
