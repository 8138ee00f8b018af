package spoof

import (
	"github.com/stupside/veil/internal/profile"
)

// Scope is the execution context a navigator object lives in.
type Scope int

const (
	ScopeWindow Scope = iota
	ScopeWorker
)

func (s Scope) String() string {
	if s == ScopeWorker {
		return "WorkerNavigator"
	}
	return "Navigator"
}

var (
	userAgent = NewSubstitution("Navigator.userAgent",
		func(p *profile.Profile) (string, bool) {
			return p.UA.UAString, p.UA.Enabled && p.UA.UAString != ""
		},
		func(h Host) string { return h.UserAgent },
	)

	appVersion = NewSubstitution("Navigator.appVersion",
		func(p *profile.Profile) (string, bool) {
			ua, ok := userAgent.override(p)
			return appVersionOf(ua), ok
		},
		func(h Host) string { return appVersionOf(h.UserAgent) },
	)

	platform = NewSubstitution("Navigator.platform",
		func(p *profile.Profile) (string, bool) {
			return p.UA.Platform, p.UA.Enabled && p.UA.Platform != ""
		},
		func(h Host) string { return h.Platform },
	)

	hardwareConcurrency = NewSubstitution("Navigator.hardwareConcurrency",
		func(p *profile.Profile) (int, bool) {
			return p.Hardware.Concurrency, p.UA.Enabled
		},
		func(h Host) int { return h.HardwareConcurrency },
	)

	deviceMemory = NewSubstitution("Navigator.deviceMemory",
		func(p *profile.Profile) (float64, bool) {
			return p.Hardware.MemoryGB, p.UA.Enabled
		},
		func(h Host) float64 { return h.DeviceMemory },
	)

	language = NewSubstitution("Navigator.language",
		func(p *profile.Profile) (string, bool) {
			return p.UA.Language, p.UA.Enabled && p.UA.Language != ""
		},
		func(h Host) string { return h.Language },
	)
)

// appVersionOf mirrors navigator.appVersion: the user agent without its
// "Mozilla/" product token.
func appVersionOf(ua string) string {
	if len(ua) <= 8 {
		return ""
	}
	return ua[8:]
}

// Navigator answers navigator reads for one scope. It keeps no decision
// between calls: each getter reads the profile again, so a worker never
// inherits a result computed on the main thread.
type Navigator struct {
	scope   Scope
	profile func() *profile.Profile
}

// NewNavigator returns a navigator reading its profile from source on every
// call. source may return nil before the profile is loaded.
func NewNavigator(scope Scope, source func() *profile.Profile) *Navigator {
	return &Navigator{scope: scope, profile: source}
}

func (n *Navigator) Scope() Scope { return n.scope }

func (n *Navigator) UserAgent(measure func() string) string {
	return userAgent.Get(n.profile(), measure)
}

func (n *Navigator) AppVersion(measure func() string) string {
	return appVersion.Get(n.profile(), measure)
}

func (n *Navigator) Platform(measure func() string) string {
	return platform.Get(n.profile(), measure)
}

func (n *Navigator) HardwareConcurrency(measure func() int) int {
	return hardwareConcurrency.Get(n.profile(), measure)
}

func (n *Navigator) DeviceMemory(measure func() float64) float64 {
	return deviceMemory.Get(n.profile(), measure)
}

func (n *Navigator) Language(measure func() string) string {
	return language.Get(n.profile(), measure)
}
