// Package spoof holds the property getters that read a profile snapshot and
// either replace a measured value or add seeded noise to it.
//
// Every getter takes the profile explicitly. Callers pass the snapshot they
// hold (usually fingerprint.Instance()), which keeps the getters pure and
// lets tests inject any profile.
package spoof

import (
	"fmt"

	"github.com/stupside/veil/internal/noise"
	"github.com/stupside/veil/internal/profile"
)

// Kind tells how a property treats the measured value.
type Kind int

const (
	// KindSubstitution returns a configured value and skips measurement.
	KindSubstitution Kind = iota
	// KindAdditive always measures, then adds noise.
	KindAdditive
)

func (k Kind) String() string {
	switch k {
	case KindSubstitution:
		return "substitution"
	case KindAdditive:
		return "additive"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Property is a named getter that can be evaluated against host values.
type Property interface {
	Name() string
	Kind() Kind
	Evaluate(p *profile.Profile, h Host) any
}

// Substitution overrides a value outright when its policy yields one.
type Substitution[T any] struct {
	name     string
	override func(*profile.Profile) (T, bool)
	host     func(Host) T
}

// NewSubstitution builds a substitution property. host reads the measured
// value for Evaluate and may be nil when the property is not tabled.
func NewSubstitution[T any](name string, override func(*profile.Profile) (T, bool), host func(Host) T) Substitution[T] {
	return Substitution[T]{name: name, override: override, host: host}
}

func (s Substitution[T]) Name() string { return s.name }
func (s Substitution[T]) Kind() Kind   { return KindSubstitution }

// Named returns a copy of s under another name.
func (s Substitution[T]) Named(name string) Substitution[T] {
	s.name = name
	return s
}

// Get returns the override when one applies. measure runs only otherwise.
func (s Substitution[T]) Get(p *profile.Profile, measure func() T) T {
	if p != nil {
		if v, ok := s.override(p); ok {
			return v
		}
	}
	return measure()
}

func (s Substitution[T]) Evaluate(p *profile.Profile, h Host) any {
	return s.Get(p, func() T {
		var zero T
		if s.host == nil {
			return zero
		}
		return s.host(h)
	})
}

// Additive perturbs a measured value when enabled.
type Additive struct {
	name    string
	enabled func(*profile.Profile) bool
	delta   func(p *profile.Profile, measured float64) float64
	host    func(Host) float64
}

// NewAdditive builds an additive property. delta computes the noise for a
// measured value and is only called when enabled reports true.
func NewAdditive(name string, enabled func(*profile.Profile) bool, delta func(*profile.Profile, float64) float64, host func(Host) float64) Additive {
	return Additive{name: name, enabled: enabled, delta: delta, host: host}
}

// Seeded returns a delta of noise.Generate(seed, measured, scale(p)).
func Seeded(scale func(*profile.Profile) float64) func(*profile.Profile, float64) float64 {
	return func(p *profile.Profile, measured float64) float64 {
		return noise.Generate(p.GlobalSeed, measured, scale(p))
	}
}

func (a Additive) Name() string { return a.name }
func (a Additive) Kind() Kind   { return KindAdditive }

// Noise returns the delta Get would add to measured, or 0 when disabled.
func (a Additive) Noise(p *profile.Profile, measured float64) float64 {
	if p == nil || !a.enabled(p) {
		return 0
	}
	return a.delta(p, measured)
}

// Get returns measured plus its noise.
func (a Additive) Get(p *profile.Profile, measured float64) float64 {
	return measured + a.Noise(p, measured)
}

func (a Additive) Evaluate(p *profile.Profile, h Host) any {
	var measured float64
	if a.host != nil {
		measured = a.host(h)
	}
	return a.Get(p, measured)
}

// Host carries the true, unspoofed values a page would observe on this
// machine.
type Host struct {
	UserAgent           string
	Platform            string
	Language            string
	HardwareConcurrency int
	DeviceMemory        float64
	Screen              ScreenMetrics
	SampleRate          float64
	Reduction           float64
	WebGLVendor         string
	WebGLRenderer       string
	Connection          Connection
	Battery             Battery
	Position            Position
	TimeZone            string
}

// Table lists every tabled property in a stable order.
func Table() []Property {
	props := []Property{
		userAgent,
		appVersion,
		platform,
		hardwareConcurrency,
		deviceMemory,
		language,
		userAgent.Named("WorkerNavigator.userAgent"),
		platform.Named("WorkerNavigator.platform"),
		hardwareConcurrency.Named("WorkerNavigator.hardwareConcurrency"),
		deviceMemory.Named("WorkerNavigator.deviceMemory"),
	}
	props = append(props, screenProperties...)
	props = append(props,
		sampleRate,
		reduction,
		webGLVendor,
		webGLRenderer,
		connection,
		battery,
		position,
		timeZone,
	)
	return props
}

// Row is one evaluated table entry.
type Row struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Measured any    `json:"measured"`
	Observed any    `json:"observed"`
}

// Evaluate runs every property of Table against h, once with no profile for
// the measured value and once with p.
func Evaluate(p *profile.Profile, h Host) []Row {
	props := Table()
	rows := make([]Row, 0, len(props))
	for _, prop := range props {
		rows = append(rows, Row{
			Name:     prop.Name(),
			Kind:     prop.Kind().String(),
			Measured: prop.Evaluate(nil, h),
			Observed: prop.Evaluate(p, h),
		})
	}
	return rows
}
