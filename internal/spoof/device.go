package spoof

import (
	"encoding/json"
	"math"

	"github.com/stupside/veil/internal/profile"
)

// Connection is navigator.connection.
type Connection struct {
	Downlink      float64 `json:"downlink"`
	RTT           float64 `json:"rtt"`
	EffectiveType string  `json:"effectiveType"`
	SaveData      bool    `json:"saveData"`
}

// Battery is the BatteryManager state. An infinite time is reported as
// Infinity by the page.
type Battery struct {
	Charging        bool    `json:"charging"`
	ChargingTime    float64 `json:"chargingTime"`
	DischargingTime float64 `json:"dischargingTime"`
	Level           float64 `json:"level"`
}

// MarshalJSON writes infinite times as null.
func (b Battery) MarshalJSON() ([]byte, error) {
	finite := func(v float64) *float64 {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return nil
		}
		return &v
	}
	return json.Marshal(struct {
		Charging        bool     `json:"charging"`
		ChargingTime    *float64 `json:"chargingTime"`
		DischargingTime *float64 `json:"dischargingTime"`
		Level           float64  `json:"level"`
	}{b.Charging, finite(b.ChargingTime), finite(b.DischargingTime), b.Level})
}

// Position is a geolocation fix.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
}

var (
	connection = NewSubstitution("Navigator.connection",
		func(p *profile.Profile) (Connection, bool) {
			n := p.Network
			return Connection{Downlink: n.Downlink, RTT: n.RTT, EffectiveType: n.EffectiveType, SaveData: n.SaveData}, n.SpoofingEnabled
		},
		func(h Host) Connection { return h.Connection },
	)

	battery = NewSubstitution("Navigator.getBattery",
		func(p *profile.Profile) (Battery, bool) {
			b := p.Battery
			return Battery{Charging: b.Charging, ChargingTime: b.ChargingTime, DischargingTime: b.DischargingTime, Level: b.Level}, b.SpoofingEnabled
		},
		func(h Host) Battery { return h.Battery },
	)

	position = NewSubstitution("Geolocation.getCurrentPosition",
		func(p *profile.Profile) (Position, bool) {
			g := p.Geo
			return Position{Latitude: g.Latitude, Longitude: g.Longitude, Accuracy: g.Accuracy}, g.SpoofingEnabled
		},
		func(h Host) Position { return h.Position },
	)

	timeZone = NewSubstitution("Intl.DateTimeFormat.timeZone",
		func(p *profile.Profile) (string, bool) {
			return p.Timezone.ZoneID, p.Timezone.SpoofingEnabled && p.Timezone.ZoneID != ""
		},
		func(h Host) string { return h.TimeZone },
	)
)

func NetworkInformation(p *profile.Profile, measure func() Connection) Connection {
	return connection.Get(p, measure)
}

// BatteryStatus returns the battery state. The level is clamped to [0, 1].
func BatteryStatus(p *profile.Profile, measure func() Battery) Battery {
	b := battery.Get(p, measure)
	b.Level = clamp(b.Level, 0, 1)
	if math.IsNaN(b.Level) {
		b.Level = 1
	}
	return b
}

func CurrentPosition(p *profile.Profile, measure func() Position) Position {
	return position.Get(p, measure)
}

// TimeZone returns the IANA zone name reported by Intl.
func TimeZone(p *profile.Profile, measure func() string) string {
	return timeZone.Get(p, measure)
}
