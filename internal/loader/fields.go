package loader

import (
	"math"
)

// dict is a decoded JSON object. Its accessors return ok=false for a
// missing key or a value of the wrong JSON type, so every field can fall
// back to its own default independently of its siblings.
type dict map[string]any

func (d dict) Dict(key string) (dict, bool) {
	v, ok := d[key].(map[string]any)
	return dict(v), ok
}

// Int accepts integral numbers inside the 32-bit range. JSON decoding
// yields float64 for every number, so 16 and 16.0 are indistinguishable.
func (d dict) Int(key string) (int, bool) {
	f, ok := d[key].(float64)
	if !ok || f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func (d dict) Float(key string) (float64, bool) {
	f, ok := d[key].(float64)
	return f, ok
}

func (d dict) Bool(key string) (bool, bool) {
	b, ok := d[key].(bool)
	return b, ok
}

func (d dict) String(key string) (string, bool) {
	s, ok := d[key].(string)
	return s, ok
}

func (d dict) List(key string) ([]any, bool) {
	l, ok := d[key].([]any)
	return l, ok
}

func (d dict) IntOr(key string, def int) int {
	if v, ok := d.Int(key); ok {
		return v
	}
	return def
}

func (d dict) FloatOr(key string, def float64) float64 {
	if v, ok := d.Float(key); ok {
		return v
	}
	return def
}

func (d dict) BoolOr(key string, def bool) bool {
	if v, ok := d.Bool(key); ok {
		return v
	}
	return def
}

func (d dict) StringOr(key string, def string) string {
	if v, ok := d.String(key); ok {
		return v
	}
	return def
}
