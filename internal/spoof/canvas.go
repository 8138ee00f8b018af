package spoof

import (
	"fmt"

	"github.com/stupside/veil/internal/noise"
	"github.com/stupside/veil/internal/profile"
)

// TextNoiseScale is the largest shift, in CSS pixels, applied to canvas text
// metrics. Font boxes are often read as integers, so the shift has to be
// able to cross a pixel boundary.
const TextNoiseScale = 2.0

// hangingAscentRatio places a missing hanging baseline at 80% of the ascent.
const hangingAscentRatio = 0.8

type Direction int

const (
	DirectionLTR Direction = iota
	DirectionRTL
)

type Align int

const (
	AlignStart Align = iota
	AlignEnd
	AlignLeft
	AlignRight
	AlignCenter
)

type Baseline int

const (
	BaselineAlphabetic Baseline = iota
	BaselineTop
	BaselineHanging
	BaselineMiddle
	BaselineIdeographic
	BaselineBottom
)

// TextStyle is the canvas state measureText depends on.
type TextStyle struct {
	Font      string
	Direction Direction
	Baseline  Baseline
	Align     Align
}

// Rect is an axis-aligned box in CSS pixels, y growing downwards.
type Rect struct {
	X, Y, Width, Height float64
}

func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }
func (r Rect) Empty() bool     { return r.Width <= 0 || r.Height <= 0 }

// Union returns the smallest rect containing r and o. Empty rects are
// ignored.
func (r Rect) Union(o Rect) Rect {
	if o.Empty() {
		return r
	}
	if r.Empty() {
		return o
	}
	x, y := min(r.X, o.X), min(r.Y, o.Y)
	return Rect{X: x, Y: y, Width: max(r.Right(), o.Right()) - x, Height: max(r.Bottom(), o.Bottom()) - y}
}

// FontMetrics is the geometry of the primary font, relative to the
// alphabetic baseline. Optional baselines are nil when the font has no
// baseline table entry for them.
type FontMetrics struct {
	Ascent      float64
	Descent     float64
	TypoAscent  float64
	TypoDescent float64

	AlphabeticBaseline  *float64
	HangingBaseline     *float64
	IdeographicBaseline *float64
}

// Run is one shaped text item.
type Run struct {
	Width     float64
	InkBounds Rect
}

// Shaping is the output of the text layout engine for a string.
type Shaping struct {
	Font FontMetrics
	Runs []Run
}

// Shaper lays out text and returns its true geometry.
type Shaper interface {
	Shape(text string, style TextStyle) (Shaping, error)
}

// Baselines are offsets from the requested baseline to the font baselines.
type Baselines struct {
	Alphabetic  float64 `json:"alphabeticBaseline"`
	Hanging     float64 `json:"hangingBaseline"`
	Ideographic float64 `json:"ideographicBaseline"`
}

// TextMetrics is the object returned by measureText.
type TextMetrics struct {
	Width                    float64 `json:"width"`
	AlignOffset              float64 `json:"-"`
	ActualBoundingBoxLeft    float64 `json:"actualBoundingBoxLeft"`
	ActualBoundingBoxRight   float64 `json:"actualBoundingBoxRight"`
	ActualBoundingBoxAscent  float64 `json:"actualBoundingBoxAscent"`
	ActualBoundingBoxDescent float64 `json:"actualBoundingBoxDescent"`
	FontBoundingBoxAscent    float64 `json:"fontBoundingBoxAscent"`
	FontBoundingBoxDescent   float64 `json:"fontBoundingBoxDescent"`
	EmHeightAscent           float64 `json:"emHeightAscent"`
	EmHeightDescent          float64 `json:"emHeightDescent"`
	Baselines
}

// shift moves every geometric field by the same delta so that the metrics
// stay consistent with each other.
func (m *TextMetrics) shift(delta float64) {
	m.Width += delta
	m.AlignOffset += delta
	m.ActualBoundingBoxLeft += delta
	m.ActualBoundingBoxRight += delta
	m.ActualBoundingBoxAscent += delta
	m.ActualBoundingBoxDescent += delta
	m.FontBoundingBoxAscent += delta
	m.FontBoundingBoxDescent += delta
	m.EmHeightAscent += delta
	m.EmHeightDescent += delta
	m.Alphabetic += delta
	m.Hanging += delta
	m.Ideographic += delta
}

// MeasureText shapes text and returns its metrics with the profile's text
// noise applied.
func MeasureText(p *profile.Profile, s Shaper, text string, style TextStyle) (TextMetrics, error) {
	shaping, err := s.Shape(text, style)
	if err != nil {
		return TextMetrics{}, fmt.Errorf("shaping text: %w", err)
	}
	m := Metrics(shaping, style)
	m.shift(TextNoise(p, text))
	return m, nil
}

// TextNoise is the delta applied to every metric of text. It is 0 unless
// text noise is enabled and the text passes the probability gate.
func TextNoise(p *profile.Profile, text string) float64 {
	if p == nil || !p.IsFontNoiseEnabled() {
		return 0
	}
	return noise.Text(p.GlobalSeed, text, p.Fonts.OffsetNoiseProbPercent, TextNoiseScale)
}

// Metrics derives the true text metrics from a shaping result.
func Metrics(s Shaping, style TextStyle) TextMetrics {
	var (
		width  float64
		bounds Rect
	)
	for _, run := range s.Runs {
		ink := run.InkBounds
		ink.X += width
		bounds = bounds.Union(ink)
		width += run.Width
	}

	var m TextMetrics
	m.Width = width
	switch {
	case style.Align == AlignCenter:
		m.AlignOffset = width / 2
	case style.Align == AlignRight,
		style.Align == AlignStart && style.Direction == DirectionRTL,
		style.Align == AlignEnd && style.Direction != DirectionRTL:
		m.AlignOffset = width
	}

	m.ActualBoundingBoxLeft = -bounds.X + m.AlignOffset
	m.ActualBoundingBoxRight = bounds.Right() - m.AlignOffset

	f := s.Font
	y := baselineOffset(style.Baseline, f)
	m.FontBoundingBoxAscent = f.Ascent - y
	m.FontBoundingBoxDescent = f.Descent + y
	m.ActualBoundingBoxAscent = -bounds.Y - y
	m.ActualBoundingBoxDescent = bounds.Bottom() + y
	m.EmHeightAscent = f.TypoAscent - y
	m.EmHeightDescent = f.TypoDescent + y

	m.Alphabetic = valueOr(f.AlphabeticBaseline, 0) - y
	m.Hanging = valueOr(f.HangingBaseline, f.Ascent*hangingAscentRatio) - y
	m.Ideographic = valueOr(f.IdeographicBaseline, -f.Descent) - y
	return m
}

// baselineOffset is the distance from the alphabetic baseline to the
// requested one, positive upwards.
func baselineOffset(b Baseline, f FontMetrics) float64 {
	switch b {
	case BaselineTop:
		return f.TypoAscent
	case BaselineHanging:
		return valueOr(f.HangingBaseline, f.Ascent*hangingAscentRatio)
	case BaselineIdeographic:
		return valueOr(f.IdeographicBaseline, -f.Descent)
	case BaselineBottom:
		return -f.TypoDescent
	case BaselineMiddle:
		return (f.TypoAscent - f.TypoDescent) / 2
	default:
		return valueOr(f.AlphabeticBaseline, 0)
	}
}

func valueOr(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}

// FillTextOffset is the sub-glyph displacement applied to fillText and
// strokeText for text. Both components stay within fill_text_offset_max.
func FillTextOffset(p *profile.Profile, text string) (dx, dy float64) {
	if p == nil || p.Canvas.FillTextOffsetMax <= 0 {
		return 0, 0
	}
	combined := noise.Combine(noise.StableHash(text), p.GlobalSeed)
	input := noise.Input(combined)
	scale := float64(p.Canvas.FillTextOffsetMax)
	return noise.Generate(p.GlobalSeed, input, scale), noise.Generate(p.GlobalSeed, input+1, scale)
}
