package config

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

type Config struct {
	InputPath    string
	OutputVideo  string
	FramesDir    string
	Width        int
	Height       int
	FPS          int
	Workers      int
	VideoEncoder string
	Quality      int
	ShowStats    bool
	BuildVersion string
	PreviewAddr  string
}

type DrawingOrder string

const (
	OrderTopToBottom DrawingOrder = "top-to-bottom"
	OrderRandom      DrawingOrder = "random"
	OrderSmartFlow   DrawingOrder = "smart-flow"
)

type StrokeStyle string

const (
	StylePencil StrokeStyle = "pencil"
	StyleMarker StrokeStyle = "marker"
	StylePen    StrokeStyle = "pen"
)

type TextureKind string

const (
	TextureNone     TextureKind = "none"
	TextureGrain    TextureKind = "grain"
	TextureCrumpled TextureKind = "crumpled"
)

// Settings are the user-facing knobs that affect processing and drawing.
// Changing EdgeDetector, EdgeSensitivity, StrokeSmoothness, DrawingOrder or
// AnalysisMaxSide invalidates processed items; the rest only affect rendering.
type Settings struct {
	EdgeDetector     string       `yaml:"edge_detector,omitempty"` // analyzer variant, "" is the default
	EdgeSensitivity  float64      `yaml:"edge_sensitivity"`
	StrokeSmoothness float64      `yaml:"stroke_smoothness"`
	DrawingOrder     DrawingOrder `yaml:"drawing_order"`
	AnalysisMaxSide  int          `yaml:"analysis_max_side"`

	StrokeStyle StrokeStyle `yaml:"stroke_style"`
	StrokeColor string      `yaml:"stroke_color"`
	StrokeWidth float64     `yaml:"stroke_width"`

	PaperColor       string      `yaml:"paper_color"`
	Texture          TextureKind `yaml:"texture"`
	TextureIntensity float64     `yaml:"texture_intensity"`

	ShowHand bool `yaml:"show_hand"`
	// ColorSettledItems blits finished items as their colour composite while
	// later items are still being sketched.
	ColorSettledItems bool `yaml:"color_settled_items"`
}

func DefaultSettings() Settings {
	return Settings{
		EdgeSensitivity:   0.5,
		StrokeSmoothness:  0.5,
		DrawingOrder:      OrderTopToBottom,
		AnalysisMaxSide:   800,
		StrokeStyle:       StylePencil,
		PaperColor:        "#fdfcf8",
		Texture:           TextureNone,
		TextureIntensity:  0.3,
		ShowHand:          true,
		ColorSettledItems: true,
	}
}

// Normalize clamps numeric fields into their valid ranges and fills empty
// enums with defaults.
func (s Settings) Normalize() Settings {
	d := DefaultSettings()
	s.EdgeSensitivity = clamp01(s.EdgeSensitivity)
	s.StrokeSmoothness = clamp01(s.StrokeSmoothness)
	s.TextureIntensity = clamp01(s.TextureIntensity)
	switch s.DrawingOrder {
	case OrderTopToBottom, OrderRandom, OrderSmartFlow:
	default:
		s.DrawingOrder = d.DrawingOrder
	}
	switch s.StrokeStyle {
	case StylePencil, StyleMarker, StylePen:
	default:
		s.StrokeStyle = d.StrokeStyle
	}
	switch s.Texture {
	case TextureNone, TextureGrain, TextureCrumpled:
	default:
		s.Texture = TextureNone
	}
	if s.AnalysisMaxSide <= 0 {
		s.AnalysisMaxSide = d.AnalysisMaxSide
	}
	if s.PaperColor == "" {
		s.PaperColor = d.PaperColor
	}
	if s.StrokeWidth < 0 {
		s.StrokeWidth = 0
	}
	return s
}

// Paper returns the parsed paper colour, falling back to the default paper.
func (s Settings) Paper() color.RGBA {
	return MustColor(s.PaperColor, color.RGBA{0xfd, 0xfc, 0xf8, 0xff})
}

// Timing holds the phase boundaries and speed multipliers of the animation.
// These are product feel rather than invariants.
type Timing struct {
	SketchEnd  float64 `yaml:"sketch_end"`
	ColorStart float64 `yaml:"color_start"`
	ColorEnd   float64 `yaml:"color_end"`

	PauseSpeed float64 `yaml:"pause_speed"` // progress rate during the pause, relative to sketching
	ColorSpeed float64 `yaml:"color_speed"` // progress rate during the colour sweep

	HoldDuration float64 `yaml:"hold_duration"` // seconds at the finished frame

	HandFrequency float64 `yaml:"hand_frequency"` // zig-zag cycles over the colour sweep
	HandAmplitude float64 `yaml:"hand_amplitude"` // fraction of canvas width
}

func DefaultTiming() Timing {
	return Timing{
		SketchEnd:     1.0,
		ColorStart:    1.1,
		ColorEnd:      2.0,
		PauseSpeed:    0.5,
		ColorSpeed:    2.0,
		HoldDuration:  1.0,
		HandFrequency: 12,
		HandAmplitude: 0.35,
	}
}

// Normalize repairs timing that cannot drive the phase machine. The phase
// boundaries must satisfy 0 < SketchEnd <= ColorStart < ColorEnd or all three
// fall back to the defaults; non-positive speeds and negative hand or hold
// values fall back individually.
func (t Timing) Normalize() Timing {
	d := DefaultTiming()
	if !(t.SketchEnd > 0 && t.ColorStart >= t.SketchEnd && t.ColorEnd > t.ColorStart) || math.IsInf(t.ColorEnd, 0) {
		t.SketchEnd, t.ColorStart, t.ColorEnd = d.SketchEnd, d.ColorStart, d.ColorEnd
	}
	if !(t.PauseSpeed > 0) || math.IsInf(t.PauseSpeed, 0) {
		t.PauseSpeed = d.PauseSpeed
	}
	if !(t.ColorSpeed > 0) || math.IsInf(t.ColorSpeed, 0) {
		t.ColorSpeed = d.ColorSpeed
	}
	if !(t.HoldDuration >= 0) || math.IsInf(t.HoldDuration, 0) {
		t.HoldDuration = d.HoldDuration
	}
	if !(t.HandFrequency >= 0) || math.IsInf(t.HandFrequency, 0) {
		t.HandFrequency = d.HandFrequency
	}
	if !(t.HandAmplitude >= 0) || math.IsInf(t.HandAmplitude, 0) {
		t.HandAmplitude = d.HandAmplitude
	}
	return t
}

// ParseColor parses #rgb, #rrggbb and #rrggbbaa.
func ParseColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	c := color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
	return color.RGBAModel.Convert(c).(color.RGBA), nil
}

// MustColor is ParseColor with a fallback for malformed input.
func MustColor(s string, fallback color.RGBA) color.RGBA {
	c, err := ParseColor(s)
	if err != nil {
		return fallback
	}
	return c
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
