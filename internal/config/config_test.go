package config

import (
	"image/color"
	"testing"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{"#000000", color.RGBA{0, 0, 0, 255}, false},
		{"#fff", color.RGBA{255, 255, 255, 255}, false},
		{"ff0000", color.RGBA{255, 0, 0, 255}, false},
		{"#00000000", color.RGBA{0, 0, 0, 0}, false},
		{"#12", color.RGBA{}, true},
		{"#zzzzzz", color.RGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSettingsNormalize(t *testing.T) {
	s := Settings{EdgeSensitivity: 3, StrokeSmoothness: -1, DrawingOrder: "sideways"}.Normalize()

	if s.EdgeSensitivity != 1 || s.StrokeSmoothness != 0 {
		t.Errorf("Expected clamped values, got %f/%f", s.EdgeSensitivity, s.StrokeSmoothness)
	}
	if s.DrawingOrder != OrderTopToBottom {
		t.Errorf("Expected default order, got %s", s.DrawingOrder)
	}
	if s.AnalysisMaxSide != DefaultSettings().AnalysisMaxSide {
		t.Errorf("Expected default analysis size, got %d", s.AnalysisMaxSide)
	}
	if s.Texture != TextureNone {
		t.Errorf("Expected texture none, got %s", s.Texture)
	}
}

func TestTimingNormalize(t *testing.T) {
	d := DefaultTiming()
	tests := []struct {
		name string
		in   Timing
		want Timing
	}{
		{"defaults untouched", d, d},
		{"color end equals start", Timing{SketchEnd: 1, ColorStart: 1.1, ColorEnd: 1.1, PauseSpeed: 1, ColorSpeed: 1, HoldDuration: 0, HandFrequency: 4, HandAmplitude: 0.2},
			Timing{SketchEnd: 1, ColorStart: 1.1, ColorEnd: 2, PauseSpeed: 1, ColorSpeed: 1, HoldDuration: 0, HandFrequency: 4, HandAmplitude: 0.2}},
		{"start before sketch end", Timing{SketchEnd: 1, ColorStart: 0.5, ColorEnd: 2, PauseSpeed: 0.5, ColorSpeed: 2, HoldDuration: 1, HandFrequency: 12, HandAmplitude: 0.35}, d},
		{"zero speeds", Timing{SketchEnd: 2, ColorStart: 3, ColorEnd: 4, HoldDuration: -1, HandFrequency: -2, HandAmplitude: -1},
			Timing{SketchEnd: 2, ColorStart: 3, ColorEnd: 4, PauseSpeed: d.PauseSpeed, ColorSpeed: d.ColorSpeed, HoldDuration: d.HoldDuration, HandFrequency: d.HandFrequency, HandAmplitude: d.HandAmplitude}},
		{"no pause", Timing{SketchEnd: 1, ColorStart: 1, ColorEnd: 2, PauseSpeed: 0.5, ColorSpeed: 2, HoldDuration: 1, HandFrequency: 12, HandAmplitude: 0.35},
			Timing{SketchEnd: 1, ColorStart: 1, ColorEnd: 2, PauseSpeed: 0.5, ColorSpeed: 2, HoldDuration: 1, HandFrequency: 12, HandAmplitude: 0.35}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Normalize(); got != tt.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
