// Package scene describes a project: canvas, settings and the frames of the
// timeline with their layers, texts, transitions and camera keys.
package scene

import (
	"github.com/ivlev/sketch2video/internal/config"
	"github.com/ivlev/sketch2video/internal/renderer"
	"github.com/ivlev/sketch2video/internal/sketch"
	"github.com/ivlev/sketch2video/internal/timeline"
)

const (
	DefaultWidth  = 1280
	DefaultHeight = 720
	DefaultFPS    = 30
)

// Project is the YAML document the CLI and preview server load.
type Project struct {
	Version  string          `yaml:"version"`
	Width    int             `yaml:"width"`
	Height   int             `yaml:"height"`
	FPS      int             `yaml:"fps"`
	Settings config.Settings `yaml:"settings"`
	Timing   config.Timing   `yaml:"timing,omitempty"`
	Frames   []Frame         `yaml:"frames"`
}

// Frame is one sheet of the timeline.
type Frame struct {
	ID         int                  `yaml:"id"`
	Duration   float64              `yaml:"duration"` // sketch seconds
	Hold       float64              `yaml:"hold,omitempty"`
	Transition Transition           `yaml:"transition,omitempty"`
	AutoCamera bool                 `yaml:"auto_camera,omitempty"`
	Camera     []renderer.CameraKey `yaml:"camera,omitempty"`
	Layers     []Layer              `yaml:"layers"`
	Texts      []Text               `yaml:"texts,omitempty"`
}

type Transition struct {
	Type      string  `yaml:"type"`
	Direction string  `yaml:"direction,omitempty"`
	Duration  float64 `yaml:"duration,omitempty"`
}

// Layer places an image source on the canvas. Source is a file path, a
// "file.pdf#page" reference or "qr:<text>".
type Layer struct {
	ID       string   `yaml:"id"`
	Source   string   `yaml:"source"`
	X        float64  `yaml:"x"`
	Y        float64  `yaml:"y"`
	Width    float64  `yaml:"width,omitempty"`
	Height   float64  `yaml:"height,omitempty"`
	Rotation float64  `yaml:"rotation,omitempty"`
	ScaleX   float64  `yaml:"scale_x,omitempty"`
	ScaleY   float64  `yaml:"scale_y,omitempty"`
	Opacity  *float64 `yaml:"opacity,omitempty"` // unset is opaque
}

type Text struct {
	ID         string  `yaml:"id"`
	Text       string  `yaml:"text"`
	X          float64 `yaml:"x"`
	Y          float64 `yaml:"y"`
	FontSize   float64 `yaml:"font_size"`
	FontFamily string  `yaml:"font_family,omitempty"`
	Color      string  `yaml:"color,omitempty"`
	Bold       bool    `yaml:"bold,omitempty"`
	Italic     bool    `yaml:"italic,omitempty"`
	Align      string  `yaml:"align,omitempty"`
}

// New returns an empty project with default canvas and settings.
func New() *Project {
	return &Project{
		Version:  "1.0",
		Width:    DefaultWidth,
		Height:   DefaultHeight,
		FPS:      DefaultFPS,
		Settings: config.DefaultSettings(),
		Timing:   config.DefaultTiming(),
	}
}

// normalize fills missing canvas values and clamps settings.
func (p *Project) normalize() {
	if p.Width <= 0 {
		p.Width = DefaultWidth
	}
	if p.Height <= 0 {
		p.Height = DefaultHeight
	}
	if p.FPS <= 0 {
		p.FPS = DefaultFPS
	}
	p.Settings = p.Settings.Normalize()
	p.Timing = timeline.OrDefault(p.Timing)
}

// Schedule lays out the project's frames on a timeline.
func (p *Project) Schedule() *timeline.Schedule {
	specs := make([]timeline.FrameSpec, len(p.Frames))
	for i, f := range p.Frames {
		specs[i] = timeline.FrameSpec{
			Duration:   f.Duration,
			Hold:       f.Hold,
			Transition: f.CameraTransition(),
		}
	}
	return timeline.NewSchedule(specs, p.Timing)
}

func (f Frame) CameraTransition() sketch.CameraTransition {
	return sketch.CameraTransition{
		Type:      sketch.TransitionType(f.Transition.Type),
		Direction: sketch.Direction(f.Transition.Direction),
		Duration:  f.Transition.Duration,
	}
}

// TextElements converts the frame texts for the processor.
func (f Frame) TextElements() []sketch.TextElement {
	out := make([]sketch.TextElement, 0, len(f.Texts))
	for _, t := range f.Texts {
		out = append(out, sketch.TextElement{
			ID:         t.ID,
			Text:       t.Text,
			X:          t.X,
			Y:          t.Y,
			FontSize:   t.FontSize,
			FontFamily: t.FontFamily,
			Color:      t.Color,
			Bold:       t.Bold,
			Italic:     t.Italic,
			Align:      t.Align,
		})
	}
	return out
}
