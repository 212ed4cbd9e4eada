package scene

import (
	"math"

	"github.com/ivlev/sketch2video/internal/renderer"
	"github.com/ivlev/sketch2video/internal/sketch"
)

// Director generates camera keys that follow items as they are sketched.
type Director struct {
	ViewportWidth  int
	ViewportHeight int
	MaxZoom        float64
	Padding        float64 // share of the viewport a focused item may fill
}

// NewDirector creates a new Director with default settings
func NewDirector(viewportWidth, viewportHeight int) *Director {
	return &Director{
		ViewportWidth:  viewportWidth,
		ViewportHeight: viewportHeight,
		MaxZoom:        2.0,
		Padding:        0.9,
	}
}

// CameraKeys focuses each item during its sketch slice and returns to the
// full view when sketching ends. start is the frame-local time sketching
// begins and sketchDur its length in seconds. Items must be in drawing order.
func (d *Director) CameraKeys(items []sketch.ProcessedItem, start, sketchDur float64) []renderer.CameraKey {
	if len(items) == 0 || sketchDur <= 0 {
		return nil
	}

	keys := []renderer.CameraKey{{Time: start, Zoom: 1}}
	dwell := sketchDur / float64(len(items))
	for i := range items {
		it := &items[i]
		if it.Width <= 0 || it.Height <= 0 {
			continue
		}
		x, y := d.center(it)
		keys = append(keys, renderer.CameraKey{
			Time: start + float64(i)*dwell + dwell*0.25,
			X:    x,
			Y:    y,
			Zoom: d.calculateZoom(it.Width, it.Height),
		})
	}
	return append(keys, renderer.CameraKey{Time: start + sketchDur, Zoom: 1})
}

// center is the pan offset that brings the item's centre to the middle of
// the viewport.
func (d *Director) center(it *sketch.ProcessedItem) (float64, float64) {
	cx := float64(it.X) + float64(it.Width)/2
	cy := float64(it.Y) + float64(it.Height)/2
	return float64(d.ViewportWidth)/2 - cx, float64(d.ViewportHeight)/2 - cy
}

// calculateZoom determines zoom level to fit an item in the viewport
func (d *Director) calculateZoom(w, h int) float64 {
	scaleX := float64(d.ViewportWidth) * d.Padding / float64(w)
	scaleY := float64(d.ViewportHeight) * d.Padding / float64(h)

	// Use the smaller scale to ensure the item fits
	zoom := math.Min(scaleX, scaleY)
	return math.Max(1, math.Min(zoom, d.MaxZoom))
}
