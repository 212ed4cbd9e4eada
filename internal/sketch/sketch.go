// Package sketch holds the data model shared by the processing pipeline and the
// compositor: normalized points, traced paths, processed items and the layer,
// text and camera descriptions they are built from.
package sketch

import "image"

// Point is a position normalized to [0,1] relative to an item's raster bounds.
type Point struct {
	X, Y float64
}

// Path is an ordered polyline traced along a detected edge.
// Strength follows the average gradient magnitude along the trace and
// modulates stroke width. Paths always hold more than MinPathPoints-1 points.
type Path struct {
	Points   []Point
	Strength float64
}

// MinPathPoints is the shortest trace kept by the tracer; anything shorter is noise.
const MinPathPoints = 6

// First returns the first point of the path.
func (p Path) First() Point { return p.Points[0] }

// Last returns the last point of the path.
func (p Path) Last() Point { return p.Points[len(p.Points)-1] }

type ItemType string

const (
	ItemImage ItemType = "image"
	ItemText  ItemType = "text"
)

// ProcessedItem is the result of running one layer or text element through the
// edge pipeline. It is never mutated after the processor emits it.
type ProcessedItem struct {
	ID          string
	Type        ItemType
	Paths       []Path
	ColorCanvas *image.RGBA // fully rendered item, the ground truth composite

	// Placement of ColorCanvas on the project canvas, in pixels.
	X, Y          int
	Width, Height int
}

// TotalPoints is the point count the compositor uses for sketch-fraction math.
func (it *ProcessedItem) TotalPoints() int {
	n := 0
	for _, p := range it.Paths {
		n += len(p.Points)
	}
	return n
}

// Bounds returns the item placement on the canvas.
func (it *ProcessedItem) Bounds() image.Rectangle {
	return image.Rect(it.X, it.Y, it.X+it.Width, it.Y+it.Height)
}

// ImageLayer is a raster placed on the canvas. X, Y, Width and Height describe
// the unrotated box; rotation (degrees) and signed scale apply about its centre.
type ImageLayer struct {
	ID       string
	Image    image.Image
	X, Y     float64
	Width    float64
	Height   float64
	Rotation float64
	ScaleX   float64
	ScaleY   float64
	Opacity  *float64 // nil is fully opaque; 0 hides the layer
}

// TextElement is rasterized once and then processed like an image layer.
// X is the alignment anchor, Y the top of the first line.
type TextElement struct {
	ID         string
	Text       string
	X, Y       float64
	FontSize   float64
	FontFamily string
	Color      string
	Bold       bool
	Italic     bool
	Align      string // left, center, right
}

type TransitionType string

const (
	TransitionCut        TransitionType = "cut"
	TransitionPan        TransitionType = "pan"
	TransitionFade       TransitionType = "fade"
	TransitionZoom       TransitionType = "zoom"
	TransitionPaperSlide TransitionType = "paper-slide"
)

type Direction string

const (
	DirLeft  Direction = "left"
	DirRight Direction = "right"
	DirUp    Direction = "up"
	DirDown  Direction = "down"
)

// CameraTransition governs how a frame enters relative to the previous frame.
type CameraTransition struct {
	Type      TransitionType
	Direction Direction
	Duration  float64 // seconds
}

// IsCut reports whether the transition is instantaneous.
func (t CameraTransition) IsCut() bool {
	return t.Type == "" || t.Type == TransitionCut || t.Duration <= 0
}

// CameraState is a pan offset in pixels and a zoom about the canvas centre.
// The zero value is the identity camera.
type CameraState struct {
	X, Y float64
	Zoom float64
}

// Scale returns the effective zoom, treating zero as 1.
func (c CameraState) Scale() float64 {
	if c.Zoom <= 0 {
		return 1
	}
	return c.Zoom
}

// IsIdentity reports whether the camera leaves content untouched.
func (c CameraState) IsIdentity() bool {
	return c.X == 0 && c.Y == 0 && c.Scale() == 1
}

// Apply maps a canvas position to the screen for a canvas of the given size.
func (c CameraState) Apply(x, y float64, w, h int) (float64, float64) {
	cx, cy := float64(w)/2, float64(h)/2
	z := c.Scale()
	return (x+c.X-cx)*z + cx, (y+c.Y-cy)*z + cy
}
