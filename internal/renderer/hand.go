package renderer

import (
	"image"
	"image/color"
	"math"

	"github.com/srwiley/rasterx"

	"github.com/ivlev/sketch2video/internal/config"
)

// HandPose is where the drawing tool touches the canvas, in pixels.
// Angle is the stroke heading in radians.
type HandPose struct {
	X, Y    float64
	Angle   float64
	Visible bool
}

const handTilt = math.Pi / 3.6 // tool leans towards the lower right

var (
	skin       = color.RGBA{232, 190, 160, 255}
	skinShadow = color.RGBA{196, 150, 122, 255}
	graphite   = color.RGBA{40, 40, 40, 255}
	toolBodies = map[config.StrokeStyle]color.RGBA{
		config.StylePencil: {240, 196, 48, 255},
		config.StyleMarker: {30, 30, 30, 255},
		config.StylePen:    {30, 52, 140, 255},
	}
)

// DrawHand paints a simple hand holding the tool with its tip at the pose.
func DrawHand(dst *image.RGBA, pose HandPose, style config.StrokeStyle) {
	if !pose.Visible {
		return
	}
	b := dst.Bounds()
	f := rasterx.NewFiller(b.Dx(), b.Dy(), rasterx.NewScannerGV(b.Dx(), b.Dy(), dst, b))

	s := math.Max(0.5, float64(b.Dy())/720)
	tilt := handTilt + 0.12*math.Sin(pose.Angle)
	ux, uy := math.Cos(tilt), math.Sin(tilt)
	nx, ny := -uy, ux
	// at maps tool-local (along, across) units to pixels
	at := func(a, n float64) point2 {
		return point2{pose.X + (ux*a+nx*n)*s, pose.Y + (uy*a+ny*n)*s}
	}

	body, ok := toolBodies[style]
	if !ok {
		body = toolBodies[config.StylePencil]
	}

	polygon(f, graphite, at(0, 0), at(16, -4.5), at(16, 4.5))
	polygon(f, body, at(16, -4.5), at(120, -4.5), at(120, 4.5), at(16, 4.5))
	ellipse(f, skinShadow, at, 88, 8, 34, 26)
	ellipse(f, skin, at, 84, 4, 32, 24)
	ellipse(f, skin, at, 52, -10, 14, 8)
}

type point2 struct{ x, y float64 }

func polygon(f *rasterx.Filler, c color.RGBA, pts ...point2) {
	if len(pts) < 3 {
		return
	}
	f.Clear()
	f.SetColor(c)
	f.Start(fixedPoint(pts[0].x, pts[0].y))
	for _, p := range pts[1:] {
		f.Line(fixedPoint(p.x, p.y))
	}
	f.Stop(true)
	f.Draw()
}

// ellipse fills an ellipse given in tool-local units, so it follows the tilt.
func ellipse(f *rasterx.Filler, c color.RGBA, at func(a, n float64) point2, ca, cn, ra, rn float64) {
	const steps = 28
	pts := make([]point2, 0, steps)
	for i := 0; i < steps; i++ {
		th := 2 * math.Pi * float64(i) / steps
		pts = append(pts, at(ca+ra*math.Cos(th), cn+rn*math.Sin(th)))
	}
	polygon(f, c, pts...)
}
