package renderer

import (
	"image"
	"image/color"
	"math"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/sketch2video/internal/config"
	"github.com/ivlev/sketch2video/internal/sketch"
)

type penStyle struct {
	width float64
	color color.RGBA // premultiplied
}

var penStyles = map[config.StrokeStyle]penStyle{
	config.StylePencil: {width: 1.6, color: color.RGBA{52, 52, 56, 230}},
	config.StyleMarker: {width: 4.0, color: color.RGBA{17, 17, 17, 255}},
	config.StylePen:    {width: 2.2, color: color.RGBA{24, 38, 98, 255}},
}

func styleFor(s config.Settings) penStyle {
	st, ok := penStyles[s.StrokeStyle]
	if !ok {
		st = penStyles[config.StylePencil]
	}
	if s.StrokeWidth > 0 {
		st.width = s.StrokeWidth
	}
	if s.StrokeColor != "" {
		st.color = config.MustColor(s.StrokeColor, st.color)
	}
	return st
}

// pen strokes item paths onto one destination through the camera.
type pen struct {
	dasher *rasterx.Dasher
	style  penStyle
	cam    sketch.CameraState
	w, h   int
}

func newPen(dst *image.RGBA, s config.Settings, cam sketch.CameraState) *pen {
	b := dst.Bounds()
	sc := rasterx.NewScannerGV(b.Dx(), b.Dy(), dst, b)
	return &pen{
		dasher: rasterx.NewDasher(b.Dx(), b.Dy(), sc),
		style:  styleFor(s),
		cam:    cam,
		w:      b.Dx(),
		h:      b.Dy(),
	}
}

// screen maps a normalized item point to destination pixels.
func (p *pen) screen(it *sketch.ProcessedItem, pt sketch.Point) (float64, float64) {
	x := float64(it.X) + pt.X*float64(it.Width)
	y := float64(it.Y) + pt.Y*float64(it.Height)
	return p.cam.Apply(x, y, p.w, p.h)
}

func fixedPoint(x, y float64) fixed.Point26_6 {
	return fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)}
}

// stroke draws the first n points of path. Strong edges draw wider.
func (p *pen) stroke(it *sketch.ProcessedItem, path sketch.Path, n int) {
	if n > len(path.Points) {
		n = len(path.Points)
	}
	if n < 2 {
		return
	}
	width := p.style.width * (0.6 + 0.4*path.Strength) * p.cam.Scale()

	d := p.dasher
	d.Clear()
	d.SetStroke(fixed.Int26_6(width*64), 0, rasterx.RoundCap, rasterx.RoundCap, rasterx.RoundGap, rasterx.ArcClip, nil, 0)
	d.SetColor(p.style.color)
	d.Start(fixedPoint(p.screen(it, path.Points[0])))
	for _, pt := range path.Points[1:n] {
		d.Line(fixedPoint(p.screen(it, pt)))
	}
	d.Stop(false)
	d.Draw()
}

// outline strokes every path of the item.
func (p *pen) outline(it *sketch.ProcessedItem) {
	for _, path := range it.Paths {
		p.stroke(it, path, len(path.Points))
	}
}

// prefix strokes the first count points of the item, walking paths in order
// and stopping mid-path. It returns the tool pose at the last drawn point.
func (p *pen) prefix(it *sketch.ProcessedItem, count int) HandPose {
	var (
		last  sketch.Path
		lastN int
	)
	for _, path := range it.Paths {
		if count <= 0 {
			break
		}
		n := min(len(path.Points), count)
		p.stroke(it, path, n)
		last, lastN = path, n
		count -= n
	}
	if lastN == 0 {
		return HandPose{}
	}

	tip := lastN - 1
	x, y := p.screen(it, last.Points[tip])
	ax, ay := p.screen(it, last.Points[max(0, tip-tipLookaround)])
	bx, by := p.screen(it, last.Points[min(len(last.Points)-1, tip+tipLookaround)])
	angle := 0.0
	if ax != bx || ay != by {
		angle = math.Atan2(by-ay, bx-ax)
	}
	return HandPose{X: x, Y: y, Angle: angle, Visible: true}
}

// tipLookaround is how many points back and ahead the heading is measured over.
const tipLookaround = 3
