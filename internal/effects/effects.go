// Package effects renders camera transitions between consecutive frames.
package effects

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/ivlev/sketch2video/internal/sketch"
)

const (
	zoomOutScale = 1.2 // previous frame grows to this while fading out
	zoomInScale  = 0.8 // new frame starts at this scale
	shadowOffset = 8
	shadowAlpha  = 70
)

// Ease is the quadratic ease-in-out curve driving every transition.
func Ease(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - 2*(1-t)*(1-t)
}

// Apply renders the transition from prev to next at linear time t in [0,1).
// prev may be nil, in which case next is drawn as is. dst is fully overwritten.
func Apply(dst *image.RGBA, prev, next image.Image, tr sketch.CameraTransition, t float64) {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	if prev == nil || tr.IsCut() {
		fill(dst, next)
		return
	}

	e := Ease(t)
	b := dst.Bounds()
	w, h := b.Dx(), b.Dy()

	switch tr.Type {
	case sketch.TransitionPan:
		pdx, pdy := panOffset(tr.Direction, e, w, h)
		ndx, ndy := pdx, pdy
		switch tr.Direction {
		case sketch.DirLeft:
			ndx = pdx - w
		case sketch.DirUp:
			ndy = pdy - h
		case sketch.DirDown:
			ndy = pdy + h
		default:
			ndx = pdx + w
		}
		wipe(dst)
		shift(dst, prev, pdx, pdy, draw.Src)
		shift(dst, next, ndx, ndy, draw.Src)

	case sketch.TransitionFade:
		fill(dst, prev)
		withAlpha(dst, next, e)

	case sketch.TransitionZoom:
		draw.Draw(dst, b, image.NewUniform(color.Black), image.Point{}, draw.Src)
		scaled(dst, prev, 1+(zoomOutScale-1)*e, 1-e)
		scaled(dst, next, zoomInScale+(1-zoomInScale)*e, e)

	case sketch.TransitionPaperSlide:
		fill(dst, prev)
		dx, dy := slideOffset(tr.Direction, e, w, h)
		shadow := image.Rect(0, 0, w, h).Add(b.Min).Add(image.Pt(dx+shadowOffset, dy+shadowOffset))
		draw.Draw(dst, shadow, image.NewUniform(color.RGBA{A: shadowAlpha}), image.Point{}, draw.Over)
		shift(dst, next, dx, dy, draw.Over)

	default:
		fill(dst, next)
	}
}

// panOffset is where the previous frame sits: it leaves opposite to the
// camera direction.
func panOffset(dir sketch.Direction, e float64, w, h int) (int, int) {
	switch dir {
	case sketch.DirLeft:
		return int(math.Round(e * float64(w))), 0
	case sketch.DirUp:
		return 0, int(math.Round(e * float64(h)))
	case sketch.DirDown:
		return 0, -int(math.Round(e * float64(h)))
	default:
		return -int(math.Round(e * float64(w))), 0
	}
}

// slideOffset is where the incoming sheet sits while sliding in from dir.
func slideOffset(dir sketch.Direction, e float64, w, h int) (int, int) {
	rest := 1 - e
	switch dir {
	case sketch.DirLeft:
		return -int(math.Round(rest * float64(w))), 0
	case sketch.DirUp:
		return 0, -int(math.Round(rest * float64(h)))
	case sketch.DirDown:
		return 0, int(math.Round(rest * float64(h)))
	default:
		return int(math.Round(rest * float64(w))), 0
	}
}

func wipe(dst *image.RGBA) {
	draw.Draw(dst, dst.Bounds(), image.Transparent, image.Point{}, draw.Src)
}

func fill(dst *image.RGBA, src image.Image) {
	if src == nil {
		wipe(dst)
		return
	}
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
}

func shift(dst *image.RGBA, src image.Image, dx, dy int, op draw.Op) {
	if src == nil {
		return
	}
	r := dst.Bounds().Add(image.Pt(dx, dy))
	draw.Draw(dst, r, src, src.Bounds().Min, op)
}

func alphaMask(a float64) *image.Uniform {
	return image.NewUniform(color.Alpha{A: uint8(math.Round(clamp01(a) * 255))})
}

func withAlpha(dst *image.RGBA, src image.Image, a float64) {
	if src == nil {
		return
	}
	draw.DrawMask(dst, dst.Bounds(), src, src.Bounds().Min, alphaMask(a), image.Point{}, draw.Over)
}

// scaled draws src scaled about the canvas centre with constant alpha.
func scaled(dst *image.RGBA, src image.Image, scale, alpha float64) {
	if src == nil || alpha <= 0 {
		return
	}
	db, sb := dst.Bounds(), src.Bounds()
	dcx := float64(db.Min.X) + float64(db.Dx())/2
	dcy := float64(db.Min.Y) + float64(db.Dy())/2
	scx := float64(sb.Min.X) + float64(sb.Dx())/2
	scy := float64(sb.Min.Y) + float64(sb.Dy())/2
	m := f64.Aff3{
		scale, 0, dcx - scale*scx,
		0, scale, dcy - scale*scy,
	}
	xdraw.ApproxBiLinear.Transform(dst, m, src, sb, xdraw.Over, &xdraw.Options{SrcMask: alphaMask(alpha)})
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
