// Package renderer composites one animation frame from processed items.
package renderer

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/ivlev/sketch2video/internal/config"
	"github.com/ivlev/sketch2video/internal/effects"
	"github.com/ivlev/sketch2video/internal/sketch"
	"github.com/ivlev/sketch2video/internal/timeline"
)

// FrameInput is everything one frame depends on. RenderFrame reads it and
// nothing else, so scrubbing and export draw identical pixels.
type FrameInput struct {
	Progress   float64
	Camera     sketch.CameraState
	Transition sketch.CameraTransition
	Previous   image.Image // finished composite of the previous frame, nil for the first
	Items      []sketch.ProcessedItem
	Background image.Image // paper, canvas sized; nil means white
	Settings   config.Settings
	Timing     config.Timing
}

// RenderFrame draws the frame at in.Progress into dst and returns the tool
// pose. dst is fully overwritten.
func RenderFrame(dst *image.RGBA, in FrameInput) HandPose {
	tm := timeline.OrDefault(in.Timing)
	size := dst.Bounds().Size()

	var pose HandPose
	switch timeline.PhaseOf(in.Progress, tm) {
	case timeline.PhaseTransition:
		next := in.Background
		if next == nil {
			blank := image.NewRGBA(dst.Bounds())
			paper(blank, nil)
			next = blank
		}
		effects.Apply(dst, in.Previous, next, in.Transition, 1+in.Progress)
		return HandPose{}

	case timeline.PhaseSketch:
		paper(dst, in.Background)
		pose = sketchItems(dst, in, in.Progress/tm.SketchEnd)

	case timeline.PhasePause:
		paper(dst, in.Background)
		p := newPen(dst, in.Settings, in.Camera)
		for i := range in.Items {
			outlineOrReveal(dst, p, &in.Items[i], in.Camera)
		}

	case timeline.PhaseColor:
		paper(dst, in.Background)
		frac := (in.Progress - tm.ColorStart) / (tm.ColorEnd - tm.ColorStart)
		pose = colorSweep(dst, in, tm, math.Max(0, math.Min(1, frac)))

	default:
		paper(dst, in.Background)
		for i := range in.Items {
			blit(dst, &in.Items[i], in.Camera, size)
		}
	}

	if in.Settings.ShowHand {
		DrawHand(dst, pose, in.Settings.StrokeStyle)
	}
	return pose
}

// sketchItems gives every item an equal slice of the sketch range. Finished
// items show their composite (or outline), the active one a stroke prefix.
func sketchItems(dst *image.RGBA, in FrameInput, progress float64) HandPose {
	n := len(in.Items)
	if n == 0 {
		return HandPose{}
	}
	p := newPen(dst, in.Settings, in.Camera)
	size := dst.Bounds().Size()

	var pose HandPose
	for i := range in.Items {
		it := &in.Items[i]
		local := (progress - float64(i)/float64(n)) * float64(n)
		switch {
		case local >= 1:
			if in.Settings.ColorSettledItems {
				blit(dst, it, in.Camera, size)
			} else {
				outlineOrReveal(dst, p, it, in.Camera)
			}
		case local >= 0:
			total := it.TotalPoints()
			if total == 0 {
				blit(dst, it, in.Camera, size)
				continue
			}
			pose = p.prefix(it, int(math.Floor(float64(total)*local)))
		}
	}
	return pose
}

// colorSweep reveals composites above a clip line growing from the top and
// keeps outlines below it.
func colorSweep(dst *image.RGBA, in FrameInput, tm config.Timing, frac float64) HandPose {
	b := dst.Bounds()
	size := b.Size()
	clipY := b.Min.Y + int(math.Round(float64(b.Dy())*frac))

	if clipY < b.Max.Y {
		p := newPen(dst, in.Settings, in.Camera)
		for i := range in.Items {
			outlineOrReveal(dst, p, &in.Items[i], in.Camera)
		}
	}
	if clipY > b.Min.Y {
		top := dst.SubImage(image.Rect(b.Min.X, b.Min.Y, b.Max.X, clipY)).(*image.RGBA)
		paper(top, in.Background)
		for i := range in.Items {
			blit(top, &in.Items[i], in.Camera, size)
		}
	}

	if clipY >= b.Max.Y {
		return HandPose{}
	}
	phase := frac * tm.HandFrequency * 2 * math.Pi
	angle := 0.0
	if math.Cos(phase) < 0 {
		angle = math.Pi
	}
	return HandPose{
		X:       float64(b.Min.X) + (0.5+math.Sin(phase)*tm.HandAmplitude)*float64(b.Dx()),
		Y:       float64(clipY),
		Angle:   angle,
		Visible: true,
	}
}

// outlineOrReveal strokes an item, or shows its composite when it has no paths.
func outlineOrReveal(dst *image.RGBA, p *pen, it *sketch.ProcessedItem, cam sketch.CameraState) {
	if len(it.Paths) == 0 {
		blit(dst, it, cam, image.Pt(p.w, p.h))
		return
	}
	p.outline(it)
}

// paper fills dst with the background at matching coordinates.
func paper(dst *image.RGBA, bg image.Image) {
	if bg == nil {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
		return
	}
	draw.Draw(dst, dst.Bounds(), bg, dst.Bounds().Min, draw.Src)
}

// blit composites the item's colour canvas through the camera.
func blit(dst *image.RGBA, it *sketch.ProcessedItem, cam sketch.CameraState, canvas image.Point) {
	if it.ColorCanvas == nil {
		return
	}
	src := it.ColorCanvas
	if cam.IsIdentity() {
		draw.Draw(dst, image.Rect(it.X, it.Y, it.X+src.Bounds().Dx(), it.Y+src.Bounds().Dy()), src, src.Bounds().Min, draw.Over)
		return
	}

	// canvas is the full frame size; dst may be a clipped part of it
	z := cam.Scale()
	tx, ty := cam.Apply(float64(it.X), float64(it.Y), canvas.X, canvas.Y)
	sb := src.Bounds()
	m := f64.Aff3{
		z, 0, tx - z*float64(sb.Min.X),
		0, z, ty - z*float64(sb.Min.Y),
	}
	xdraw.ApproxBiLinear.Transform(dst, m, src, sb, xdraw.Over, nil)
}

