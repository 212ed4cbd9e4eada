package processor

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/ivlev/sketch2video/internal/sketch"
)

// ItemMargin is the transparent border around every item raster. Sobel skips
// border pixels, so without it an image filling its box would lose its outline.
const ItemMargin = 4

// MaxCanvasPixels bounds a single item raster.
const MaxCanvasPixels = 64 << 20

var (
	ErrNoImage        = errors.New("layer has no image")
	ErrEmptyBounds    = errors.New("item has empty bounds")
	ErrCanvasTooLarge = errors.New("item raster too large")
)

// newCanvas allocates an item raster, refusing sizes we cannot back.
func newCanvas(w, h int) (*image.RGBA, error) {
	if w <= 0 || h <= 0 {
		return nil, ErrEmptyBounds
	}
	if w*h > MaxCanvasPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrCanvasTooLarge, w, h)
	}
	return image.NewRGBA(image.Rect(0, 0, w, h)), nil
}

// RasterizeLayer renders the layer alone with rotation, signed scale and
// opacity applied about the centre of its box. It returns the raster and its
// top-left position on the project canvas.
func RasterizeLayer(l sketch.ImageLayer) (*image.RGBA, image.Point, error) {
	if l.Image == nil {
		return nil, image.Point{}, ErrNoImage
	}
	sb := l.Image.Bounds()
	sw, sh := float64(sb.Dx()), float64(sb.Dy())
	if sw == 0 || sh == 0 {
		return nil, image.Point{}, ErrEmptyBounds
	}

	w, h := l.Width, l.Height
	if w <= 0 {
		w = sw
	}
	if h <= 0 {
		h = sh
	}
	sx, sy := orOne(l.ScaleX), orOne(l.ScaleY)
	cx, cy := l.X+w/2, l.Y+h/2

	theta := l.Rotation * math.Pi / 180
	cos, sin := math.Cos(theta), math.Sin(theta)
	halfW, halfH := w*math.Abs(sx)/2, h*math.Abs(sy)/2
	ex := math.Abs(halfW*cos) + math.Abs(halfH*sin)
	ey := math.Abs(halfW*sin) + math.Abs(halfH*cos)

	minX := int(math.Floor(cx-ex)) - ItemMargin
	minY := int(math.Floor(cy-ey)) - ItemMargin
	maxX := int(math.Ceil(cx+ex)) + ItemMargin
	maxY := int(math.Ceil(cy+ey)) + ItemMargin

	dst, err := newCanvas(maxX-minX, maxY-minY)
	if err != nil {
		return nil, image.Point{}, err
	}

	if l.Rotation == 0 && sx == 1 && sy == 1 && w == sw && h == sh {
		// untransformed: copy pixels exactly
		at := image.Pt(int(math.Round(l.X))-minX, int(math.Round(l.Y))-minY)
		draw.Draw(dst, image.Rectangle{Min: at, Max: at.Add(sb.Size())}, l.Image, sb.Min, draw.Over)
	} else {
		kx, ky := sx*w/sw, sy*h/sh
		a, b := cos*kx, -sin*ky
		d, e := sin*kx, cos*ky
		scx, scy := float64(sb.Min.X)+sw/2, float64(sb.Min.Y)+sh/2
		dcx, dcy := cx-float64(minX), cy-float64(minY)
		m := f64.Aff3{
			a, b, dcx - (a*scx + b*scy),
			d, e, dcy - (d*scx + e*scy),
		}
		xdraw.BiLinear.Transform(dst, m, l.Image, sb, xdraw.Over, nil)
	}

	if l.Opacity != nil {
		if op := math.Max(0, *l.Opacity); op < 1 {
			fade(dst, op)
		}
	}
	return dst, image.Pt(minX, minY), nil
}

// fade scales every premultiplied channel by alpha.
func fade(img *image.RGBA, alpha float64) {
	for i, v := range img.Pix {
		img.Pix[i] = uint8(float64(v)*alpha + 0.5)
	}
}

// downscale returns img reduced so its longer side is at most maxSide.
func downscale(img *image.RGBA, maxSide int) *image.RGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	side := w
	if h > side {
		side = h
	}
	if maxSide <= 0 || side <= maxSide {
		return img
	}

	scale := float64(maxSide) / float64(side)
	dw := int(math.Max(1, math.Round(float64(w)*scale)))
	dh := int(math.Max(1, math.Round(float64(h)*scale)))
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}

func orOne(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}
