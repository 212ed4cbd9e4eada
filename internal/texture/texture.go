// Package texture builds the paper background drawn under every frame.
package texture

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"math/rand"
	"sync"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/sketch2video/internal/config"
)

// seed keeps regenerated textures identical for identical parameters.
const seed = 20240613

// foldCount is the number of crease lines on crumpled paper.
const foldCount = 7

type key struct {
	w, h      int
	paper     color.RGBA
	kind      config.TextureKind
	intensity float64
}

// Generator caches the most recent background. Regeneration happens only when
// size, paper colour, texture kind or intensity change.
type Generator struct {
	mu     sync.Mutex
	key    key
	cached *image.RGBA
	builds int
}

// Background returns the paper raster for the given parameters. The returned
// image is shared and must not be modified.
func (g *Generator) Background(w, h int, paper color.RGBA, kind config.TextureKind, intensity float64) *image.RGBA {
	k := key{w: w, h: h, paper: paper, kind: kind, intensity: intensity}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cached != nil && g.key == k {
		return g.cached
	}
	g.cached = Generate(w, h, paper, kind, intensity)
	g.key = k
	g.builds++
	return g.cached
}

// Builds reports how many times the background was regenerated.
func (g *Generator) Builds() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.builds
}

// Generate builds a background without caching.
func Generate(w, h int, paper color.RGBA, kind config.TextureKind, intensity float64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(paper), image.Point{}, draw.Src)
	if w == 0 || h == 0 {
		return img
	}

	r := rand.New(rand.NewSource(seed))
	switch kind {
	case config.TextureGrain:
		grain(img, r, intensity)
	case config.TextureCrumpled:
		grain(img, r, intensity)
		folds(img, r, intensity)
		vignette(img, intensity)
	}
	return img
}

// grain scatters low-alpha dark specks, more of them at higher intensity.
func grain(img *image.RGBA, r *rand.Rand, intensity float64) {
	b := img.Bounds()
	n := int(float64(b.Dx()*b.Dy()) * 0.08 * intensity)
	for i := 0; i < n; i++ {
		x, y := r.Intn(b.Dx()), r.Intn(b.Dy())
		a := uint8(8 + r.Intn(24))
		blend(img, x, y, color.RGBA{A: a})
	}
}

// folds draws crease lines: a soft dark shadow with a thin highlight beside it.
func folds(img *image.RGBA, r *rand.Rand, intensity float64) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	scanner := rasterx.NewScannerGV(w, h, img, b)
	dasher := rasterx.NewDasher(w, h, scanner)

	diag := math.Hypot(float64(w), float64(h))
	for i := 0; i < foldCount; i++ {
		x0, y0 := r.Float64()*float64(w), r.Float64()*float64(h)
		angle := r.Float64() * math.Pi
		length := diag * (0.3 + 0.5*r.Float64())
		dx, dy := math.Cos(angle)*length/2, math.Sin(angle)*length/2

		// shading falls off across the crease in three widening passes
		for pass := 3; pass >= 1; pass-- {
			alpha := uint8(math.Min(255, 40*intensity/float64(pass)))
			stroke(dasher, x0-dx, y0-dy, x0+dx, y0+dy, float64(pass)*2.5, color.RGBA{A: alpha})
		}
		hi := uint8(math.Min(255, 90*intensity))
		stroke(dasher, x0-dx+1.5, y0-dy+1.5, x0+dx+1.5, y0+dy+1.5, 1, color.RGBA{R: hi, G: hi, B: hi, A: hi})
	}
}

func stroke(d *rasterx.Dasher, x0, y0, x1, y1, width float64, c color.Color) {
	d.Clear()
	d.SetStroke(fixed.Int26_6(width*64), 0, rasterx.RoundCap, rasterx.RoundCap, rasterx.RoundGap, rasterx.ArcClip, nil, 0)
	d.SetColor(c)
	d.Start(rasterx.ToFixedP(x0, y0))
	d.Line(rasterx.ToFixedP(x1, y1))
	d.Stop(false)
	d.Draw()
}

// vignette darkens towards the corners.
func vignette(img *image.RGBA, intensity float64) {
	b := img.Bounds()
	cx, cy := float64(b.Dx())/2, float64(b.Dy())/2
	maxD := math.Hypot(cx, cy)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy) / maxD
			if d < 0.5 {
				continue
			}
			a := uint8(math.Min(255, (d-0.5)*2*90*intensity))
			blend(img, x, y, color.RGBA{A: a})
		}
	}
}

// blend composites a premultiplied colour over one pixel.
func blend(img *image.RGBA, x, y int, c color.RGBA) {
	i := img.PixOffset(x, y)
	p := img.Pix[i : i+4 : i+4]
	inv := 255 - uint32(c.A)
	p[0] = uint8(uint32(c.R) + uint32(p[0])*inv/255)
	p[1] = uint8(uint32(c.G) + uint32(p[1])*inv/255)
	p[2] = uint8(uint32(c.B) + uint32(p[2])*inv/255)
	p[3] = uint8(uint32(c.A) + uint32(p[3])*inv/255)
}
