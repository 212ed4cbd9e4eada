package renderer

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ProcessingLabel is shown while items are being recomputed.
const ProcessingLabel = "processing..."

// RenderProcessing draws the placeholder shown instead of stale geometry.
func RenderProcessing(dst *image.RGBA, bg image.Image) {
	paper(dst, bg)

	b := dst.Bounds()
	face := basicfont.Face7x13
	tw := font.MeasureString(face, ProcessingLabel).Ceil()
	bandH := face.Metrics().Height.Ceil() * 3
	band := image.Rect(b.Min.X, b.Min.Y+(b.Dy()-bandH)/2, b.Max.X, b.Min.Y+(b.Dy()+bandH)/2)
	draw.Draw(dst, band, image.NewUniform(color.RGBA{A: 96}), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(b.Min.X + (b.Dx()-tw)/2),
			Y: fixed.I(band.Min.Y+(bandH+face.Metrics().Ascent.Ceil())/2),
		},
	}
	d.DrawString(ProcessingLabel)
}
