package processor

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/sketch2video/internal/config"
	"github.com/ivlev/sketch2video/internal/sketch"
)

// lineSpacing is the line height as a multiple of the font size.
const lineSpacing = 1.2

var (
	fontsMu sync.Mutex
	fonts   = map[string]*opentype.Font{}
)

// fontFor picks a Go font for the family and style. Families other than
// monospace fall back to the proportional Go fonts.
func fontFor(family string, bold, italic bool) (*opentype.Font, error) {
	mono := strings.Contains(strings.ToLower(family), "mono")

	var name string
	var ttf []byte
	switch {
	case mono && bold && italic:
		name, ttf = "mono-bold-italic", gomonobolditalic.TTF
	case mono && bold:
		name, ttf = "mono-bold", gomonobold.TTF
	case mono && italic:
		name, ttf = "mono-italic", gomonoitalic.TTF
	case mono:
		name, ttf = "mono", gomono.TTF
	case bold && italic:
		name, ttf = "bold-italic", gobolditalic.TTF
	case bold:
		name, ttf = "bold", gobold.TTF
	case italic:
		name, ttf = "italic", goitalic.TTF
	default:
		name, ttf = "regular", goregular.TTF
	}

	fontsMu.Lock()
	defer fontsMu.Unlock()
	if f, ok := fonts[name]; ok {
		return f, nil
	}
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", name, err)
	}
	fonts[name] = f
	return f, nil
}

// RasterizeText renders a text element into its own raster and returns it
// with its top-left position on the project canvas.
func RasterizeText(t sketch.TextElement) (*image.RGBA, image.Point, error) {
	if strings.TrimSpace(t.Text) == "" {
		return nil, image.Point{}, ErrEmptyBounds
	}
	size := t.FontSize
	if size <= 0 {
		size = 32
	}

	f, err := fontFor(t.FontFamily, t.Bold, t.Italic)
	if err != nil {
		return nil, image.Point{}, err
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		return nil, image.Point{}, fmt.Errorf("font face: %w", err)
	}
	defer face.Close()

	lines := strings.Split(t.Text, "\n")
	widths := make([]int, len(lines))
	maxW := 0
	for i, line := range lines {
		widths[i] = font.MeasureString(face, line).Ceil()
		if widths[i] > maxW {
			maxW = widths[i]
		}
	}
	lineH := int(math.Ceil(size * lineSpacing))
	ascent := face.Metrics().Ascent.Ceil()

	dst, err := newCanvas(maxW+2*ItemMargin, lineH*len(lines)+2*ItemMargin)
	if err != nil {
		return nil, image.Point{}, err
	}

	col := config.MustColor(t.Color, color.RGBA{A: 255})
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(col), Face: face}
	for i, line := range lines {
		d.Dot = fixed.P(ItemMargin+alignOffset(t.Align, widths[i], maxW), ItemMargin+ascent+i*lineH)
		d.DrawString(line)
	}

	left := t.X
	switch t.Align {
	case "center":
		left = t.X - float64(maxW)/2
	case "right":
		left = t.X - float64(maxW)
	}
	pos := image.Pt(int(math.Round(left))-ItemMargin, int(math.Round(t.Y))-ItemMargin)
	return dst, pos, nil
}

func alignOffset(align string, width, maxW int) int {
	switch align {
	case "center":
		return (maxW - width) / 2
	case "right":
		return maxW - width
	default:
		return 0
	}
}
