package analyzer

import (
	"image"
	"image/draw"
	"math"
)

// TransparentAlpha is the alpha below which a pixel counts as background.
const TransparentAlpha = 10

var (
	kernelX = [9]float64{-1, 0, 1, -2, 0, 2, -1, 0, 1}
	kernelY = [9]float64{-1, -2, -1, 0, 0, 0, 1, 2, 1}
)

// SobelDetector finds edges with a Sobel gradient, thins them with
// non-maximum suppression along the quantized gradient direction and keeps
// pixels whose magnitude reaches Threshold(sensitivity).
type SobelDetector struct {
	// Suppress enables non-maximum suppression. Without it edges are two
	// pixels wide along every boundary.
	Suppress bool
}

// NewSobelDetector creates a detector with non-maximum suppression enabled
func NewSobelDetector() *SobelDetector {
	return &SobelDetector{Suppress: true}
}

// Threshold maps edge sensitivity in [0,1] to a magnitude threshold.
// Higher sensitivity gives a lower threshold and keeps more edges.
func Threshold(sensitivity float64) float64 {
	return 120 - sensitivity*100
}

// Detect runs the full extraction on img.
func (d *SobelDetector) Detect(img image.Image, sensitivity float64) (*EdgeMap, error) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	gray := Luminance(img)
	mag, dir := sobel(gray, w, h)
	if d.Suppress {
		mag = suppress(mag, dir, w, h)
	}

	threshold := Threshold(sensitivity)
	m := &EdgeMap{
		Width:     w,
		Height:    h,
		Edge:      make([]bool, w*h),
		Magnitude: mag,
	}
	for i, v := range mag {
		if v > 0 && v >= threshold {
			m.Edge[i] = true
		}
	}
	return m, nil
}

// Luminance converts img to a row-major gray field using 0.299R+0.587G+0.114B
// on straight (non-premultiplied) colour. Nearly transparent pixels read as
// white so they never form edges.
func Luminance(img image.Image) []float64 {
	b := img.Bounds()
	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Rect.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	}

	w, h := b.Dx(), b.Dy()
	gray := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := nrgba.Pix[y*nrgba.Stride:]
		for x := 0; x < w; x++ {
			p := row[x*4 : x*4+4]
			if p[3] < TransparentAlpha {
				gray[y*w+x] = 255
				continue
			}
			gray[y*w+x] = 0.299*float64(p[0]) + 0.587*float64(p[1]) + 0.114*float64(p[2])
		}
	}
	return gray
}

// direction buckets for the quantized gradient angle
const (
	dir0 uint8 = iota
	dir45
	dir90
	dir135
)

// sobel returns gradient magnitude and quantized direction for interior pixels.
// Border pixels keep magnitude 0.
func sobel(gray []float64, w, h int) ([]float64, []uint8) {
	mag := make([]float64, w*h)
	dir := make([]uint8, w*h)

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			var gx, gy float64
			k := 0
			for ky := -1; ky <= 1; ky++ {
				row := (y + ky) * w
				for kx := -1; kx <= 1; kx++ {
					v := gray[row+x+kx]
					gx += v * kernelX[k]
					gy += v * kernelY[k]
					k++
				}
			}

			i := y*w + x
			mag[i] = math.Sqrt(gx*gx + gy*gy)
			dir[i] = quantize(gx, gy)
		}
	}
	return mag, dir
}

func quantize(gx, gy float64) uint8 {
	angle := math.Atan2(gy, gx) * 180 / math.Pi
	if angle < 0 {
		angle += 180
	}
	switch {
	case angle < 22.5 || angle >= 157.5:
		return dir0
	case angle < 67.5:
		return dir45
	case angle < 112.5:
		return dir90
	default:
		return dir135
	}
}

// suppress keeps a pixel only when it is a local maximum along its gradient.
// Ties are broken towards the positive neighbour so flat two-pixel ridges
// collapse to a single pixel.
func suppress(mag []float64, dir []uint8, w, h int) []float64 {
	out := make([]float64, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			m := mag[i]
			if m == 0 {
				continue
			}

			var before, after float64
			switch dir[i] {
			case dir0:
				before, after = mag[i-1], mag[i+1]
			case dir90:
				before, after = mag[i-w], mag[i+w]
			case dir45:
				before, after = mag[i-w-1], mag[i+w+1]
			case dir135:
				before, after = mag[i+w-1], mag[i-w+1]
			}

			if m >= before && m > after {
				out[i] = m
			}
		}
	}
	return out
}
