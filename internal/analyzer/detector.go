package analyzer

import "image"

// EdgeMap is a binary edge mask with the gradient magnitude that produced it.
// Both slices are row-major with Width*Height entries.
type EdgeMap struct {
	Width     int
	Height    int
	Edge      []bool
	Magnitude []float64
}

// At reports whether (x, y) is an edge pixel. Out-of-range coordinates are not.
func (m *EdgeMap) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Edge[y*m.Width+x]
}

// MagnitudeAt returns the gradient magnitude at (x, y).
func (m *EdgeMap) MagnitudeAt(x, y int) float64 {
	return m.Magnitude[y*m.Width+x]
}

// Count returns the number of edge pixels.
func (m *EdgeMap) Count() int {
	n := 0
	for _, e := range m.Edge {
		if e {
			n++
		}
	}
	return n
}

// Detector is the interface for edge extraction strategies
type Detector interface {
	Detect(img image.Image, sensitivity float64) (*EdgeMap, error)
}
