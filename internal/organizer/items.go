package organizer

import (
	"sort"

	"github.com/ivlev/sketch2video/internal/config"
	"github.com/ivlev/sketch2video/internal/sketch"
)

// OrderItems orders processed items on the canvas with the same policy used
// for their paths, comparing positions in canvas pixels. Items without paths
// sort by their top-left corner. Random keeps the input order.
func OrderItems(items []sketch.ProcessedItem, order config.DrawingOrder, canvasW, canvasH int) []sketch.ProcessedItem {
	out := make([]sketch.ProcessedItem, len(items))
	copy(out, items)
	if order == config.OrderRandom || len(out) < 2 {
		return out
	}

	keys := make([]float64, len(out))
	for i := range out {
		keys[i] = itemKey(&out[i], order, canvasW, canvasH)
	}

	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return keys[idx[a]] < keys[idx[b]] })

	sorted := make([]sketch.ProcessedItem, len(out))
	for i, j := range idx {
		sorted[i] = out[j]
	}
	return sorted
}

func itemKey(it *sketch.ProcessedItem, order config.DrawingOrder, canvasW, canvasH int) float64 {
	toCanvas := func(p sketch.Point) sketch.Point {
		return sketch.Point{
			X: (float64(it.X) + p.X*float64(it.Width)) / float64(canvasW),
			Y: (float64(it.Y) + p.Y*float64(it.Height)) / float64(canvasH),
		}
	}

	if len(it.Paths) == 0 {
		p := toCanvas(sketch.Point{})
		if order == config.OrderSmartFlow {
			return ClusterKey(p)
		}
		return readingKey(p)
	}

	if order == config.OrderSmartFlow {
		r := BoundsOf(it.Paths[0])
		for _, p := range it.Paths[1:] {
			r = r.union(BoundsOf(p))
		}
		return ClusterKey(toCanvas(r.Center()))
	}
	return readingKey(toCanvas(it.Paths[0].First()))
}
