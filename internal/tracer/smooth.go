package tracer

import "github.com/ivlev/sketch2video/internal/sketch"

// Smooth applies a 5-point moving average to the interior of points and blends
// the result with the original by amount in [0,1]. Endpoints are kept and the
// point count never changes.
func Smooth(points []sketch.Point, amount float64) []sketch.Point {
	out := make([]sketch.Point, len(points))
	copy(out, points)
	if amount <= 0 || len(points) < 3 {
		return out
	}
	if amount > 1 {
		amount = 1
	}

	n := len(points)
	for i := 1; i < n-1; i++ {
		// window shrinks near the ends so it stays centred
		r := 2
		if i < r {
			r = i
		}
		if n-1-i < r {
			r = n - 1 - i
		}

		var sx, sy float64
		for j := i - r; j <= i+r; j++ {
			sx += points[j].X
			sy += points[j].Y
		}
		k := float64(2*r + 1)
		out[i] = sketch.Point{
			X: points[i].X + (sx/k-points[i].X)*amount,
			Y: points[i].Y + (sy/k-points[i].Y)*amount,
		}
	}
	return out
}

// SmoothPaths returns new paths with Smooth applied to each.
func SmoothPaths(paths []sketch.Path, amount float64) []sketch.Path {
	out := make([]sketch.Path, len(paths))
	for i, p := range paths {
		out[i] = sketch.Path{Points: Smooth(p.Points, amount), Strength: p.Strength}
	}
	return out
}
