// Package tracer turns an edge mask into ordered polylines.
package tracer

import (
	"github.com/ivlev/sketch2video/internal/analyzer"
	"github.com/ivlev/sketch2video/internal/sketch"
)

// neighbour offsets in walk priority: E, SE, S, SW, W, NW, N, NE
var neighbours = [8][2]int{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

// strengthScale maps mean gradient magnitude to path strength; a hard
// black/white step under Sobel is roughly 1020.
const strengthScale = 1020.0

// Trace walks the mask greedily. Each unvisited edge pixel found in row-major
// order starts a path that repeatedly steps to the first unvisited edge
// neighbour until none remains. The walk never backtracks, so results depend
// only on the mask. Paths shorter than sketch.MinPathPoints are dropped.
func Trace(m *analyzer.EdgeMap) []sketch.Path {
	w, h := m.Width, m.Height
	if w == 0 || h == 0 {
		return nil
	}
	visited := make([]bool, w*h)
	var paths []sketch.Path

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if !m.Edge[i] || visited[i] {
				continue
			}

			points, sum := walk(m, visited, x, y)
			if len(points) < sketch.MinPathPoints {
				continue
			}
			paths = append(paths, sketch.Path{
				Points:   normalize(points, w, h),
				Strength: strength(sum / float64(len(points))),
			})
		}
	}
	return paths
}

func walk(m *analyzer.EdgeMap, visited []bool, x, y int) ([][2]int, float64) {
	w := m.Width
	points := [][2]int{{x, y}}
	visited[y*w+x] = true
	sum := m.MagnitudeAt(x, y)

	for {
		moved := false
		for _, d := range neighbours {
			nx, ny := x+d[0], y+d[1]
			if !m.At(nx, ny) || visited[ny*w+nx] {
				continue
			}
			visited[ny*w+nx] = true
			x, y = nx, ny
			points = append(points, [2]int{x, y})
			sum += m.MagnitudeAt(x, y)
			moved = true
			break
		}
		if !moved {
			return points, sum
		}
	}
}

func normalize(points [][2]int, w, h int) []sketch.Point {
	out := make([]sketch.Point, len(points))
	for i, p := range points {
		out[i] = sketch.Point{X: float64(p[0]) / float64(w), Y: float64(p[1]) / float64(h)}
	}
	return out
}

func strength(mean float64) float64 {
	s := mean / strengthScale
	if s < 0.2 {
		return 0.2
	}
	if s > 1 {
		return 1
	}
	return s
}
