// Package organizer decides the order in which traced paths are drawn.
package organizer

import (
	"sort"

	"github.com/ivlev/sketch2video/internal/config"
	"github.com/ivlev/sketch2video/internal/sketch"
)

const (
	// columnWeight folds x into the top-to-bottom key so rows win over columns.
	columnWeight = 0.1
	// clusterPadding grows path bounds before the overlap test, in normalized units.
	clusterPadding = 0.05
	// clusterRowWeight scales cluster centre y against x in the cluster key.
	clusterRowWeight = 5
)

// Organize returns paths in drawing order for the given policy. The input
// slice is not modified.
func Organize(paths []sketch.Path, order config.DrawingOrder) []sketch.Path {
	out := make([]sketch.Path, len(paths))
	copy(out, paths)

	switch order {
	case config.OrderRandom:
		// trace-scan order is already arbitrary
		return out
	case config.OrderSmartFlow:
		return SmartFlow(out)
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return readingKey(out[i].First()) < readingKey(out[j].First())
		})
		return out
	}
}

func readingKey(p sketch.Point) float64 {
	return p.Y + p.X*columnWeight
}

// Rect is an axis-aligned box in normalized coordinates.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// BoundsOf returns the bounding box of a path.
func BoundsOf(p sketch.Path) Rect {
	r := Rect{MinX: p.Points[0].X, MinY: p.Points[0].Y, MaxX: p.Points[0].X, MaxY: p.Points[0].Y}
	for _, pt := range p.Points[1:] {
		r = r.extend(pt.X, pt.Y)
	}
	return r
}

func (r Rect) extend(x, y float64) Rect {
	if x < r.MinX {
		r.MinX = x
	}
	if x > r.MaxX {
		r.MaxX = x
	}
	if y < r.MinY {
		r.MinY = y
	}
	if y > r.MaxY {
		r.MaxY = y
	}
	return r
}

func (r Rect) union(o Rect) Rect {
	return r.extend(o.MinX, o.MinY).extend(o.MaxX, o.MaxY)
}

func (r Rect) pad(d float64) Rect {
	return Rect{MinX: r.MinX - d, MinY: r.MinY - d, MaxX: r.MaxX + d, MaxY: r.MaxY + d}
}

func (r Rect) overlaps(o Rect) bool {
	return r.MinX <= o.MaxX && o.MinX <= r.MaxX && r.MinY <= o.MaxY && o.MinY <= r.MaxY
}

// Center returns the centre of the box.
func (r Rect) Center() sketch.Point {
	return sketch.Point{X: (r.MinX + r.MaxX) / 2, Y: (r.MinY + r.MaxY) / 2}
}

// ClusterKey orders clusters row first.
func ClusterKey(c sketch.Point) float64 {
	return c.Y*clusterRowWeight + c.X
}

type cluster struct {
	members []int
	bounds  Rect
}

// SmartFlow groups paths whose padded bounds overlap into clusters, orders the
// clusters by ClusterKey and chains paths inside each cluster by nearest start
// point, beginning with the topmost path.
func SmartFlow(paths []sketch.Path) []sketch.Path {
	if len(paths) < 2 {
		return paths
	}

	bounds := make([]Rect, len(paths))
	padded := make([]Rect, len(paths))
	for i, p := range paths {
		bounds[i] = BoundsOf(p)
		padded[i] = bounds[i].pad(clusterPadding)
	}

	clusters := findClusters(bounds, padded)
	sort.SliceStable(clusters, func(i, j int) bool {
		return ClusterKey(clusters[i].bounds.Center()) < ClusterKey(clusters[j].bounds.Center())
	})

	out := make([]sketch.Path, 0, len(paths))
	for _, c := range clusters {
		for _, idx := range chain(paths, bounds, c.members) {
			out = append(out, paths[idx])
		}
	}
	return out
}

// findClusters does a breadth-first union over pairwise padded-bounds overlaps.
func findClusters(bounds, padded []Rect) []cluster {
	assigned := make([]bool, len(bounds))
	var clusters []cluster

	for start := range bounds {
		if assigned[start] {
			continue
		}
		assigned[start] = true
		c := cluster{bounds: bounds[start]}
		queue := []int{start}

		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			c.members = append(c.members, cur)
			c.bounds = c.bounds.union(bounds[cur])

			for j := range bounds {
				if !assigned[j] && padded[cur].overlaps(padded[j]) {
					assigned[j] = true
					queue = append(queue, j)
				}
			}
		}
		sort.Ints(c.members)
		clusters = append(clusters, c)
	}
	return clusters
}

// chain orders cluster members greedily: start at the topmost path, then keep
// jumping to the unvisited path whose start is nearest the current end.
func chain(paths []sketch.Path, bounds []Rect, members []int) []int {
	remaining := make([]int, len(members))
	copy(remaining, members)

	top := 0
	for i, idx := range remaining {
		if bounds[idx].MinY < bounds[remaining[top]].MinY {
			top = i
		}
	}

	order := make([]int, 0, len(members))
	cur := remaining[top]
	remaining = append(remaining[:top], remaining[top+1:]...)
	order = append(order, cur)

	for len(remaining) > 0 {
		end := paths[cur].Last()
		best, bestDist := 0, -1.0
		for i, idx := range remaining {
			s := paths[idx].First()
			d := (s.X-end.X)*(s.X-end.X) + (s.Y-end.Y)*(s.Y-end.Y)
			if bestDist < 0 || d < bestDist {
				best, bestDist = i, d
			}
		}
		cur = remaining[best]
		remaining = append(remaining[:best], remaining[best+1:]...)
		order = append(order, cur)
	}
	return order
}
