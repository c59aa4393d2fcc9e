package analyze

import (
	"sort"
)

// Point is one sweep result: X is the swept parameter, Y the throughput.
type Point struct {
	X float64
	Y float64
}

// FindKnee implements the Kneedle algorithm to find the point of maximum curvature.
// It assumes the curve is concave (increasing but flattening out, like a typical saturation curve),
// which is what throughput against queue depth usually looks like.
func FindKnee(points []Point) Point {
	if len(points) < 3 {
		if len(points) > 0 {
			return points[len(points)-1]
		}
		return Point{}
	}

	// Sort a copy by X; callers keep their sweep order.
	sorted := append([]Point(nil), points...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].X < sorted[j].X
	})

	// Normalize to [0, 1]
	minX, maxX := sorted[0].X, sorted[len(sorted)-1].X
	minY, maxY := sorted[0].Y, sorted[0].Y
	for _, p := range sorted {
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	if maxX == minX || maxY == minY {
		return sorted[len(sorted)-1]
	}

	// The diagonal between the normalized end points is y = x; the knee is
	// the point furthest above it.
	maxDist := -1.0
	var knee Point
	for _, p := range sorted {
		xNorm := (p.X - minX) / (maxX - minX)
		yNorm := (p.Y - minY) / (maxY - minY)
		dist := yNorm - xNorm
		if dist > maxDist {
			maxDist = dist
			knee = p
		}
	}

	return knee
}
