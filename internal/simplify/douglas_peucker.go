// Package simplify implements topology-preserving Douglas-Peucker point
// reduction for planar line geometries. The two endpoints of a sequence are
// always retained and constituent lines of a MultiLineString are reduced
// independently.
package simplify

import (
	"math"

	"github.com/paulmach/orb"
)

// Line reduces a planar point sequence with the given tolerance (same unit
// as the coordinates). Sequences of fewer than 3 points cannot be
// simplified and are returned unchanged, as is any sequence the reduction
// would degrade below 2 points.
func Line(line orb.LineString, tolerance float64) orb.LineString {
	if len(line) < 3 {
		return line
	}

	reduced := douglasPeucker(line, tolerance)
	if len(reduced) < 2 {
		// No reduction possible; keep the original rather than emitting a
		// degenerate geometry
		return line
	}
	return reduced
}

// MultiLine reduces each constituent sequence independently
func MultiLine(ml orb.MultiLineString, tolerance float64) orb.MultiLineString {
	out := make(orb.MultiLineString, len(ml))
	for i, line := range ml {
		out[i] = Line(line, tolerance)
	}
	return out
}

// Geometry dispatches on geometry type. Non-line geometries pass through
// unchanged.
func Geometry(g orb.Geometry, tolerance float64) orb.Geometry {
	switch geom := g.(type) {
	case orb.LineString:
		return Line(geom, tolerance)
	case orb.MultiLineString:
		return MultiLine(geom, tolerance)
	default:
		return g
	}
}

// douglasPeucker recursively splits at the interior point with maximum
// perpendicular distance from the chord between the endpoints. Intervals
// whose maximum deviation is within tolerance collapse to their endpoints.
func douglasPeucker(line orb.LineString, tolerance float64) orb.LineString {
	if len(line) <= 2 {
		return line
	}

	end := len(line) - 1
	maxDist := 0.0
	maxIdx := 0
	for i := 1; i < end; i++ {
		if d := perpendicularDistance(line[i], line[0], line[end]); d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}

	if maxDist <= tolerance {
		return orb.LineString{line[0], line[end]}
	}

	left := douglasPeucker(line[:maxIdx+1], tolerance)
	right := douglasPeucker(line[maxIdx:], tolerance)

	// The split point ends both halves; drop its duplicate
	return append(left[:len(left):len(left)], right[1:]...)
}

// perpendicularDistance returns the distance from p to the infinite line
// through a and b, or to a when the chord is degenerate.
func perpendicularDistance(p, a, b orb.Point) float64 {
	dx := b[0] - a[0]
	dy := b[1] - a[1]

	length := math.Hypot(dx, dy)
	if length == 0 {
		return math.Hypot(p[0]-a[0], p[1]-a[1])
	}

	return math.Abs(dy*p[0]-dx*p[1]+b[0]*a[1]-b[1]*a[0]) / length
}
