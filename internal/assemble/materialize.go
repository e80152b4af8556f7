package assemble

import (
	"github.com/paulmach/orb"

	"github.com/mgolesberg/osm-railway-conversion/internal/model"
	"github.com/mgolesberg/osm-railway-conversion/internal/nodeindex"
)

// MaterializeStats reports how a batch of ways materialized
type MaterializeStats struct {
	Lines        int // ways that became LineStrings
	Points       int // ways that resolved to a single coordinate
	Unresolved   int // ways with no resolvable coordinates at all
	SkippedNodes int // node references dropped for lack of a coordinate
}

// Materialize resolves a way's ordered node references into a geometry:
// no resolved coordinates leaves the geometry absent, exactly one yields a
// Point, two or more yield a LineString over the resolved subset in
// original order. Interior gaps collapse rather than splitting the way;
// this is a deliberate approximation, not an error.
func Materialize(w *model.Way, resolver *nodeindex.Resolver) orb.Geometry {
	points := make([]orb.Point, 0, len(w.NodeIDs))
	for _, id := range w.NodeIDs {
		if p, ok := resolver.Resolve(id); ok {
			points = append(points, p)
		}
	}

	switch len(points) {
	case 0:
		return nil
	case 1:
		return points[0]
	default:
		return orb.LineString(points)
	}
}

// MaterializeAll populates geometry on every way in place and returns
// aggregate counts for reporting. Missing node references degrade the
// individual way; they never fail the batch.
func MaterializeAll(ways []*model.Way, resolver *nodeindex.Resolver) MaterializeStats {
	var stats MaterializeStats
	for _, w := range ways {
		geom := Materialize(w, resolver)
		w.Geometry = geom

		switch g := geom.(type) {
		case nil:
			stats.Unresolved++
			stats.SkippedNodes += len(w.NodeIDs)
		case orb.Point:
			stats.Points++
			stats.SkippedNodes += len(w.NodeIDs) - 1
		case orb.LineString:
			stats.Lines++
			stats.SkippedNodes += len(w.NodeIDs) - len(g)
		}
	}
	return stats
}
