package assemble

import (
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/mgolesberg/osm-railway-conversion/internal/logger"
	"github.com/mgolesberg/osm-railway-conversion/internal/model"
)

// RouteKind classifies the outcome of assembling one relation
type RouteKind int

const (
	// RouteAbsent means no member way had a usable line geometry
	RouteAbsent RouteKind = iota
	// RouteMerged means the member lines were merged into strands
	RouteMerged
	// RouteFallback means the merge failed and the member lines are passed
	// through unconnected, in member order
	RouteFallback
)

// RouteResult is the assembled geometry for one relation
type RouteResult struct {
	Kind     RouteKind
	Geometry orb.Geometry // LineString or MultiLineString; nil when absent
	Strands  int
}

// Stats holds assembly counts across a run
type Stats struct {
	Relations  int // relations processed
	Merged     int // relations whose members merged cleanly
	Fallback   int // relations emitted via the unmerged fallback
	Absent     int // relations with no usable member geometry
	Standalone int // ways emitted as standalone features
}

// Assembler merges relation member ways into continuous polylines and
// tracks which ways any relation consumed. The way lookup is read-only
// after construction; Assemble is safe to call from concurrent workers.
type Assembler struct {
	ways  map[int64]*model.Way
	order []int64 // way ids in input order, for deterministic standalone output

	mu       sync.Mutex
	consumed map[int64]struct{}
	stats    Stats
}

// NewAssembler creates an assembler over materialized ways
func NewAssembler(ways []*model.Way) *Assembler {
	lookup := make(map[int64]*model.Way, len(ways))
	order := make([]int64, 0, len(ways))
	for _, w := range ways {
		if _, dup := lookup[w.ID]; !dup {
			order = append(order, w.ID)
		}
		lookup[w.ID] = w
	}
	return &Assembler{
		ways:     lookup,
		order:    order,
		consumed: make(map[int64]struct{}),
	}
}

// AssembleRoute merges the relation's qualifying member lines.
// Qualifying members are way-typed references whose materialized geometry
// is a LineString with at least 2 points; point-only and unresolved ways
// are excluded. With zero qualifying members the result is absent.
func (a *Assembler) AssembleRoute(rel *model.Relation) RouteResult {
	var lines []orb.LineString
	for _, m := range rel.Members {
		if m.Type != "way" {
			continue
		}
		w, ok := a.ways[m.Ref]
		if !ok {
			continue
		}
		if line, ok := w.Geometry.(orb.LineString); ok && len(line) >= 2 {
			lines = append(lines, line)
		}
	}

	if len(lines) == 0 {
		return RouteResult{Kind: RouteAbsent}
	}

	strands, err := MergeLines(lines)
	if err != nil || len(strands) == 0 {
		// Error boundary of the merge: pass the member lines through
		// unconnected. This path cannot fail.
		logger.Get().Warn("line merge failed, keeping unmerged member lines",
			zap.Int64("relation_id", rel.ID),
			zap.Int("member_lines", len(lines)),
			zap.Error(err))

		fallback := make(orb.MultiLineString, len(lines))
		copy(fallback, lines)
		return RouteResult{Kind: RouteFallback, Geometry: fallback, Strands: len(lines)}
	}

	if len(strands) == 1 {
		return RouteResult{Kind: RouteMerged, Geometry: strands[0], Strands: 1}
	}
	return RouteResult{Kind: RouteMerged, Geometry: orb.MultiLineString(strands), Strands: len(strands)}
}

// Assemble produces the output feature for one relation, or nil when the
// relation has no usable member geometry. Ways referenced by the relation
// and present in the working set are recorded as consumed.
func (a *Assembler) Assemble(rel *model.Relation) *geojson.Feature {
	result := a.AssembleRoute(rel)

	a.mu.Lock()
	a.stats.Relations++
	switch result.Kind {
	case RouteAbsent:
		a.stats.Absent++
	case RouteMerged:
		a.stats.Merged++
	case RouteFallback:
		a.stats.Fallback++
	}
	if result.Kind != RouteAbsent {
		for _, m := range rel.Members {
			if _, ok := a.ways[m.Ref]; ok {
				a.consumed[m.Ref] = struct{}{}
			}
		}
	}
	a.mu.Unlock()

	if result.Kind == RouteAbsent {
		return nil
	}

	f := rel.Feature()
	f.Geometry = result.Geometry
	f.Properties["combined_way_count"] = len(rel.Members)
	f.Properties["geometry_type"] = result.Geometry.GeoJSONType()
	f.Properties["source"] = model.SourceRelation
	return f
}

// StandaloneFeatures emits the complement of the consumed set: every way
// never used by any relation becomes its own single-LineString feature.
// Ways without a usable line geometry are dropped.
func (a *Assembler) StandaloneFeatures() []*geojson.Feature {
	a.mu.Lock()
	defer a.mu.Unlock()

	var features []*geojson.Feature
	for _, id := range a.order {
		if _, ok := a.consumed[id]; ok {
			continue
		}
		w := a.ways[id]
		line, ok := w.Geometry.(orb.LineString)
		if !ok || len(line) < 2 {
			continue
		}

		f := w.Feature()
		f.Properties["source"] = model.SourceStandaloneWay
		f.Properties["geometry_type"] = line.GeoJSONType()
		f.Properties["combined_way_count"] = 1
		features = append(features, f)
		a.stats.Standalone++
	}
	return features
}

// ConsumedCount returns how many distinct ways relations consumed
func (a *Assembler) ConsumedCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.consumed)
}

// Stats returns a snapshot of the assembly counts
func (a *Assembler) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}
