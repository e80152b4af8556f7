package extract

import (
	"testing"

	"github.com/paulmach/osm"

	"github.com/mgolesberg/osm-railway-conversion/internal/config"
)

func railNode(id int64, lon, lat float64) *osm.Node {
	return &osm.Node{
		ID:   osm.NodeID(id),
		Lon:  lon,
		Lat:  lat,
		Tags: osm.Tags{{Key: "railway", Value: "station"}},
	}
}

func TestApplySelectsRailwayElements(t *testing.T) {
	cfg := config.DefaultConfig()
	e := NewExtractor(cfg, nil)

	ds := &Dataset{}
	var c counters

	elements := []osm.Object{
		railNode(1, 113.2, 23.1),
		&osm.Node{ID: 2, Lon: 113.3, Lat: 23.2}, // untagged, skipped
		&osm.Node{ID: 3, Lon: 113.4, Lat: 23.3, Tags: osm.Tags{{Key: "highway", Value: "crossing"}}},
		&osm.Way{
			ID:    10,
			Nodes: osm.WayNodes{{ID: 100}, {ID: 101}, {ID: 102}},
			Tags:  osm.Tags{{Key: "railway", Value: "rail"}},
		},
		&osm.Way{ID: 11, Tags: osm.Tags{{Key: "highway", Value: "primary"}}},
		&osm.Relation{
			ID: 20,
			Members: osm.Members{
				{Type: osm.TypeWay, Ref: 10, Role: ""},
				{Type: osm.TypeNode, Ref: 1, Role: "stop"},
			},
			Tags: osm.Tags{{Key: "type", Value: "route"}, {Key: "route", Value: "railway"}},
		},
	}
	for _, el := range elements {
		e.apply(el, ds, &c)
	}

	if len(ds.NodeFeatures) != 1 {
		t.Fatalf("got %d node features, want 1", len(ds.NodeFeatures))
	}
	if got := ds.NodeFeatures[0].Properties["osm_id"]; got != int64(1) {
		t.Errorf("node feature osm_id = %v, want 1", got)
	}

	if len(ds.Ways) != 1 {
		t.Fatalf("got %d ways, want 1", len(ds.Ways))
	}
	w := ds.Ways[0]
	if w.ID != 10 || len(w.NodeIDs) != 3 || w.NodeIDs[0] != 100 {
		t.Errorf("way record = %+v, want id 10 with node ids [100 101 102]", w)
	}

	if len(ds.Relations) != 1 {
		t.Fatalf("got %d relations, want 1", len(ds.Relations))
	}
	r := ds.Relations[0]
	if r.ID != 20 || len(r.Members) != 2 {
		t.Fatalf("relation record = %+v, want id 20 with 2 members", r)
	}
	if r.Members[1].Type != "node" || r.Members[1].Role != "stop" {
		t.Errorf("member 1 = %+v, want node/stop", r.Members[1])
	}

	stats := c.snapshot()
	if stats.RailwayNodes != 1 || stats.RailwayWays != 1 || stats.RailwayRelations != 1 {
		t.Errorf("counters = %+v, want 1 of each element type", stats)
	}
}

func TestApplyBBoxFilter(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BBox = &config.BBox{MinLon: 113.0, MinLat: 22.5, MaxLon: 114.0, MaxLat: 23.5, IsSet: true}
	e := NewExtractor(cfg, nil)

	ds := &Dataset{}
	var c counters

	e.apply(railNode(1, 113.2, 23.1), ds, &c) // inside
	e.apply(railNode(2, 120.0, 30.0), ds, &c) // outside

	if len(ds.NodeFeatures) != 1 {
		t.Fatalf("got %d node features, want 1 (bbox must exclude the second)", len(ds.NodeFeatures))
	}
	if c.snapshot().RailwayNodes != 1 {
		t.Errorf("RailwayNodes = %d, want 1", c.snapshot().RailwayNodes)
	}
}

func TestApplySkipFlags(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SkipNodes = true
	cfg.SkipWays = true
	cfg.SkipRelations = true
	e := NewExtractor(cfg, nil)

	ds := &Dataset{}
	var c counters

	e.apply(railNode(1, 113.2, 23.1), ds, &c)
	e.apply(&osm.Way{ID: 10, Tags: osm.Tags{{Key: "railway", Value: "rail"}}}, ds, &c)
	e.apply(&osm.Relation{ID: 20, Tags: osm.Tags{{Key: "railway", Value: "yard"}}}, ds, &c)

	if len(ds.NodeFeatures) != 0 || len(ds.Ways) != 0 || len(ds.Relations) != 0 {
		t.Errorf("dataset = %d/%d/%d elements, want all skipped",
			len(ds.NodeFeatures), len(ds.Ways), len(ds.Relations))
	}
	if s := c.snapshot(); s.RailwayNodes != 0 || s.RailwayWays != 0 || s.RailwayRelations != 0 {
		t.Errorf("counters = %+v, want zero", s)
	}
}
