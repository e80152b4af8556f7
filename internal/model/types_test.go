package model

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func TestWayFeatureRoundTrip(t *testing.T) {
	w := &Way{
		ID:      123,
		NodeIDs: []int64{10, 11, 12},
		Tags:    map[string]string{"railway": "rail", "name": "Main Line"},
	}

	// Encode, serialize and decode as a downstream reader would
	data, err := json.Marshal(w.Feature())
	if err != nil {
		t.Fatal(err)
	}
	f, err := geojson.UnmarshalFeature(data)
	if err != nil {
		t.Fatal(err)
	}

	got, err := WayFromFeature(f)
	if err != nil {
		t.Fatalf("WayFromFeature returned error: %v", err)
	}
	if got.ID != 123 {
		t.Errorf("ID = %d, want 123", got.ID)
	}
	if len(got.NodeIDs) != 3 || got.NodeIDs[0] != 10 || got.NodeIDs[2] != 12 {
		t.Errorf("NodeIDs = %v, want [10 11 12]", got.NodeIDs)
	}
	if got.Tags["railway"] != "rail" || got.Tags["name"] != "Main Line" {
		t.Errorf("Tags = %v, want railway and name preserved", got.Tags)
	}
	if got.Geometry != nil {
		t.Errorf("Geometry = %v, want nil for a placeholder feature", got.Geometry)
	}
}

func TestWayFeaturePlaceholderGeometry(t *testing.T) {
	w := &Way{ID: 1, NodeIDs: []int64{10, 11}}

	f := w.Feature()
	p, ok := f.Geometry.(orb.Point)
	if !ok {
		t.Fatalf("geometry is %T, want placeholder Point", f.Geometry)
	}
	if p[0] != 0 || p[1] != 0 {
		t.Errorf("placeholder = %v, want (0,0)", p)
	}
}

func TestRelationFeatureRoundTrip(t *testing.T) {
	r := &Relation{
		ID: 456,
		Members: []Member{
			{Type: "way", Ref: 1, Role: ""},
			{Type: "node", Ref: 2, Role: "stop"},
			{Type: "way", Ref: 3, Role: "forward"},
		},
		Tags: map[string]string{"type": "route", "route": "railway"},
	}

	data, err := json.Marshal(r.Feature())
	if err != nil {
		t.Fatal(err)
	}
	f, err := geojson.UnmarshalFeature(data)
	if err != nil {
		t.Fatal(err)
	}

	got, err := RelationFromFeature(f)
	if err != nil {
		t.Fatalf("RelationFromFeature returned error: %v", err)
	}
	if got.ID != 456 {
		t.Errorf("ID = %d, want 456", got.ID)
	}
	if len(got.Members) != 3 {
		t.Fatalf("got %d members, want 3", len(got.Members))
	}
	if got.Members[1] != (Member{Type: "node", Ref: 2, Role: "stop"}) {
		t.Errorf("member 1 = %+v, want node/2/stop", got.Members[1])
	}
	if got.Members[2].Role != "forward" {
		t.Errorf("member 2 role = %q, want forward", got.Members[2].Role)
	}
	if got.Tags["route"] != "railway" {
		t.Errorf("Tags = %v, want route tag preserved", got.Tags)
	}
}

func TestRelationFromFeatureLegacyShape(t *testing.T) {
	// Records without the type/role lists decode as way references
	f := geojson.NewFeature(orb.Point{0, 0})
	f.Properties["osm_id"] = float64(7)
	f.Properties["member_ids"] = []interface{}{float64(1), float64(2)}

	got, err := RelationFromFeature(f)
	if err != nil {
		t.Fatalf("RelationFromFeature returned error: %v", err)
	}
	if len(got.Members) != 2 {
		t.Fatalf("got %d members, want 2", len(got.Members))
	}
	for i, m := range got.Members {
		if m.Type != "way" {
			t.Errorf("member %d type = %q, want way", i, m.Type)
		}
	}
}

func TestWayFromFeatureMissingID(t *testing.T) {
	f := geojson.NewFeature(orb.Point{0, 0})
	f.Properties["node_ids"] = []int64{1}

	if _, err := WayFromFeature(f); err == nil {
		t.Fatal("expected error for feature without osm_id")
	}
}

func TestIsPlaceholder(t *testing.T) {
	tests := []struct {
		name string
		g    orb.Geometry
		want bool
	}{
		{"nil", nil, true},
		{"origin point", orb.Point{0, 0}, true},
		{"real point", orb.Point{113.2, 23.1}, false},
		{"all-zero line", orb.LineString{{0, 0}, {0, 0}}, true},
		{"real line", orb.LineString{{0, 0}, {1, 1}}, false},
		{"short line", orb.LineString{{1, 1}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPlaceholder(tt.g); got != tt.want {
				t.Errorf("IsPlaceholder(%v) = %v, want %v", tt.g, got, tt.want)
			}
		})
	}
}
