package nodeindex

import (
	"testing"

	"github.com/mgolesberg/osm-railway-conversion/internal/model"
)

func TestCollectRequired(t *testing.T) {
	ways := []*model.Way{
		{ID: 1, NodeIDs: []int64{10, 11, 12}},
		{ID: 2, NodeIDs: []int64{12, 13}}, // 12 shared with way 1
		{ID: 3, NodeIDs: nil},
	}

	required := CollectRequired(ways)
	if len(required) != 4 {
		t.Fatalf("got %d required ids, want 4", len(required))
	}
	for _, id := range []int64{10, 11, 12, 13} {
		if !required.Contains(id) {
			t.Errorf("required set missing id %d", id)
		}
	}
	if required.Contains(99) {
		t.Error("required set contains id 99, want absent")
	}
}

func TestResolverRecordsOnlyRequired(t *testing.T) {
	required := RequiredSet{10: {}, 11: {}}
	r := NewResolver(nil, required)

	r.Add(10, 113.1, 23.1)
	r.Add(999, 50.0, 50.0) // not required, must be skipped

	if p, ok := r.Resolve(10); !ok || p[0] != 113.1 || p[1] != 23.1 {
		t.Errorf("Resolve(10) = %v, %v, want (113.1, 23.1), true", p, ok)
	}
	if _, ok := r.Resolve(999); ok {
		t.Error("Resolve(999) = true, want false (not in required set)")
	}
	if _, ok := r.Resolve(11); ok {
		t.Error("Resolve(11) = true, want false (never added)")
	}
}

func TestResolverCounts(t *testing.T) {
	required := RequiredSet{10: {}, 11: {}, 12: {}}
	r := NewResolver(nil, required)

	r.Add(10, 113.1, 23.1)
	r.Add(11, 113.2, 23.2)
	r.Add(11, 113.3, 23.3) // re-add must not double count

	if r.Required() != 3 {
		t.Errorf("Required = %d, want 3", r.Required())
	}
	if r.Found() != 2 {
		t.Errorf("Found = %d, want 2", r.Found())
	}
	if r.Missing() != 1 {
		t.Errorf("Missing = %d, want 1", r.Missing())
	}
}

func TestMapStore(t *testing.T) {
	s := NewMapStore()
	s.Put(42, 113.5, 23.5)

	p, ok := s.Get(42)
	if !ok {
		t.Fatal("Get(42) = false, want true")
	}
	if p[0] != 113.5 || p[1] != 23.5 {
		t.Errorf("Get(42) = %v, want (113.5, 23.5)", p)
	}
	if _, ok := s.Get(43); ok {
		t.Error("Get(43) = true, want false")
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}
