package nodeindex

import (
	"github.com/paulmach/orb"

	"github.com/mgolesberg/osm-railway-conversion/internal/model"
)

// RequiredSet is the set of distinct node ids actually referenced by the
// working set of ways. Building it first avoids materializing coordinates
// for the vastly larger set of irrelevant nodes in the source.
type RequiredSet map[int64]struct{}

// CollectRequired scans way member-reference lists and returns the set of
// distinct node ids they reference.
func CollectRequired(ways []*model.Way) RequiredSet {
	required := make(RequiredSet)
	for _, w := range ways {
		for _, id := range w.NodeIDs {
			required[id] = struct{}{}
		}
	}
	return required
}

// Contains reports whether id is in the required set
func (s RequiredSet) Contains(id int64) bool {
	_, ok := s[id]
	return ok
}

// Resolver maps node ids to coordinates. It has a two-phase lifecycle:
// populated once from the source node stream (recording only required ids),
// then read-only for the rest of the run. Absent entries are expected, not
// errors; some references legitimately fall outside the processed extent.
type Resolver struct {
	store    Store
	required RequiredSet
	found    int
}

// NewResolver creates a resolver restricted to the required id set.
// A nil store defaults to the in-memory map store.
func NewResolver(store Store, required RequiredSet) *Resolver {
	if store == nil {
		store = NewMapStore()
	}
	return &Resolver{store: store, required: required}
}

// Add records a coordinate if the id is required. Safe to call with every
// node in the source stream; irrelevant ids are skipped.
func (r *Resolver) Add(id int64, lon, lat float64) {
	if !r.required.Contains(id) {
		return
	}
	if _, ok := r.store.Get(id); !ok {
		r.found++
	}
	r.store.Put(id, lon, lat)
}

// Resolve returns the coordinate for a node id, or false if the id was
// never found in the source.
func (r *Resolver) Resolve(id int64) (orb.Point, bool) {
	return r.store.Get(id)
}

// Required returns the number of distinct required node ids
func (r *Resolver) Required() int {
	return len(r.required)
}

// Found returns the number of required ids that obtained a coordinate
func (r *Resolver) Found() int {
	return r.found
}

// Missing returns the number of required ids never found in the source
func (r *Resolver) Missing() int {
	return len(r.required) - r.found
}

// Close releases the backing store
func (r *Resolver) Close() error {
	return r.store.Close()
}
