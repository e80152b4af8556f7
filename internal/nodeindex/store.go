package nodeindex

import (
	"github.com/paulmach/orb"
)

// Store maps a node id to a geographic coordinate. Stores are written
// during the build phase and read-only afterwards; (0,0) is never stored
// as a real coordinate (it is the dataset's unresolved sentinel).
type Store interface {
	Put(id int64, lon, lat float64)
	Get(id int64) (orb.Point, bool)
	Len() int
	Close() error
}

// MapStore is the default in-memory store. It is bounded by the required
// node set, which is far smaller than the full node stream.
type MapStore struct {
	coords map[int64]orb.Point
}

// NewMapStore creates an empty in-memory store
func NewMapStore() *MapStore {
	return &MapStore{coords: make(map[int64]orb.Point)}
}

// Put stores a node's coordinate
func (s *MapStore) Put(id int64, lon, lat float64) {
	s.coords[id] = orb.Point{lon, lat}
}

// Get retrieves a node's coordinate
func (s *MapStore) Get(id int64) (orb.Point, bool) {
	p, ok := s.coords[id]
	return p, ok
}

// Len returns the number of stored coordinates
func (s *MapStore) Len() int {
	return len(s.coords)
}

// Close releases the store
func (s *MapStore) Close() error {
	s.coords = nil
	return nil
}
