package nodeindex

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/paulmach/orb"
)

const (
	// Each node entry: lon (int32) + lat (int32) = 8 bytes,
	// fixed-point at 1e7 (the native OSM coordinate resolution)
	entrySize = 8
	// Maximum node ID we support (10 billion covers current OSM growth)
	maxNodeID = 10_000_000_000
)

// FlatStore is a memory-mapped node coordinate store for planet-scale runs.
// A node's entry lives at offset id*8, giving O(1) lookup. The backing file
// is sparse, so disk usage tracks only the nodes actually written. An
// all-zero entry means the node was never written (the (0,0) sentinel).
type FlatStore struct {
	file  *os.File
	data  mmap.MMap
	maxID int64
	size  int64
	count int
}

// NewFlatStore creates a flat node store backed by a sparse file at path
func NewFlatStore(path string) (*FlatStore, error) {
	return newFlatStore(path, maxNodeID)
}

func newFlatStore(path string, maxID int64) (*FlatStore, error) {
	size := maxID * entrySize

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create flat nodes file: %w", err)
	}

	// Sparse on Linux: address space is reserved, disk blocks are not
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to size flat nodes file: %w", err)
	}

	data, err := mmap.MapRegion(f, int(size), mmap.RDWR, 0, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to mmap flat nodes file: %w", err)
	}

	return &FlatStore{file: f, data: data, maxID: maxID, size: size}, nil
}

// Put stores a node's coordinate at its fixed slot
func (s *FlatStore) Put(id int64, lon, lat float64) {
	if id < 0 || id >= s.maxID {
		return // out of range ids are dropped, same as unresolved
	}

	offset := id * entrySize
	lonInt := int32(math.Round(lon * 1e7))
	latInt := int32(math.Round(lat * 1e7))

	binary.LittleEndian.PutUint32(s.data[offset:], uint32(lonInt))
	binary.LittleEndian.PutUint32(s.data[offset+4:], uint32(latInt))
	s.count++
}

// Get retrieves a node's coordinate.
// Returns false for ids that were never written.
func (s *FlatStore) Get(id int64) (orb.Point, bool) {
	if id < 0 || id >= s.maxID {
		return orb.Point{}, false
	}

	offset := id * entrySize
	if offset+entrySize > s.size {
		return orb.Point{}, false
	}

	lonInt := int32(binary.LittleEndian.Uint32(s.data[offset:]))
	latInt := int32(binary.LittleEndian.Uint32(s.data[offset+4:]))

	// An all-zero slot is an unwritten node. A real node at exactly (0,0)
	// cannot occur in this dataset's extent.
	if lonInt == 0 && latInt == 0 {
		return orb.Point{}, false
	}

	return orb.Point{float64(lonInt) / 1e7, float64(latInt) / 1e7}, true
}

// Len returns the number of Put calls since the store was created
func (s *FlatStore) Len() int {
	return s.count
}

// Flush forces written entries to disk
func (s *FlatStore) Flush() error {
	return s.data.Flush()
}

// Close unmaps and closes the store
func (s *FlatStore) Close() error {
	if err := s.data.Unmap(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}
