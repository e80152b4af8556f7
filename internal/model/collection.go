package model

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/paulmach/orb/geojson"
)

// ReadCollection loads a GeoJSON feature collection from disk.
func ReadCollection(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return fc, nil
}

// WriteCollection writes a feature collection to disk. Compact output omits
// indentation, which roughly halves the size of large collections.
func WriteCollection(path string, fc *geojson.FeatureCollection, compact bool) error {
	var data []byte
	var err error
	if compact {
		data, err = fc.MarshalJSON()
	} else {
		data, err = json.MarshalIndent(fc, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
