package model

import (
	"fmt"

	"github.com/paulmach/orb/geojson"
)

// reservedProps are property keys produced by this pipeline rather than
// carried over from OSM tags.
var reservedProps = map[string]bool{
	"osm_id":             true,
	"osm_type":           true,
	"node_count":         true,
	"node_ids":           true,
	"member_count":       true,
	"member_ids":         true,
	"member_type_list":   true,
	"member_role_list":   true,
	"member_types":       true,
	"member_roles":       true,
	"combined_way_count": true,
	"geometry_type":      true,
	"source":             true,
}

// propInt64 reads an integer property, accepting the numeric types produced
// both in-process and by JSON decoding.
func propInt64(props geojson.Properties, key string) (int64, error) {
	v, ok := props[key]
	if !ok {
		return 0, fmt.Errorf("missing property %q", key)
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	}
	return 0, fmt.Errorf("property %q has non-numeric type %T", key, v)
}

// propInt64Slice reads an id-list property. JSON decoding yields
// []interface{} of float64; in-process values stay []int64.
func propInt64Slice(props geojson.Properties, key string) ([]int64, error) {
	v, ok := props[key]
	if !ok {
		return nil, fmt.Errorf("missing property %q", key)
	}
	switch ids := v.(type) {
	case []int64:
		return ids, nil
	case []interface{}:
		out := make([]int64, 0, len(ids))
		for i, e := range ids {
			n, ok := e.(float64)
			if !ok {
				return nil, fmt.Errorf("property %q[%d] has non-numeric type %T", key, i, e)
			}
			out = append(out, int64(n))
		}
		return out, nil
	}
	return nil, fmt.Errorf("property %q has non-list type %T", key, v)
}

// propStringSlice reads a string-list property, returning nil when absent.
func propStringSlice(props geojson.Properties, key string) []string {
	v, ok := props[key]
	if !ok {
		return nil
	}
	switch ss := v.(type) {
	case []string:
		return ss
	case []interface{}:
		out := make([]string, 0, len(ss))
		for _, e := range ss {
			s, ok := e.(string)
			if !ok {
				return nil
			}
			out = append(out, s)
		}
		return out
	}
	return nil
}

// propTags extracts the OSM tag properties, skipping pipeline-reserved keys.
func propTags(props geojson.Properties) map[string]string {
	tags := make(map[string]string)
	for k, v := range props {
		if reservedProps[k] {
			continue
		}
		if s, ok := v.(string); ok {
			tags[k] = s
		}
	}
	return tags
}
