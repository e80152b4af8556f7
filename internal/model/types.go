package model

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Source values carried in the "source" output property.
const (
	SourceRelation      = "relation"
	SourceStandaloneWay = "standalone_way"
)

// Way is a railway way decoded from the source reader: an ordered node
// reference list plus tags, keyed by the OSM way id. Geometry starts nil
// (placeholder) and is populated once by the way materializer.
type Way struct {
	ID       int64
	NodeIDs  []int64
	Tags     map[string]string
	Geometry orb.Geometry
}

// Member is a single typed, role-tagged relation member reference.
type Member struct {
	Type string // "node", "way" or "relation"
	Ref  int64
	Role string
}

// Relation is a railway route relation: an ordered member list plus tags.
type Relation struct {
	ID      int64
	Members []Member
	Tags    map[string]string
}

// placeholderPoint is the reserved sentinel geometry for features whose
// coordinates have not been resolved. (0,0) is never a real measurement
// in this dataset's extent.
func placeholderPoint() orb.Point {
	return orb.Point{0, 0}
}

// WayFeature encodes a way as an interchange feature. The geometry is the
// way's materialized geometry, or the placeholder point if absent.
func (w *Way) Feature() *geojson.Feature {
	geom := w.Geometry
	if geom == nil {
		geom = placeholderPoint()
	}

	f := geojson.NewFeature(geom)
	f.Properties["osm_id"] = w.ID
	f.Properties["osm_type"] = "way"
	f.Properties["node_count"] = len(w.NodeIDs)
	f.Properties["node_ids"] = w.NodeIDs
	for k, v := range w.Tags {
		f.Properties[k] = v
	}
	return f
}

// Feature encodes a relation as an interchange feature with a placeholder
// geometry. Member information is carried in parallel property lists so
// assembly can recover the ordered, typed member references.
func (r *Relation) Feature() *geojson.Feature {
	f := geojson.NewFeature(placeholderPoint())
	f.Properties["osm_id"] = r.ID
	f.Properties["osm_type"] = "relation"
	f.Properties["member_count"] = len(r.Members)

	memberIDs := make([]int64, len(r.Members))
	memberTypeList := make([]string, len(r.Members))
	memberRoleList := make([]string, len(r.Members))
	typeCounts := map[string]int{}
	roleCounts := map[string]int{}
	for i, m := range r.Members {
		memberIDs[i] = m.Ref
		memberTypeList[i] = m.Type
		memberRoleList[i] = m.Role
		typeCounts[m.Type]++
		roleCounts[m.Role]++
	}
	f.Properties["member_ids"] = memberIDs
	f.Properties["member_type_list"] = memberTypeList
	f.Properties["member_role_list"] = memberRoleList
	f.Properties["member_types"] = typeCounts
	f.Properties["member_roles"] = roleCounts

	for k, v := range r.Tags {
		f.Properties[k] = v
	}
	return f
}

// WayFromFeature decodes a way record from an interchange feature.
func WayFromFeature(f *geojson.Feature) (*Way, error) {
	id, err := propInt64(f.Properties, "osm_id")
	if err != nil {
		return nil, fmt.Errorf("way record: %w", err)
	}

	nodeIDs, err := propInt64Slice(f.Properties, "node_ids")
	if err != nil {
		return nil, fmt.Errorf("way record %d: %w", id, err)
	}

	w := &Way{
		ID:      id,
		NodeIDs: nodeIDs,
		Tags:    propTags(f.Properties),
	}
	if f.Geometry != nil && !IsPlaceholder(f.Geometry) {
		w.Geometry = f.Geometry
	}
	return w, nil
}

// RelationFromFeature decodes a relation record from an interchange feature.
// Records written without the parallel type/role lists (legacy shape) decode
// with every member treated as a way reference.
func RelationFromFeature(f *geojson.Feature) (*Relation, error) {
	id, err := propInt64(f.Properties, "osm_id")
	if err != nil {
		return nil, fmt.Errorf("relation record: %w", err)
	}

	memberIDs, err := propInt64Slice(f.Properties, "member_ids")
	if err != nil {
		return nil, fmt.Errorf("relation record %d: %w", id, err)
	}

	typeList := propStringSlice(f.Properties, "member_type_list")
	roleList := propStringSlice(f.Properties, "member_role_list")

	members := make([]Member, len(memberIDs))
	for i, ref := range memberIDs {
		m := Member{Type: "way", Ref: ref}
		if i < len(typeList) {
			m.Type = typeList[i]
		}
		if i < len(roleList) {
			m.Role = roleList[i]
		}
		members[i] = m
	}

	return &Relation{
		ID:      id,
		Members: members,
		Tags:    propTags(f.Properties),
	}, nil
}

// IsPlaceholder reports whether a geometry is the unresolved sentinel: a
// point at exactly (0,0), or a line whose points are all (0,0).
func IsPlaceholder(g orb.Geometry) bool {
	switch geom := g.(type) {
	case orb.Point:
		return geom[0] == 0 && geom[1] == 0
	case orb.LineString:
		if len(geom) < 2 {
			return true
		}
		for _, p := range geom {
			if p[0] != 0 || p[1] != 0 {
				return false
			}
		}
		return true
	case nil:
		return true
	}
	return false
}
