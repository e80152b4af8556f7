package railfilter

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// relationContainerTypes are the relation "type" values that can carry a
// railway route or grouping. A relation with one of these qualifies only if
// a second tag ties it to railways.
var relationContainerTypes = map[string]bool{
	"route":        true,
	"network":      true,
	"multipolygon": true,
	"boundary":     true,
	"site":         true,
}

// Config represents the selection configuration for railway features.
// A nil section falls back to the built-in railway rules.
type Config struct {
	Nodes     *RuleSet `yaml:"nodes,omitempty"`
	Ways      *RuleSet `yaml:"ways,omitempty"`
	Relations *RuleSet `yaml:"relations,omitempty"`
}

// RuleSet defines explicit selection rules for one element type
type RuleSet struct {
	// Include specifies which tag keys/values to select.
	// An empty value list matches any value for that key.
	Include map[string][]string `yaml:"include,omitempty"`
	// Exclude specifies which tag keys/values to reject.
	// Applied after include rules.
	Exclude map[string][]string `yaml:"exclude,omitempty"`
	// RequireAny specifies that at least one of these tag keys must be present
	RequireAny []string `yaml:"require_any,omitempty"`
}

// LoadConfig loads a selection configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read filter file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse filter YAML: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a configuration using the built-in railway rules
func DefaultConfig() *Config {
	return &Config{}
}

// Filter decides which OSM elements belong to the railway dataset
type Filter struct {
	cfg *Config
}

// New creates a filter from configuration; nil uses the built-in rules
func New(cfg *Config) *Filter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Filter{cfg: cfg}
}

// MatchNode reports whether a tagged node belongs to the railway dataset
func (f *Filter) MatchNode(tags map[string]string) bool {
	if f.cfg.Nodes != nil {
		return f.cfg.Nodes.match(tags)
	}
	return isRailway(tags)
}

// MatchWay reports whether a way belongs to the railway dataset
func (f *Filter) MatchWay(tags map[string]string) bool {
	if f.cfg.Ways != nil {
		return f.cfg.Ways.match(tags)
	}
	return isRailway(tags)
}

// MatchRelation reports whether a relation belongs to the railway dataset
func (f *Filter) MatchRelation(tags map[string]string) bool {
	if f.cfg.Relations != nil {
		return f.cfg.Relations.match(tags)
	}
	return isRailwayRelation(tags)
}

// isRailway is the built-in node/way predicate: any railway tag, a public
// transport station, or a railway/railroad/train keyword in a key or value.
func isRailway(tags map[string]string) bool {
	if len(tags) == 0 {
		return false
	}
	for k, v := range tags {
		key := strings.ToLower(k)
		value := strings.ToLower(v)

		if key == "railway" {
			return true
		}
		if key == "public_transport" && strings.Contains(value, "station") {
			return true
		}
		if strings.Contains(key, "railway") || strings.Contains(value, "railway") ||
			strings.Contains(key, "railroad") || strings.Contains(value, "railroad") ||
			key == "train" || value == "train" {
			return true
		}
	}
	return false
}

// isRailwayRelation is the built-in relation predicate. Route/network style
// container relations qualify when a second tag ties them to railways;
// anything with a direct railway tag or keyword qualifies outright.
func isRailwayRelation(tags map[string]string) bool {
	if len(tags) == 0 {
		return false
	}
	for k, v := range tags {
		key := strings.ToLower(k)
		value := strings.ToLower(v)

		if key == "type" && relationContainerTypes[value] {
			for ok, ov := range tags {
				otherKey := strings.ToLower(ok)
				otherValue := strings.ToLower(ov)

				if (otherKey == "route" && strings.Contains(otherValue, "rail")) ||
					otherKey == "railway" ||
					(otherKey == "public_transport" && strings.Contains(otherValue, "rail")) ||
					strings.Contains(otherKey, "railway") ||
					strings.Contains(otherValue, "railway") ||
					strings.Contains(otherKey, "railroad") ||
					strings.Contains(otherValue, "railroad") {
					return true
				}
			}
		}

		if key == "railway" {
			return true
		}
		if key == "public_transport" && strings.Contains(value, "rail") {
			return true
		}
		if strings.Contains(key, "railway") || strings.Contains(value, "railway") ||
			strings.Contains(key, "railroad") || strings.Contains(value, "railroad") ||
			strings.Contains(key, "train") || strings.Contains(value, "train") {
			return true
		}
	}
	return false
}

// match checks tags against an explicit rule set.
// Returns true if the element should be selected.
func (r *RuleSet) match(tags map[string]string) bool {
	if len(r.RequireAny) > 0 {
		found := false
		for _, key := range r.RequireAny {
			if _, ok := tags[key]; ok {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(r.Include) > 0 {
		matched := false
		for key, values := range r.Include {
			tagValue, ok := tags[key]
			if !ok {
				continue
			}
			if len(values) == 0 {
				matched = true
				break
			}
			for _, v := range values {
				if v == tagValue || v == "*" {
					matched = true
					break
				}
			}
			if matched {
				break
			}
		}
		if !matched {
			return false
		}
	}

	if len(r.Exclude) > 0 {
		for key, values := range r.Exclude {
			tagValue, ok := tags[key]
			if !ok {
				continue
			}
			if len(values) == 0 {
				return false
			}
			for _, v := range values {
				if v == tagValue || v == "*" {
					return false
				}
			}
		}
	}

	return true
}
