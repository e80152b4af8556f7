// Package extract scans OSM PBF files and selects the railway working set:
// tagged railway nodes as point features, railway ways as node-reference
// records, and railway relations as member-list records. It also performs
// the second PBF pass that resolves required node coordinates.
package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"

	"github.com/mgolesberg/osm-railway-conversion/internal/config"
	"github.com/mgolesberg/osm-railway-conversion/internal/logger"
	"github.com/mgolesberg/osm-railway-conversion/internal/model"
	"github.com/mgolesberg/osm-railway-conversion/internal/nodeindex"
	"github.com/mgolesberg/osm-railway-conversion/internal/railfilter"
)

// Stats holds extraction counts
type Stats struct {
	Scanned          int64 // elements read from the PBF
	RailwayNodes     int64
	RailwayWays      int64
	RailwayRelations int64
}

// counters are the live scan totals. The scan loop writes them while the
// progress goroutine reads them, so they must be atomic.
type counters struct {
	scanned   atomic.Int64
	nodes     atomic.Int64
	ways      atomic.Int64
	relations atomic.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Scanned:          c.scanned.Load(),
		RailwayNodes:     c.nodes.Load(),
		RailwayWays:      c.ways.Load(),
		RailwayRelations: c.relations.Load(),
	}
}

// Dataset is the railway working set selected from a PBF extract
type Dataset struct {
	NodeFeatures []*geojson.Feature // tagged railway nodes as Point features
	Ways         []*model.Way
	Relations    []*model.Relation
	Stats        Stats
}

// Extractor reads PBF files and selects railway elements
type Extractor struct {
	cfg    *config.Config
	filter *railfilter.Filter
}

// NewExtractor creates a PBF extractor with the given selection filter
func NewExtractor(cfg *config.Config, filter *railfilter.Filter) *Extractor {
	if filter == nil {
		filter = railfilter.New(nil)
	}
	return &Extractor{cfg: cfg, filter: filter}
}

// Run scans the input PBF once and returns the railway working set.
// The scan decodes blocks in parallel (cfg.Workers).
func (e *Extractor) Run(ctx context.Context) (*Dataset, error) {
	log := logger.Get()

	f, err := os.Open(e.cfg.InputFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	scanner := osmpbf.New(ctx, f, e.cfg.Workers)
	defer scanner.Close()

	ds := &Dataset{}
	var c counters

	progressCtx, stopProgress := context.WithCancel(ctx)
	defer stopProgress()
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-progressCtx.Done():
				return
			case <-ticker.C:
				log.Debug("Extraction progress",
					zap.Int64("scanned", c.scanned.Load()),
					zap.Int64("railway_nodes", c.nodes.Load()),
					zap.Int64("railway_ways", c.ways.Load()),
					zap.Int64("railway_relations", c.relations.Load()))
			}
		}
	}()

	for scanner.Scan() {
		c.scanned.Add(1)
		e.apply(scanner.Object(), ds, &c)
	}

	if err := scanner.Err(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("pbf scan failed: %w", err)
	}

	ds.Stats = c.snapshot()

	log.Info("Extraction pass complete",
		zap.Int64("scanned", ds.Stats.Scanned),
		zap.Int64("railway_nodes", ds.Stats.RailwayNodes),
		zap.Int64("railway_ways", ds.Stats.RailwayWays),
		zap.Int64("railway_relations", ds.Stats.RailwayRelations))

	return ds, nil
}

// ResolveCoordinates performs the coordinate resolution pass: a single scan
// over the PBF node stream recording coordinates for required ids only.
// PBF files order nodes before ways, so the scan stops at the first way.
func (e *Extractor) ResolveCoordinates(ctx context.Context, resolver *nodeindex.Resolver) error {
	log := logger.Get()

	f, err := os.Open(e.cfg.InputFile)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	scanner := osmpbf.New(ctx, f, e.cfg.Workers)
	defer scanner.Close()

	start := time.Now()
	var scanned int64

scan:
	for scanner.Scan() {
		switch el := scanner.Object().(type) {
		case *osm.Node:
			scanned++
			resolver.Add(int64(el.ID), el.Lon, el.Lat)
		case *osm.Way:
			// Nodes are exhausted once ways begin
			break scan
		}
	}

	if err := scanner.Err(); err != nil && err != io.EOF {
		return fmt.Errorf("pbf node scan failed: %w", err)
	}

	log.Info("Coordinate resolution complete",
		zap.Int64("nodes_scanned", scanned),
		zap.Int("required", resolver.Required()),
		zap.Int("found", resolver.Found()),
		zap.Int("missing", resolver.Missing()),
		zap.Duration("duration", time.Since(start).Round(time.Millisecond)))

	if missing := resolver.Missing(); missing > 0 {
		// Normal: some ways reference nodes outside the processed extent
		log.Warn("Some required node ids were not found in the source",
			zap.Int("missing", missing))
	}

	return nil
}

// apply routes one scanned element into the dataset if it passes the bbox
// and tag filters.
func (e *Extractor) apply(obj osm.Object, ds *Dataset, c *counters) {
	switch el := obj.(type) {
	case *osm.Node:
		if e.cfg.SkipNodes {
			return
		}
		if e.cfg.BBox != nil && !e.cfg.BBox.Contains(el.Lat, el.Lon) {
			return
		}
		tags := el.Tags.Map()
		if len(tags) == 0 || !e.filter.MatchNode(tags) {
			return
		}
		ds.NodeFeatures = append(ds.NodeFeatures, nodeFeature(el, tags))
		c.nodes.Add(1)

	case *osm.Way:
		if e.cfg.SkipWays {
			return
		}
		tags := el.Tags.Map()
		if len(tags) == 0 || !e.filter.MatchWay(tags) {
			return
		}
		ds.Ways = append(ds.Ways, wayRecord(el, tags))
		c.ways.Add(1)

	case *osm.Relation:
		if e.cfg.SkipRelations {
			return
		}
		tags := el.Tags.Map()
		if len(tags) == 0 || !e.filter.MatchRelation(tags) {
			return
		}
		ds.Relations = append(ds.Relations, relationRecord(el, tags))
		c.relations.Add(1)
	}
}

func nodeFeature(n *osm.Node, tags map[string]string) *geojson.Feature {
	f := geojson.NewFeature(orb.Point{n.Lon, n.Lat})
	f.Properties["osm_id"] = int64(n.ID)
	f.Properties["osm_type"] = "node"
	for k, v := range tags {
		f.Properties[k] = v
	}
	return f
}

func wayRecord(w *osm.Way, tags map[string]string) *model.Way {
	nodeIDs := make([]int64, len(w.Nodes))
	for i, n := range w.Nodes {
		nodeIDs[i] = int64(n.ID)
	}
	return &model.Way{ID: int64(w.ID), NodeIDs: nodeIDs, Tags: tags}
}

func relationRecord(r *osm.Relation, tags map[string]string) *model.Relation {
	members := make([]model.Member, len(r.Members))
	for i, m := range r.Members {
		members[i] = model.Member{
			Type: string(m.Type),
			Ref:  m.Ref,
			Role: m.Role,
		}
	}
	return &model.Relation{ID: int64(r.ID), Members: members, Tags: tags}
}
