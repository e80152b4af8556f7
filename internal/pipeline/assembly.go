package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mgolesberg/osm-railway-conversion/internal/assemble"
	"github.com/mgolesberg/osm-railway-conversion/internal/config"
	"github.com/mgolesberg/osm-railway-conversion/internal/extract"
	"github.com/mgolesberg/osm-railway-conversion/internal/logger"
	"github.com/mgolesberg/osm-railway-conversion/internal/model"
	"github.com/mgolesberg/osm-railway-conversion/internal/nodeindex"
)

// BuildResolver constructs the node coordinate resolver for a working set
// of ways: collects the required id set, selects the backing store, and
// runs the coordinate resolution pass over the source PBF.
func BuildResolver(ctx context.Context, cfg *config.Config, ex *extract.Extractor, ways []*model.Way) (*nodeindex.Resolver, error) {
	log := logger.Get()

	required := nodeindex.CollectRequired(ways)
	log.Info("Collected required node ids",
		zap.Int("ways", len(ways)),
		zap.Int("required_nodes", len(required)))

	var store nodeindex.Store
	if cfg.FlatNodesFile != "" {
		flat, err := nodeindex.NewFlatStore(cfg.FlatNodesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to create flat node store: %w", err)
		}
		store = flat
	} else {
		store = nodeindex.NewMapStore()
	}

	resolver := nodeindex.NewResolver(store, required)
	if err := ex.ResolveCoordinates(ctx, resolver); err != nil {
		resolver.Close()
		return nil, err
	}
	return resolver, nil
}

// AssembleAll materializes way geometries and assembles every relation into
// its merged polyline feature, followed by the standalone-way complement.
// Relations are processed by a worker pool; they share only the read-only
// way lookup and the assembler's consumed-id set.
func AssembleAll(ctx context.Context, cfg *config.Config, resolver *nodeindex.Resolver, ways []*model.Way, relations []*model.Relation) ([]*geojson.Feature, assemble.Stats, error) {
	log := logger.Get()

	matStats := assemble.MaterializeAll(ways, resolver)
	log.Info("Way materialization complete",
		zap.Int("lines", matStats.Lines),
		zap.Int("points", matStats.Points),
		zap.Int("unresolved", matStats.Unresolved),
		zap.Int("skipped_node_refs", matStats.SkippedNodes))

	asm := assemble.NewAssembler(ways)

	// One slot per relation keeps output order independent of worker timing
	results := make([]*geojson.Feature, len(relations))

	tracker := NewProgressTracker(int64(len(relations)), "assembling routes")
	var processed atomic.Int64

	progressCtx, stopProgress := context.WithCancel(ctx)
	defer stopProgress()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-progressCtx.Done():
				return
			case <-ticker.C:
				p := tracker.Calculate(processed.Load())
				log.Info("Assembly progress",
					zap.Int64("relations", p.Current),
					zap.Int64("total", p.Total),
					zap.Float64("pct", p.Percentage),
					zap.Float64("per_sec", p.Throughput),
					zap.String("eta", FormatETA(p.ETA)))
			}
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, rel := range relations {
		i, rel := i, rel
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			results[i] = asm.Assemble(rel)
			processed.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, assemble.Stats{}, err
	}
	stopProgress()

	var features []*geojson.Feature
	for _, f := range results {
		if f != nil {
			features = append(features, f)
		}
	}
	features = append(features, asm.StandaloneFeatures()...)

	stats := asm.Stats()
	log.Info("Route assembly complete",
		zap.Int("relations", stats.Relations),
		zap.Int("merged", stats.Merged),
		zap.Int("fallback", stats.Fallback),
		zap.Int("absent", stats.Absent),
		zap.Int("consumed_ways", asm.ConsumedCount()),
		zap.Int("standalone_ways", stats.Standalone))

	return features, stats, nil
}
