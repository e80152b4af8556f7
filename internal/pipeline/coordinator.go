package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/mgolesberg/osm-railway-conversion/internal/assemble"
	"github.com/mgolesberg/osm-railway-conversion/internal/config"
	"github.com/mgolesberg/osm-railway-conversion/internal/extract"
	"github.com/mgolesberg/osm-railway-conversion/internal/logger"
	"github.com/mgolesberg/osm-railway-conversion/internal/metrics"
	"github.com/mgolesberg/osm-railway-conversion/internal/model"
	"github.com/mgolesberg/osm-railway-conversion/internal/railfilter"
)

// Output file names within the configured output directory
const (
	NodesFile     = "railways_nodes.geojson"
	WaysFile      = "railways_ways.geojson"
	RelationsFile = "railways_relations.geojson"
	CombinedFile  = "railways_combined.geojson"
	FinalFile     = "railways_simplified.geojson"
)

// RunStats holds combined statistics for a full conversion
type RunStats struct {
	Extract    extract.Stats
	Assembly   assemble.Stats
	Downsample DownsampleStats
	Features   int
}

// Coordinator orchestrates the full conversion: extract, resolve,
// assemble, downsample, write.
type Coordinator struct {
	cfg    *config.Config
	filter *railfilter.Filter
}

// NewCoordinator creates a conversion coordinator
func NewCoordinator(cfg *config.Config) (*Coordinator, error) {
	filterCfg := railfilter.DefaultConfig()
	if cfg.FilterFile != "" {
		loaded, err := railfilter.LoadConfig(cfg.FilterFile)
		if err != nil {
			return nil, err
		}
		filterCfg = loaded
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Coordinator{cfg: cfg, filter: railfilter.New(filterCfg)}, nil
}

// Run executes the full conversion pipeline
func (c *Coordinator) Run(ctx context.Context) (*RunStats, error) {
	log := logger.Get()
	stats := &RunStats{}

	if c.cfg.MetricsInterval > 0 {
		metricsCtx, cancelMetrics := context.WithCancel(ctx)
		defer cancelMetrics()

		collector := metrics.NewCollector(c.cfg.MetricsInterval, log)
		go collector.Start(metricsCtx)
		log.Info("System metrics collection started",
			zap.Duration("interval", c.cfg.MetricsInterval))
	}

	// Stage 1: select the railway working set
	log.Info("Stage 1: Extracting railway elements",
		zap.String("input", c.cfg.InputFile))
	start := time.Now()

	ex := extract.NewExtractor(c.cfg, c.filter)
	ds, err := ex.Run(ctx)
	if err != nil {
		return nil, err
	}
	stats.Extract = ds.Stats

	if len(ds.NodeFeatures) > 0 {
		if err := c.writeFeatures(NodesFile, ds.NodeFeatures); err != nil {
			return nil, err
		}
	}

	// Stage 2: resolve coordinates and assemble routes
	log.Info("Stage 2: Resolving coordinates and assembling routes")

	resolver, err := BuildResolver(ctx, c.cfg, ex, ds.Ways)
	if err != nil {
		return nil, err
	}
	defer resolver.Close()

	features, asmStats, err := AssembleAll(ctx, c.cfg, resolver, ds.Ways, ds.Relations)
	if err != nil {
		return nil, err
	}
	stats.Assembly = asmStats
	stats.Features = len(features)

	if err := c.writeFeatures(CombinedFile, features); err != nil {
		return nil, err
	}

	// Stage 3: downsample
	log.Info("Stage 3: Downsampling geometries",
		zap.Float64("tolerance_m", c.cfg.Tolerance))

	tr, err := TransformerFor(c.cfg, features)
	if err != nil {
		return nil, err
	}
	dsStats, err := Downsample(ctx, c.cfg, tr, features)
	if err != nil {
		return nil, err
	}
	stats.Downsample = dsStats

	if err := c.writeFeatures(FinalFile, features); err != nil {
		return nil, err
	}

	log.Info("Conversion complete",
		zap.Duration("duration", time.Since(start).Round(time.Second)),
		zap.Int("features", stats.Features),
		zap.Int64("points_before", dsStats.PointsBefore),
		zap.Int64("points_after", dsStats.PointsAfter))

	return stats, nil
}

func (c *Coordinator) writeFeatures(name string, features []*geojson.Feature) error {
	fc := geojson.NewFeatureCollection()
	fc.Features = features

	path := filepath.Join(c.cfg.OutputDir, name)
	if err := model.WriteCollection(path, fc, c.cfg.Compact); err != nil {
		return err
	}
	logger.Get().Info("Wrote feature collection",
		zap.String("path", path),
		zap.Int("features", len(features)))
	return nil
}
