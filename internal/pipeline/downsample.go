package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mgolesberg/osm-railway-conversion/internal/config"
	"github.com/mgolesberg/osm-railway-conversion/internal/logger"
	"github.com/mgolesberg/osm-railway-conversion/internal/proj"
	"github.com/mgolesberg/osm-railway-conversion/internal/simplify"
)

// DownsampleStats holds simplification counts
type DownsampleStats struct {
	Features     int64
	Simplified   int64
	OutOfDomain  int64 // features kept unsimplified due to projection failure
	PointsBefore int64
	PointsAfter  int64
}

// TransformerFor builds the planar transformer for a feature batch: either
// the configured EPSG zone, or the zone containing the first line
// coordinate in the batch when the projection is "auto".
func TransformerFor(cfg *config.Config, features []*geojson.Feature) (*proj.Transformer, error) {
	if cfg.Projection != "" && cfg.Projection != "auto" {
		zone, err := proj.ParseZone(cfg.Projection)
		if err != nil {
			return nil, err
		}
		return proj.NewTransformer(zone), nil
	}

	for _, f := range features {
		if p, ok := firstPoint(f.Geometry); ok {
			zone := proj.ZoneFor(p)
			logger.Get().Info("Auto-selected UTM zone",
				zap.String("crs", zone.String()),
				zap.Float64("lon", p[0]),
				zap.Float64("lat", p[1]))
			return proj.NewTransformer(zone), nil
		}
	}
	return nil, fmt.Errorf("no line geometry available to auto-select a UTM zone")
}

// Downsample applies projected Douglas-Peucker reduction to every feature
// in place. Features are independent; a worker pool processes them
// concurrently. Projection failures exclude only the affected feature,
// which keeps its original geometry.
func Downsample(ctx context.Context, cfg *config.Config, tr *proj.Transformer, features []*geojson.Feature) (DownsampleStats, error) {
	log := logger.Get()

	var stats DownsampleStats
	var simplified, outOfDomain, before, after atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, f := range features {
		f := f
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			n := pointCount(f.Geometry)
			before.Add(int64(n))

			reduced, err := downsampleGeometry(tr, f.Geometry, cfg.Tolerance)
			if err != nil {
				outOfDomain.Add(1)
				after.Add(int64(n))
				log.Debug("Feature outside projection domain, passing through",
					zap.Any("osm_id", f.Properties["osm_id"]),
					zap.Error(err))
				return nil
			}

			f.Geometry = reduced
			m := pointCount(reduced)
			after.Add(int64(m))
			if m < n {
				simplified.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}

	stats = DownsampleStats{
		Features:     int64(len(features)),
		Simplified:   simplified.Load(),
		OutOfDomain:  outOfDomain.Load(),
		PointsBefore: before.Load(),
		PointsAfter:  after.Load(),
	}

	log.Info("Downsampling complete",
		zap.String("crs", tr.Zone().String()),
		zap.Float64("tolerance_m", cfg.Tolerance),
		zap.Int64("features", stats.Features),
		zap.Int64("simplified", stats.Simplified),
		zap.Int64("out_of_domain", stats.OutOfDomain),
		zap.Int64("points_before", stats.PointsBefore),
		zap.Int64("points_after", stats.PointsAfter))

	return stats, nil
}

// downsampleGeometry reprojects a line geometry into the planar frame,
// reduces it, and reprojects back. Non-line geometries pass through.
func downsampleGeometry(tr *proj.Transformer, g orb.Geometry, tolerance float64) (orb.Geometry, error) {
	switch geom := g.(type) {
	case orb.LineString:
		planar, err := tr.LineToPlanar(geom)
		if err != nil {
			return g, err
		}
		reduced := simplify.Line(planar, tolerance)
		if len(reduced) == len(geom) {
			// Nothing removed; keep the original coordinates untouched by
			// the projection round trip
			return geom, nil
		}
		return tr.LineToGeographic(reduced), nil

	case orb.MultiLineString:
		// Project everything first: one out-of-domain line fails the whole
		// feature, which then passes through unsimplified
		planar := make(orb.MultiLineString, len(geom))
		for i, line := range geom {
			p, err := tr.LineToPlanar(line)
			if err != nil {
				return g, err
			}
			planar[i] = p
		}

		out := make(orb.MultiLineString, len(geom))
		changed := false
		for i, line := range planar {
			reduced := simplify.Line(line, tolerance)
			if len(reduced) == len(geom[i]) {
				out[i] = geom[i]
				continue
			}
			out[i] = tr.LineToGeographic(reduced)
			changed = true
		}
		if !changed {
			return geom, nil
		}
		return out, nil

	default:
		return g, nil
	}
}

func pointCount(g orb.Geometry) int {
	switch geom := g.(type) {
	case orb.LineString:
		return len(geom)
	case orb.MultiLineString:
		n := 0
		for _, line := range geom {
			n += len(line)
		}
		return n
	case orb.Point:
		return 1
	}
	return 0
}

func firstPoint(g orb.Geometry) (orb.Point, bool) {
	switch geom := g.(type) {
	case orb.LineString:
		if len(geom) > 0 {
			return geom[0], true
		}
	case orb.MultiLineString:
		for _, line := range geom {
			if len(line) > 0 {
				return line[0], true
			}
		}
	}
	return orb.Point{}, false
}
