package cmd

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spf13/cobra"

	"github.com/mgolesberg/osm-railway-conversion/internal/config"
	"github.com/mgolesberg/osm-railway-conversion/internal/logger"
	"github.com/mgolesberg/osm-railway-conversion/internal/pipeline"
)

var convertBBox string

var convertCmd = &cobra.Command{
	Use:   "convert <input.osm.pbf>",
	Short: "Run the full conversion pipeline in one process",
	Long: `Extract railway elements, resolve coordinates, assemble routes and
downsample geometries in a single run. Intermediate and final collections
are written to the output directory:

  railways_nodes.geojson       railway point features
  railways_combined.geojson    assembled route and standalone-way polylines
  railways_simplified.geojson  downsampled final output`,
	Args: cobra.ExactArgs(1),
	Run:  runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVar(&convertBBox, "bbox", "", "Bounding box filter: minlon,minlat,maxlon,maxlat")
	convertCmd.Flags().StringVar(&cfg.FilterFile, "filter", "", "YAML file overriding the railway selection rules")
	convertCmd.Flags().Float64VarP(&cfg.Tolerance, "tolerance", "t", cfg.Tolerance, "Douglas-Peucker tolerance in meters")
	convertCmd.Flags().StringVar(&cfg.Projection, "projection", cfg.Projection, "Planar CRS: EPSG:326xx/327xx, or auto")
	convertCmd.Flags().StringVar(&cfg.FlatNodesFile, "flat-nodes", "", "Back the node store with a mmap file (for planet-scale inputs)")
}

func runConvert(cmd *cobra.Command, args []string) {
	cfg.InputFile = args[0]
	log := logger.Get()

	bbox, err := config.ParseBBox(convertBBox)
	if err != nil {
		exitWithError("invalid bbox", err)
	}
	cfg.BBox = bbox

	if err := cfg.Validate(); err != nil {
		exitWithError("invalid configuration", err)
	}

	log.Info("Starting conversion",
		zap.String("input", cfg.InputFile),
		zap.String("output", cfg.OutputDir),
		zap.Int("workers", cfg.Workers),
	)
	start := time.Now()

	coord, err := pipeline.NewCoordinator(cfg)
	if err != nil {
		exitWithError("failed to create pipeline", err)
	}

	stats, err := coord.Run(context.Background())
	if err != nil {
		exitWithError("conversion failed", err)
	}

	log.Info("Conversion finished",
		zap.Duration("duration", time.Since(start).Round(time.Second)),
		zap.Int64("railway_ways", stats.Extract.RailwayWays),
		zap.Int64("railway_relations", stats.Extract.RailwayRelations),
		zap.Int("output_features", stats.Features),
		zap.Int64("points_before", stats.Downsample.PointsBefore),
		zap.Int64("points_after", stats.Downsample.PointsAfter),
	)
}
