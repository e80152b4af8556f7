package cmd

import (
	"context"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/spf13/cobra"

	"github.com/mgolesberg/osm-railway-conversion/internal/logger"
	"github.com/mgolesberg/osm-railway-conversion/internal/model"
	"github.com/mgolesberg/osm-railway-conversion/internal/pipeline"
)

var simplifyOutput string

var simplifyCmd = &cobra.Command{
	Use:   "simplify <input.geojson>",
	Short: "Reduce coordinate density with projected Douglas-Peucker",
	Long: `Reproject line geometries into a locally accurate UTM frame, apply
Douglas-Peucker reduction with a metric tolerance, and reproject back to
WGS84. Endpoints are always retained; features whose coordinates fall
outside the projection domain pass through unchanged.

The UTM zone is taken from --projection (e.g. EPSG:32649), or chosen
automatically from the data.`,
	Args: cobra.ExactArgs(1),
	Run:  runSimplify,
}

func init() {
	rootCmd.AddCommand(simplifyCmd)

	simplifyCmd.Flags().Float64VarP(&cfg.Tolerance, "tolerance", "t", cfg.Tolerance, "Douglas-Peucker tolerance in meters")
	simplifyCmd.Flags().StringVar(&cfg.Projection, "projection", cfg.Projection, "Planar CRS: EPSG:326xx/327xx, or auto")
	simplifyCmd.Flags().StringVar(&simplifyOutput, "out", "", "Output path (default: <output-dir>/"+pipeline.FinalFile+")")
}

func runSimplify(cmd *cobra.Command, args []string) {
	inputPath := args[0]
	log := logger.Get()

	if cfg.Tolerance < 0 {
		exitWithError("tolerance must be >= 0", nil)
	}
	if simplifyOutput == "" {
		simplifyOutput = filepath.Join(cfg.OutputDir, pipeline.FinalFile)
	}

	start := time.Now()

	fc, err := model.ReadCollection(inputPath)
	if err != nil {
		exitWithError("failed to load input collection", err)
	}

	log.Info("Starting downsampling",
		zap.String("input", inputPath),
		zap.Int("features", len(fc.Features)),
		zap.Float64("tolerance_m", cfg.Tolerance),
		zap.Int("workers", cfg.Workers),
	)

	tr, err := pipeline.TransformerFor(cfg, fc.Features)
	if err != nil {
		exitWithError("failed to select projection", err)
	}

	stats, err := pipeline.Downsample(context.Background(), cfg, tr, fc.Features)
	if err != nil {
		exitWithError("downsampling failed", err)
	}

	if err := model.WriteCollection(simplifyOutput, fc, cfg.Compact); err != nil {
		exitWithError("failed to write output", err)
	}

	reduction := 0.0
	if stats.PointsBefore > 0 {
		reduction = 100 * float64(stats.PointsBefore-stats.PointsAfter) / float64(stats.PointsBefore)
	}
	log.Info("Downsampling complete",
		zap.Duration("duration", time.Since(start).Round(time.Second)),
		zap.String("output", simplifyOutput),
		zap.Int64("features", stats.Features),
		zap.Int64("out_of_domain", stats.OutOfDomain),
		zap.Float64("point_reduction_pct", reduction),
	)
}
