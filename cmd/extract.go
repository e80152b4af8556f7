package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"

	"github.com/mgolesberg/osm-railway-conversion/internal/config"
	"github.com/mgolesberg/osm-railway-conversion/internal/extract"
	"github.com/mgolesberg/osm-railway-conversion/internal/logger"
	"github.com/mgolesberg/osm-railway-conversion/internal/model"
	"github.com/mgolesberg/osm-railway-conversion/internal/pipeline"
	"github.com/mgolesberg/osm-railway-conversion/internal/railfilter"
)

var bboxFlag string

var extractCmd = &cobra.Command{
	Use:   "extract <input.osm.pbf>",
	Short: "Extract railway elements from a PBF file to GeoJSON",
	Long: `Scan an OSM PBF file and write three GeoJSON collections:

  railways_nodes.geojson     tagged railway nodes as Point features
  railways_ways.geojson      railway ways: osm_id, node_ids, tags
                             (geometry is a placeholder until assembly)
  railways_relations.geojson railway relations: osm_id, member lists, tags

Selection uses the built-in railway tag rules unless --filter names a YAML
rules file.`,
	Args: cobra.ExactArgs(1),
	Run:  runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVar(&bboxFlag, "bbox", "", "Bounding box filter: minlon,minlat,maxlon,maxlat")
	extractCmd.Flags().StringVar(&cfg.FilterFile, "filter", "", "YAML file overriding the railway selection rules")
	extractCmd.Flags().BoolVar(&cfg.SkipNodes, "skip-nodes", false, "Skip node extraction")
	extractCmd.Flags().BoolVar(&cfg.SkipWays, "skip-ways", false, "Skip way extraction")
	extractCmd.Flags().BoolVar(&cfg.SkipRelations, "skip-relations", false, "Skip relation extraction")
}

func runExtract(cmd *cobra.Command, args []string) {
	cfg.InputFile = args[0]
	log := logger.Get()

	bbox, err := config.ParseBBox(bboxFlag)
	if err != nil {
		exitWithError("invalid bbox", err)
	}
	cfg.BBox = bbox

	if err := cfg.Validate(); err != nil {
		exitWithError("invalid configuration", err)
	}

	filter, err := loadFilter()
	if err != nil {
		exitWithError("failed to load filter rules", err)
	}

	log.Info("Starting railway extraction",
		zap.String("input", cfg.InputFile),
		zap.String("output", cfg.OutputDir),
		zap.Int("workers", cfg.Workers),
	)
	start := time.Now()

	ex := extract.NewExtractor(cfg, filter)
	ds, err := ex.Run(context.Background())
	if err != nil {
		exitWithError("extraction failed", err)
	}

	if err := writeDataset(ds); err != nil {
		exitWithError("failed to write extraction output", err)
	}

	log.Info("Extraction complete",
		zap.Duration("duration", time.Since(start).Round(time.Second)),
		zap.Int64("scanned", ds.Stats.Scanned),
		zap.Int64("railway_nodes", ds.Stats.RailwayNodes),
		zap.Int64("railway_ways", ds.Stats.RailwayWays),
		zap.Int64("railway_relations", ds.Stats.RailwayRelations),
	)
}

// loadFilter builds the railway selection filter from configuration
func loadFilter() (*railfilter.Filter, error) {
	filterCfg := railfilter.DefaultConfig()
	if cfg.FilterFile != "" {
		loaded, err := railfilter.LoadConfig(cfg.FilterFile)
		if err != nil {
			return nil, err
		}
		filterCfg = loaded
	}
	return railfilter.New(filterCfg), nil
}

// writeDataset writes the three extraction collections
func writeDataset(ds *extract.Dataset) error {
	if !cfg.SkipNodes {
		if err := writeFeatureFile(pipeline.NodesFile, ds.NodeFeatures); err != nil {
			return err
		}
	}
	if !cfg.SkipWays {
		features := make([]*geojson.Feature, 0, len(ds.Ways))
		for _, w := range ds.Ways {
			features = append(features, w.Feature())
		}
		if err := writeFeatureFile(pipeline.WaysFile, features); err != nil {
			return err
		}
	}
	if !cfg.SkipRelations {
		features := make([]*geojson.Feature, 0, len(ds.Relations))
		for _, r := range ds.Relations {
			features = append(features, r.Feature())
		}
		if err := writeFeatureFile(pipeline.RelationsFile, features); err != nil {
			return err
		}
	}
	return nil
}

// writeFeatureFile writes a feature collection into the output directory
func writeFeatureFile(name string, features []*geojson.Feature) error {
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	fc := geojson.NewFeatureCollection()
	fc.Features = features

	path := filepath.Join(cfg.OutputDir, name)
	if err := model.WriteCollection(path, fc, cfg.Compact); err != nil {
		return err
	}
	logger.Get().Info("Wrote feature collection",
		zap.String("path", path),
		zap.Int("features", len(features)))
	return nil
}
