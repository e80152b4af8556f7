package cmd

import (
	"context"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/spf13/cobra"

	"github.com/mgolesberg/osm-railway-conversion/internal/extract"
	"github.com/mgolesberg/osm-railway-conversion/internal/logger"
	"github.com/mgolesberg/osm-railway-conversion/internal/model"
	"github.com/mgolesberg/osm-railway-conversion/internal/pipeline"
)

var (
	waysPath      string
	relationsPath string
)

var assembleCmd = &cobra.Command{
	Use:   "assemble <input.osm.pbf>",
	Short: "Resolve coordinates and merge railway routes into polylines",
	Long: `Read the extracted way and relation collections, resolve node
coordinates from the PBF file, and assemble route geometries:

  - each way's node references become a Point or LineString
  - each relation's member lines merge into the minimal set of continuous
    polylines (LineString, or MultiLineString for disjoint routes)
  - ways never used by any relation are emitted as standalone features

The result is written to railways_combined.geojson.`,
	Args: cobra.ExactArgs(1),
	Run:  runAssemble,
}

func init() {
	rootCmd.AddCommand(assembleCmd)

	assembleCmd.Flags().StringVar(&waysPath, "ways", "", "Path to the ways collection (default: <output-dir>/"+pipeline.WaysFile+")")
	assembleCmd.Flags().StringVar(&relationsPath, "relations", "", "Path to the relations collection (default: <output-dir>/"+pipeline.RelationsFile+")")
	assembleCmd.Flags().StringVar(&cfg.FlatNodesFile, "flat-nodes", "", "Back the node store with a mmap file (for planet-scale inputs)")
}

func runAssemble(cmd *cobra.Command, args []string) {
	cfg.InputFile = args[0]
	log := logger.Get()

	if err := cfg.Validate(); err != nil {
		exitWithError("invalid configuration", err)
	}
	if waysPath == "" {
		waysPath = filepath.Join(cfg.OutputDir, pipeline.WaysFile)
	}
	if relationsPath == "" {
		relationsPath = filepath.Join(cfg.OutputDir, pipeline.RelationsFile)
	}

	start := time.Now()

	ways, err := loadWays(waysPath)
	if err != nil {
		exitWithError("failed to load ways", err)
	}
	relations, err := loadRelations(relationsPath)
	if err != nil {
		exitWithError("failed to load relations", err)
	}

	log.Info("Starting route assembly",
		zap.String("input", cfg.InputFile),
		zap.Int("ways", len(ways)),
		zap.Int("relations", len(relations)),
		zap.Int("workers", cfg.Workers),
	)

	ctx := context.Background()
	ex := extract.NewExtractor(cfg, nil)

	resolver, err := pipeline.BuildResolver(ctx, cfg, ex, ways)
	if err != nil {
		exitWithError("coordinate resolution failed", err)
	}
	defer resolver.Close()

	features, stats, err := pipeline.AssembleAll(ctx, cfg, resolver, ways, relations)
	if err != nil {
		exitWithError("assembly failed", err)
	}

	if err := writeFeatureFile(pipeline.CombinedFile, features); err != nil {
		exitWithError("failed to write combined output", err)
	}

	log.Info("Assembly complete",
		zap.Duration("duration", time.Since(start).Round(time.Second)),
		zap.Int("features", len(features)),
		zap.Int("merged_relations", stats.Merged),
		zap.Int("fallback_relations", stats.Fallback),
		zap.Int("standalone_ways", stats.Standalone),
	)
}

// loadWays reads a ways collection and decodes the way records
func loadWays(path string) ([]*model.Way, error) {
	fc, err := model.ReadCollection(path)
	if err != nil {
		return nil, err
	}

	ways := make([]*model.Way, 0, len(fc.Features))
	for _, f := range fc.Features {
		w, err := model.WayFromFeature(f)
		if err != nil {
			logger.Get().Warn("Skipping malformed way record", zap.Error(err))
			continue
		}
		ways = append(ways, w)
	}
	return ways, nil
}

// loadRelations reads a relations collection and decodes the records
func loadRelations(path string) ([]*model.Relation, error) {
	fc, err := model.ReadCollection(path)
	if err != nil {
		return nil, err
	}

	relations := make([]*model.Relation, 0, len(fc.Features))
	for _, f := range fc.Features {
		r, err := model.RelationFromFeature(f)
		if err != nil {
			logger.Get().Warn("Skipping malformed relation record", zap.Error(err))
			continue
		}
		relations = append(relations, r)
	}
	return relations, nil
}
