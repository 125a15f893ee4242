package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"rankdelta/internal/config"
	"rankdelta/internal/dataprocessing"
	apperrors "rankdelta/internal/errors"
	"rankdelta/internal/exporter"
	"rankdelta/internal/files"
	"rankdelta/internal/infrastructure"
)

// Fallback date labels when a snapshot path carries no date token.
const (
	fallbackDay1Label = "Day1"
	fallbackDay2Label = "Day2"
)

// Runner composes discovery, reading, normalization, ranking, merging and
// export into one pipeline run. Runs are serialized: a run triggered while
// another is executing queues on the run mutex instead of interleaving.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger

	reader     *dataprocessing.Reader
	normalizer *dataprocessing.Normalizer
	discovery  *files.Discovery
	writer     *exporter.ExcelWriter

	runMu sync.Mutex
}

// NewRunner creates a pipeline runner for the given configuration.
func NewRunner(cfg *config.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		cfg:        cfg,
		logger:     logger,
		reader:     dataprocessing.NewReader(cfg.Pipeline, logger),
		normalizer: dataprocessing.NewNormalizer(cfg.Pipeline.ColumnMarkers),
		discovery:  files.NewDiscovery(cfg.Pipeline.DataDir, cfg.Pipeline.InputExtensions),
		writer:     exporter.NewExcelWriter(logger),
	}
}

// Run executes one pipeline run and returns the output file path. When
// explicitInputs is non-empty it bypasses discovery; otherwise the newest
// files in the data directory are used. The two most recent paths become
// day1 and day2.
func (r *Runner) Run(ctx context.Context, explicitInputs []string) (string, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	ctx = infrastructure.WithRunID(ctx, uuid.NewString())
	pcfg := r.cfg.Pipeline

	if err := os.MkdirAll(pcfg.ProcessedDir, 0755); err != nil {
		return "", apperrors.NewStorageError("failed to create processed directory", err)
	}

	paths, err := r.discovery.Prepare(explicitInputs, pcfg.MinInputs)
	if err != nil {
		return "", err
	}
	day1Path, day2Path := paths[len(paths)-2], paths[len(paths)-1]

	r.logger.InfoContext(ctx, "pipeline run started",
		slog.String("day1_path", day1Path),
		slog.String("day2_path", day2Path))

	day1, err := r.loadSnapshot(ctx, day1Path)
	if err != nil {
		return "", err
	}
	day2, err := r.loadSnapshot(ctx, day2Path)
	if err != nil {
		return "", err
	}

	day1Label := dataprocessing.ExtractDateLabel(day1Path, fallbackDay1Label)
	day2Label := dataprocessing.ExtractDateLabel(day2Path, fallbackDay2Label)

	rangeCols := dataprocessing.RangeColumns(day2, pcfg.RangeColumns.Start, pcfg.RangeColumns.End)

	merged, err := dataprocessing.Merge(day1, day2, day1Label, day2Label, rangeCols)
	if err != nil {
		return "", err
	}

	outputName := strings.NewReplacer(
		"{day1}", day1Label,
		"{day2}", day2Label,
	).Replace(pcfg.OutputNameTemplate)
	outputPath := filepath.Join(pcfg.ProcessedDir, outputName)

	if err := r.writer.Write(outputPath, merged); err != nil {
		return "", err
	}

	r.logger.InfoContext(ctx, "pipeline run finished",
		slog.String("output_path", outputPath),
		slog.Int("merged_rows", merged.Len()))
	return outputPath, nil
}

// loadSnapshot reads, normalizes and ranks one snapshot file.
func (r *Runner) loadSnapshot(ctx context.Context, path string) (*dataprocessing.Table, error) {
	table, err := r.reader.Read(path)
	if err != nil {
		return nil, err
	}
	if err := r.normalizer.Normalize(table); err != nil {
		return nil, err
	}
	if err := dataprocessing.Rank(table, dataprocessing.ColRank); err != nil {
		return nil, err
	}

	r.logger.DebugContext(ctx, "snapshot loaded",
		slog.String("path", path),
		slog.Int("rows", table.Len()))
	return table, nil
}
