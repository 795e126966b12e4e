// File: internal/service/logs_service.go
package service

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"voltct/pkg/ctlog"
)

// LogsService turns CT worker logs into per-run CSV files
type LogsService struct {
	extractor *ctlog.Extractor
	logger    *slog.Logger
}

func NewLogsService(execLine int, logger *slog.Logger) *LogsService {
	return &LogsService{
		extractor: ctlog.NewExtractor(execLine),
		logger:    logger.With("service", "LogsService"),
	}
}

// TransformResult describes one written CSV
type TransformResult struct {
	Inputs     []string
	Output     string
	Histograms int
	Rows       int
}

// Writes <outdir>/<input basename>.csv for every input log
func (s *LogsService) Transform(inputs []string, outdir string, generateRunIndex bool) ([]TransformResult, error) {
	s.logger.Debug("Starting Transform operation", "inputs", len(inputs), "outdir", outdir, "generate_run_index", generateRunIndex)

	if err := os.MkdirAll(outdir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating output directory: %w", err)
	}

	results := make([]TransformResult, 0, len(inputs))
	for _, input := range inputs {
		res, histograms, err := s.runResults(input, generateRunIndex)
		if err != nil {
			return results, err
		}

		base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		output := filepath.Join(outdir, base+".csv")
		rows, err := writeFileAtomic(output, func(f *os.File) (int, error) {
			return ctlog.WriteCSV(f, res)
		})
		if err != nil {
			return results, err
		}

		results = append(results, TransformResult{Inputs: []string{input}, Output: output, Histograms: histograms, Rows: rows})
	}
	return results, nil
}

// Writes the runs of every input log into the single file mergedFile
func (s *LogsService) TransformMerged(inputs []string, mergedFile string, generateRunIndex bool) (TransformResult, error) {
	s.logger.Debug("Starting TransformMerged operation", "inputs", len(inputs), "merged_file", mergedFile, "generate_run_index", generateRunIndex)

	all := make([]*ctlog.RunResults, 0, len(inputs))
	total := 0
	for _, input := range inputs {
		res, histograms, err := s.runResults(input, generateRunIndex)
		if err != nil {
			return TransformResult{}, err
		}
		all = append(all, res)
		total += histograms
	}

	rows, err := writeFileAtomic(mergedFile, func(f *os.File) (int, error) {
		return ctlog.WriteCSV(f, all...)
	})
	if err != nil {
		return TransformResult{}, err
	}
	return TransformResult{Inputs: inputs, Output: mergedFile, Histograms: total, Rows: rows}, nil
}

func (s *LogsService) runResults(input string, generateRunIndex bool) (*ctlog.RunResults, int, error) {
	f, err := os.Open(input)
	if err != nil {
		return nil, 0, fmt.Errorf("error opening log: %w", err)
	}
	defer f.Close()

	histograms, err := s.extractor.Extract(f)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", input, err)
	}
	s.logger.Info("Processed log", "file", input, "histograms", len(histograms))

	res, err := ctlog.BuildRunResults(histograms, generateRunIndex)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", input, err)
	}
	for metric, n := range res.MultiValueCounts {
		s.logger.Debug("Histograms aggregate more than one value", "file", input, "metric", metric, "count", n)
	}
	return res, len(histograms), nil
}
