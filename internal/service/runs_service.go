// File: internal/service/runs_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"voltct/internal/config"
	"voltct/internal/errs"
	"voltct/pkg/blob"
	"voltct/pkg/ctrun"
)

// RunSource reads the CT analysis tasks of the configured group
type RunSource interface {
	ListRuns(ctx context.Context) ([]ctrun.Run, error)
	// Confirms the source answers queries
	Ping(ctx context.Context) error
}

// StoreResolver hands out the blob store serving a URL scheme
type StoreResolver interface {
	GetStore(ctx context.Context, scheme string) (blob.Store, error)
	GetConfiguredSchemes() []string
}

// RunsOptions carries the settings of the run workflow
type RunsOptions struct {
	URLPrefix     string
	BlobPrefix    string
	DefaultBucket string
	Concurrency   int
	Timeout       time.Duration
}

func RunsOptionsFromConfig(cfg *config.Config) RunsOptions {
	return RunsOptions{
		URLPrefix:     cfg.Results.URLPrefix,
		BlobPrefix:    cfg.Results.BlobPrefix,
		DefaultBucket: cfg.Results.Bucket,
		Concurrency:   cfg.Download.Concurrency,
		Timeout:       cfg.Download.Timeout,
	}
}

type RunsService struct {
	runs   RunSource
	blobs  StoreResolver
	opts   RunsOptions
	logger *slog.Logger
}

func NewRunsService(runs RunSource, blobs StoreResolver, opts RunsOptions, logger *slog.Logger) *RunsService {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &RunsService{
		runs:   runs,
		blobs:  blobs,
		opts:   opts,
		logger: logger.With("service", "RunsService"),
	}
}

// DownloadReport lists what happened to each run's output
type DownloadReport struct {
	Downloaded      []string // local paths written
	SkippedExisting []string // local paths already present
	SkippedEmpty    []string // completion timestamps of runs without output
	Bytes           int64
}

// MergeReport describes one merged CSV
type MergeReport struct {
	Files   int
	Rows    int
	Path    string
	Ignored []string
}

type FetchReport struct {
	Runs     int
	Download DownloadReport
	Merge    MergeReport
}

// CheckReport describes the reachable backends
type CheckReport struct {
	ProjectID string
	Bucket    blob.Bucket
	// Blob URL schemes the current identity and config can serve
	Schemes []string
}

// ParseSince converts a yyyy-mm-dd date (empty for no bound) into a CT timestamp
func ParseSince(since string) (int64, error) {
	ts, err := ctrun.DateStringToCTTime(since)
	if err != nil {
		return 0, errs.Configuration("parse since", err)
	}
	return ts, nil
}

// Lists the group's runs completed on or after since (yyyy-mm-dd, empty for all)
func (s *RunsService) ListRuns(ctx context.Context, since string) ([]ctrun.Run, error) {
	ts, err := ParseSince(since)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Starting ListRuns operation", "since", ts)

	runs, err := s.runs.ListRuns(ctx)
	if err != nil {
		s.logger.Error("Failed to list runs", "error", err)
		return nil, errs.Connectivity("datastore", err)
	}
	return ctrun.FilterSince(runs, ts), nil
}

// Downloads each run's CSV output into dir as <TsCompleted>.csv. Runs without
// output, files already present and repeated completion timestamps are skipped;
// the first failure cancels the rest
func (s *RunsService) DownloadOutputs(ctx context.Context, runs []ctrun.Run, dir string) (DownloadReport, error) {
	s.logger.Debug("Starting DownloadOutputs operation", "runs", len(runs), "dir", dir, "concurrency", s.opts.Concurrency)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return DownloadReport{}, fmt.Errorf("error creating output directory: %w", err)
	}

	var (
		mu     sync.Mutex
		report DownloadReport
		// Paths already scheduled in this call; a pending download has no file yet
		claimed = make(map[string]bool)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for _, run := range runs {
		if gctx.Err() != nil {
			break
		}

		rawURL, ok := ctrun.OutputURL(run.RawOutput, s.opts.URLPrefix, s.opts.BlobPrefix)
		if !ok {
			s.logger.Info("No url found, skipping", "run", run.TsCompleted)
			mu.Lock()
			report.SkippedEmpty = append(report.SkippedEmpty, fmt.Sprint(run.TsCompleted))
			mu.Unlock()
			continue
		}

		path := filepath.Join(dir, run.OutputFileName())
		mu.Lock()
		seen := claimed[path]
		claimed[path] = true
		mu.Unlock()
		if seen {
			s.logger.Info("Output already scheduled, skipping download", "path", path)
			mu.Lock()
			report.SkippedExisting = append(report.SkippedExisting, path)
			mu.Unlock()
			continue
		}

		if _, err := os.Stat(path); err == nil {
			s.logger.Info("Output already exists, skipping download", "path", path)
			mu.Lock()
			report.SkippedExisting = append(report.SkippedExisting, path)
			mu.Unlock()
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			g.Wait()
			return report, fmt.Errorf("error checking %s: %w", path, err)
		}

		g.Go(func() error {
			n, err := s.download(gctx, rawURL, dir, path)
			if err != nil {
				return err
			}

			mu.Lock()
			report.Downloaded = append(report.Downloaded, path)
			report.Bytes += n
			mu.Unlock()

			s.logger.Info("Downloaded csv", "path", path, "bytes", n)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}
	return report, nil
}

// Streams one object into path through a temporary file so a failed download leaves nothing behind
func (s *RunsService) download(ctx context.Context, rawURL, dir, path string) (int64, error) {
	loc, err := blob.ParseLocation(rawURL)
	if err != nil {
		return 0, errs.Configuration("map run output", err)
	}

	store, err := s.blobs.GetStore(ctx, loc.Scheme)
	if err != nil {
		return 0, err
	}

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	tmp, err := os.CreateTemp(dir, ".download-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("error creating temporary file: %w", err)
	}
	tmpName := tmp.Name()

	n, err := store.Download(ctx, loc, tmp)
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("error writing %s: %w", tmpName, closeErr)
	}
	if err != nil {
		os.Remove(tmpName)
		s.logger.Error("Failed to download run output", "url", loc.String(), "error", err)
		return 0, errs.Connectivity(loc.Scheme+" blob store", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("error moving download into place: %w", err)
	}
	return n, nil
}

// Merges the run CSVs in dir completed on or after since into mergedFile
func (s *RunsService) MergeOutputs(dir, mergedFile, since string) (MergeReport, error) {
	return MergeOutputs(s.logger, dir, mergedFile, since)
}

// Merges local run CSVs; needs no cloud access
func MergeOutputs(logger *slog.Logger, dir, mergedFile, since string) (MergeReport, error) {
	ts, err := ParseSince(since)
	if err != nil {
		return MergeReport{}, err
	}

	logger.Debug("Starting MergeOutputs operation", "dir", dir, "merged_file", mergedFile, "since", ts)

	files, ignored, err := ctrun.ListOutputFiles(dir, ts)
	if err != nil {
		return MergeReport{}, err
	}
	for _, name := range ignored {
		logger.Warn("Ignoring file that is not named after a CT timestamp", "file", name)
	}

	rows, err := writeFileAtomic(mergedFile, func(f *os.File) (int, error) {
		return ctrun.MergeOutputs(files, f)
	})
	if err != nil {
		return MergeReport{}, err
	}

	return MergeReport{Files: len(files), Rows: rows, Path: mergedFile, Ignored: ignored}, nil
}

// Lists, downloads and merges in one go
func (s *RunsService) Fetch(ctx context.Context, since, dir, mergedFile string) (FetchReport, error) {
	runs, err := s.ListRuns(ctx, since)
	if err != nil {
		return FetchReport{}, err
	}

	dl, err := s.DownloadOutputs(ctx, runs, dir)
	if err != nil {
		return FetchReport{Runs: len(runs), Download: dl}, err
	}

	merged, err := s.MergeOutputs(dir, mergedFile, since)
	return FetchReport{Runs: len(runs), Download: dl, Merge: merged}, err
}

// Confirms Datastore answers queries and describes bucket (the configured results bucket when empty)
func (s *RunsService) Check(ctx context.Context, projectID, bucket string) (CheckReport, error) {
	if bucket == "" {
		bucket = s.opts.DefaultBucket
	}
	if bucket == "" {
		return CheckReport{}, errs.Configurationf("check", "no bucket given; use --bucket or 'voltct config set results.bucket <name>'")
	}

	s.logger.Debug("Starting Check operation", "bucket", bucket)

	if err := s.runs.Ping(ctx); err != nil {
		return CheckReport{}, errs.Connectivity("datastore", err)
	}

	store, err := s.blobs.GetStore(ctx, schemeOf(s.opts.BlobPrefix))
	if err != nil {
		return CheckReport{}, err
	}

	details, err := store.DescribeBucket(ctx, bucket)
	if err != nil {
		s.logger.Error("Failed to describe bucket", "bucket", bucket, "error", err)
		return CheckReport{}, errs.Connectivity(schemeOf(s.opts.BlobPrefix)+" blob store", err)
	}

	return CheckReport{ProjectID: projectID, Bucket: details, Schemes: s.blobs.GetConfiguredSchemes()}, nil
}

// Returns the URL scheme of a blob prefix such as "gs://"
func schemeOf(prefix string) string {
	scheme, _, _ := strings.Cut(prefix, "://")
	return strings.ToLower(scheme)
}
