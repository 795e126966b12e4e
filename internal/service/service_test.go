package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voltct/internal/errs"
	"voltct/pkg/blob"
	"voltct/pkg/common"
	"voltct/pkg/ctrun"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRunSource struct {
	runs    []ctrun.Run
	err     error
	pingErr error
	calls   int
	pings   int
}

func (f *fakeRunSource) ListRuns(ctx context.Context) ([]ctrun.Run, error) {
	f.calls++
	return f.runs, f.err
}

func (f *fakeRunSource) Ping(ctx context.Context) error {
	f.pings++
	return f.pingErr
}

type fakeStore struct {
	mu        sync.Mutex
	objects   map[string]string
	requested []string
	bucket    blob.Bucket
	err       error
}

func (f *fakeStore) Download(ctx context.Context, loc blob.Location, w io.Writer) (int64, error) {
	f.mu.Lock()
	f.requested = append(f.requested, loc.String())
	f.mu.Unlock()

	content, ok := f.objects[loc.String()]
	if !ok {
		// Leave a partial write behind to prove the caller cleans up
		io.WriteString(w, "partial")
		return 0, fmt.Errorf("object %s not found", loc)
	}
	n, err := io.WriteString(w, content)
	return int64(n), err
}

func (f *fakeStore) DescribeBucket(ctx context.Context, name string) (blob.Bucket, error) {
	if f.err != nil {
		return blob.Bucket{}, f.err
	}
	b := f.bucket
	b.Name = name
	return b, nil
}

func (f *fakeStore) Close() error { return nil }

type fakeResolver struct {
	stores  map[string]blob.Store
	schemes []string
}

func (f *fakeResolver) GetStore(ctx context.Context, scheme string) (blob.Store, error) {
	f.schemes = append(f.schemes, scheme)
	store, ok := f.stores[scheme]
	if !ok {
		return nil, errs.Configurationf("blob store", "scheme '%s' is not configured", scheme)
	}
	return store, nil
}

func (f *fakeResolver) GetConfiguredSchemes() []string {
	var schemes []string
	for scheme := range f.stores {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)
	return schemes
}

func testOptions() RunsOptions {
	return RunsOptions{
		URLPrefix:     "https://ct.skia.org/results/",
		BlobPrefix:    "gs://",
		DefaultBucket: "cluster-telemetry",
		Concurrency:   2,
	}
}

func TestListRunsFiltersSince(t *testing.T) {
	src := &fakeRunSource{runs: []ctrun.Run{
		{ID: "1", TsCompleted: 20200301120000},
		{ID: "2", TsCompleted: 20200415000000},
		{ID: "3", TsCompleted: 20200601093000},
	}}
	svc := NewRunsService(src, &fakeResolver{}, testOptions(), discardLogger())

	runs, err := svc.ListRuns(context.Background(), "2020-04-15")
	require.NoError(t, err)

	var ids []string
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"2", "3"}, ids)
	assert.Equal(t, 1, src.calls)
}

func TestListRunsErrors(t *testing.T) {
	svc := NewRunsService(&fakeRunSource{}, &fakeResolver{}, testOptions(), discardLogger())
	_, err := svc.ListRuns(context.Background(), "15/04/2020")
	assert.Equal(t, errs.ExitConfiguration, errs.ExitCode(err))

	svc = NewRunsService(&fakeRunSource{err: errors.New("permission denied")}, &fakeResolver{}, testOptions(), discardLogger())
	_, err = svc.ListRuns(context.Background(), "")
	var connErr *errs.ConnectivityError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "datastore", connErr.Service)
}

func TestDownloadOutputs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "csv-outputs")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20200102000000.csv"), []byte("old"), 0o644))

	store := &fakeStore{objects: map[string]string{
		"gs://cluster-telemetry/tasks/a.csv": "page_name\nhttps://a.example\n",
		"gs://cluster-telemetry/tasks/c.csv": "page_name\nhttps://c.example\n",
	}}
	svc := NewRunsService(&fakeRunSource{}, &fakeResolver{stores: map[string]blob.Store{"gs": store}}, testOptions(), discardLogger())

	runs := []ctrun.Run{
		{TsCompleted: 20200101000000, RawOutput: "https://ct.skia.org/results/cluster-telemetry/tasks/a.csv"},
		{TsCompleted: 20200102000000, RawOutput: "https://ct.skia.org/results/cluster-telemetry/tasks/b.csv"},
		{TsCompleted: 20200103000000, RawOutput: "   "},
		{TsCompleted: 20200104000000, RawOutput: "https://ct.skia.org/results/cluster-telemetry/tasks/c.csv"},
	}

	report, err := svc.DownloadOutputs(context.Background(), runs, dir)
	require.NoError(t, err)

	sort.Strings(report.Downloaded)
	want := DownloadReport{
		Downloaded:      []string{filepath.Join(dir, "20200101000000.csv"), filepath.Join(dir, "20200104000000.csv")},
		SkippedExisting: []string{filepath.Join(dir, "20200102000000.csv")},
		SkippedEmpty:    []string{"20200103000000"},
		Bytes:           int64(len("page_name\nhttps://a.example\n") + len("page_name\nhttps://c.example\n")),
	}
	if diff := cmp.Diff(want, report); diff != "" {
		t.Errorf("DownloadOutputs() report mismatch (-want +got):\n%s", diff)
	}

	got, err := os.ReadFile(filepath.Join(dir, "20200101000000.csv"))
	require.NoError(t, err)
	assert.Equal(t, "page_name\nhttps://a.example\n", string(got))

	old, err := os.ReadFile(filepath.Join(dir, "20200102000000.csv"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(old), "existing files must not be overwritten")
	assert.NotContains(t, store.requested, "gs://cluster-telemetry/tasks/b.csv")
}

func TestDownloadOutputsFailureLeavesNoPartialFile(t *testing.T) {
	dir := t.TempDir()
	store := &fakeStore{objects: map[string]string{}}
	opts := testOptions()
	opts.Concurrency = 1
	svc := NewRunsService(&fakeRunSource{}, &fakeResolver{stores: map[string]blob.Store{"gs": store}}, opts, discardLogger())

	runs := []ctrun.Run{{TsCompleted: 20200101000000, RawOutput: "https://ct.skia.org/results/bucket/missing.csv"}}
	_, err := svc.DownloadOutputs(context.Background(), runs, dir)

	var connErr *errs.ConnectivityError
	require.ErrorAs(t, err, &connErr)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDownloadOutputsSkipsRepeatedTimestamp(t *testing.T) {
	dir := t.TempDir()
	store := &fakeStore{objects: map[string]string{
		"gs://b/first.csv":  "page_name\nhttps://first.example\n",
		"gs://b/second.csv": "page_name\nhttps://second.example\n",
	}}
	opts := testOptions()
	opts.Concurrency = 1
	svc := NewRunsService(&fakeRunSource{}, &fakeResolver{stores: map[string]blob.Store{"gs": store}}, opts, discardLogger())

	runs := []ctrun.Run{
		{TsCompleted: 20200101000000, RawOutput: "https://ct.skia.org/results/b/first.csv"},
		{TsCompleted: 20200101000000, RawOutput: "https://ct.skia.org/results/b/second.csv"},
	}

	report, err := svc.DownloadOutputs(context.Background(), runs, dir)
	require.NoError(t, err)

	path := filepath.Join(dir, "20200101000000.csv")
	assert.Equal(t, []string{path}, report.Downloaded)
	assert.Equal(t, []string{path}, report.SkippedExisting)
	assert.Equal(t, []string{"gs://b/first.csv"}, store.requested)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "page_name\nhttps://first.example\n", string(got))
}

func TestDownloadOutputsUnconfiguredScheme(t *testing.T) {
	svc := NewRunsService(&fakeRunSource{}, &fakeResolver{}, testOptions(), discardLogger())

	runs := []ctrun.Run{{TsCompleted: 20200101000000, RawOutput: "s3://mirror/a.csv"}}
	_, err := svc.DownloadOutputs(context.Background(), runs, t.TempDir())
	assert.Equal(t, errs.ExitConfiguration, errs.ExitCode(err))
}

func writeRunCSV(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestMergeOutputs(t *testing.T) {
	dir := t.TempDir()
	writeRunCSV(t, dir, "20200101000000.csv", "page_name,timeToFirstContentfulPaint (ms)\nhttps://old.example,1\n")
	writeRunCSV(t, dir, "20200201000000.csv", "page_name,timeToFirstContentfulPaint (ms)\nhttps://a.example (#1),812\n")
	writeRunCSV(t, dir, "README", "not a run")

	merged := filepath.Join(t.TempDir(), "out", "merged.csv")
	report, err := MergeOutputs(discardLogger(), dir, merged, "2020-02-01")
	require.NoError(t, err)

	assert.Equal(t, MergeReport{Files: 1, Rows: 1, Path: merged, Ignored: []string{"README"}}, report)

	got, err := os.ReadFile(merged)
	require.NoError(t, err)
	assert.Equal(t, "url,trace,run_date_str,FCP,TBT,CLS,LCP\nhttps://a.example,,2020-02-01,812,,,\n", string(got))
}

func TestMergeOutputsMissingDir(t *testing.T) {
	_, err := MergeOutputs(discardLogger(), filepath.Join(t.TempDir(), "nope"), filepath.Join(t.TempDir(), "m.csv"), "")
	assert.Error(t, err)
}

func TestFetch(t *testing.T) {
	dir := t.TempDir()
	src := &fakeRunSource{runs: []ctrun.Run{
		{TsCompleted: 20200101000000, RawOutput: "https://ct.skia.org/results/b/a.csv"},
	}}
	store := &fakeStore{objects: map[string]string{"gs://b/a.csv": "page_name,traceUrls\nhttps://a.example,gs://t/a\n"}}
	svc := NewRunsService(src, &fakeResolver{stores: map[string]blob.Store{"gs": store}}, testOptions(), discardLogger())

	merged := filepath.Join(dir, "merged.csv")
	report, err := svc.Fetch(context.Background(), "", filepath.Join(dir, "csv"), merged)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Runs)
	assert.Len(t, report.Download.Downloaded, 1)
	assert.Equal(t, 1, report.Merge.Rows)

	got, err := os.ReadFile(merged)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(got), "https://a.example,gs://t/a,2020-01-01,,,,\n"))
}

func TestCheck(t *testing.T) {
	store := &fakeStore{bucket: blob.Bucket{Provider: common.GCP, Location: "US", UsageBytes: 2048}}
	resolver := &fakeResolver{stores: map[string]blob.Store{"gs": store}}
	src := &fakeRunSource{}
	svc := NewRunsService(src, resolver, testOptions(), discardLogger())

	report, err := svc.Check(context.Background(), "skia-public", "")
	require.NoError(t, err)
	assert.Equal(t, 1, src.pings)
	assert.Equal(t, []string{"gs"}, report.Schemes)
	assert.Equal(t, "skia-public", report.ProjectID)
	assert.Equal(t, "cluster-telemetry", report.Bucket.Name)
	assert.Equal(t, int64(2048), report.Bucket.UsageBytes)
	assert.Equal(t, []string{"gs"}, resolver.schemes)
}

func TestCheckFailures(t *testing.T) {
	svc := NewRunsService(&fakeRunSource{pingErr: errors.New("unreachable")}, &fakeResolver{}, testOptions(), discardLogger())
	_, err := svc.Check(context.Background(), "p", "b")
	assert.Equal(t, errs.ExitConnectivity, errs.ExitCode(err))

	store := &fakeStore{err: errors.New("403 forbidden")}
	svc = NewRunsService(&fakeRunSource{}, &fakeResolver{stores: map[string]blob.Store{"gs": store}}, testOptions(), discardLogger())
	_, err = svc.Check(context.Background(), "p", "b")
	assert.Equal(t, errs.ExitConnectivity, errs.ExitCode(err))

	opts := testOptions()
	opts.DefaultBucket = ""
	svc = NewRunsService(&fakeRunSource{}, &fakeResolver{}, opts, discardLogger())
	_, err = svc.Check(context.Background(), "p", "")
	assert.Equal(t, errs.ExitConfiguration, errs.ExitCode(err))
}

func TestSchemeOf(t *testing.T) {
	assert.Equal(t, "gs", schemeOf("gs://"))
	assert.Equal(t, "s3", schemeOf("S3://mirror/"))
}
