package service

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voltct/pkg/ctlog"
)

const workerLog = `I0105 18:10:00.000000   26595 exec.go:74] Merging 1 csv files into 30 columns
I0105 18:10:08.017015   26595 exec.go:74] For rows: [{'name': 'timeToFirstContentfulPaint', 'avg': '812.5', 'count': '1', 'stories': 'https://a.example (#1)', 'storysetRepeats': '0', 'traceUrls': 'gs://t/a0'}]
I0105 18:10:08.017016   26595 util.go:40] unrelated
Avg row is {}
`

func writeLog(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLogsTransform(t *testing.T) {
	in := t.TempDir()
	first := writeLog(t, in, "worker1.log", workerLog)
	second := writeLog(t, in, "worker2.txt", "no marker here\n")
	outdir := filepath.Join(t.TempDir(), "csv")

	svc := NewLogsService(ctlog.DefaultExecLine, discardLogger())
	results, err := svc.Transform([]string{first, second}, outdir, false)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, filepath.Join(outdir, "worker1.csv"), results[0].Output)
	assert.Equal(t, 1, results[0].Histograms)
	assert.Equal(t, 1, results[0].Rows)
	assert.Equal(t, 0, results[1].Rows)

	got, err := os.ReadFile(results[0].Output)
	require.NoError(t, err)
	assert.Equal(t, "page_name,run_index,trace_url,timeToFirstContentfulPaint\nhttps://a.example,0,gs://t/a0,812.5\n", string(got))
}

func TestLogsTransformMerged(t *testing.T) {
	in := t.TempDir()
	first := writeLog(t, in, "a.log", workerLog)
	second := writeLog(t, in, "b.log", workerLog)
	merged := filepath.Join(t.TempDir(), "nested", "merged.csv")

	svc := NewLogsService(ctlog.DefaultExecLine, discardLogger())
	res, err := svc.TransformMerged([]string{first, second}, merged, true)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Histograms)
	assert.Equal(t, 2, res.Rows)

	got, err := os.ReadFile(merged)
	require.NoError(t, err)
	assert.Equal(t, "page_name,run_index,trace_url,timeToFirstContentfulPaint\n"+
		"https://a.example,1,gs://t/a0,812.5\n"+
		"https://a.example,1,gs://t/a0,812.5\n", string(got))
}

func TestLogsTransformMissingInput(t *testing.T) {
	svc := NewLogsService(ctlog.DefaultExecLine, discardLogger())
	_, err := svc.Transform([]string{filepath.Join(t.TempDir(), "missing.log")}, t.TempDir(), false)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
