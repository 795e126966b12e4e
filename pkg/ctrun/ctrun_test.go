package ctrun

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateStringToCTTime(t *testing.T) {
	ts, err := DateStringToCTTime("2020-04-15")
	require.NoError(t, err)
	assert.Equal(t, int64(20200415000000), ts)

	ts, err = DateStringToCTTime("")
	require.NoError(t, err)
	assert.Zero(t, ts)

	for _, bad := range []string{"2020/04/15", "15-04-2020", "2020-4-15", "2020-13-01", "yesterday"} {
		_, err := DateStringToCTTime(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, bad)
	}
}

func TestCTTimeToDateString(t *testing.T) {
	assert.Equal(t, "2020-04-15", CTTimeToDateString(20200415103000))
	assert.Equal(t, "2020-04-15", CTTimeToDateString(20200415000000))
	assert.Equal(t, "123", CTTimeToDateString(123))

	ts, err := DateStringToCTTime(CTTimeToDateString(20191231235959))
	require.NoError(t, err)
	assert.Equal(t, int64(20191231000000), ts)
}

func TestFilterSince(t *testing.T) {
	runs := []Run{
		{ID: "a", TsCompleted: 20200101000000},
		{ID: "b", TsCompleted: 20200415000000},
		{ID: "c", TsCompleted: 20200601120000},
	}

	assert.Len(t, FilterSince(runs, 0), 3)

	kept := FilterSince(runs, 20200415000000)
	require.Len(t, kept, 2)
	assert.Equal(t, "b", kept[0].ID)
	assert.Equal(t, "c", kept[1].ID)
}

func TestOutputURL(t *testing.T) {
	const prefix = "https://ct.skia.org/results/"

	got, ok := OutputURL(" https://ct.skia.org/results/cluster-telemetry/tasks/out.csv\n", prefix, "gs://")
	require.True(t, ok)
	assert.Equal(t, "gs://cluster-telemetry/tasks/out.csv", got)

	got, ok = OutputURL("s3://mirror/out.csv", prefix, "gs://")
	require.True(t, ok)
	assert.Equal(t, "s3://mirror/out.csv", got)

	_, ok = OutputURL("   ", prefix, "gs://")
	assert.False(t, ok)

	run := Run{TsCompleted: 20200415103000, RawOutput: " "}
	assert.False(t, run.HasOutput())
	assert.Equal(t, "20200415103000.csv", run.OutputFileName())
	assert.Equal(t, "2020-04-15", run.CompletedDate())
}

func TestCleanRow(t *testing.T) {
	got := CleanRow(map[string]string{
		"page_name":                       "https://example.com (#3)",
		"run_date_str":                    "2020-04-15",
		"traceUrls":                       "gs://traces/1.html",
		"timeToFirstContentfulPaint (ms)": "812.5",
		"totalBlockingTime (ms)":          "120",
		"unrelated":                       "x",
	})

	want := map[string]string{
		"url":          "https://example.com",
		"run_date_str": "2020-04-15",
		"trace":        "gs://traces/1.html",
		"FCP":          "812.5",
		"TBT":          "120",
		"LCP":          "",
		"CLS":          "",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CleanRow() mismatch (-want +got):\n%s", diff)
	}
}

func writeCSV(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestListAndMergeOutputs(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "20200601000000.csv",
		"page_name,traceUrls,timeToFirstContentfulPaint (ms),totalBlockingTime (ms),largestContentfulPaint (ms),mainFrameCumulativeLayoutShift\n"+
			"https://b.example (#1),gs://t/b.html,900,10,1500,0.1\n")
	writeCSV(t, dir, "20200101000000.csv",
		"page_name,timeToFirstContentfulPaint (ms)\n"+
			"https://old.example,700\n")
	writeCSV(t, dir, "20200415103000.csv",
		"page_name,timeToFirstContentfulPaint (ms),traceUrls\n"+
			"https://a.example extra,800,gs://t/a.html\n"+
			"https://a2.example,801\n")
	writeCSV(t, dir, "notes.txt", "ignore me")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	files, ignored, err := ListOutputFiles(dir, 20200415000000)
	require.NoError(t, err)
	assert.Equal(t, []string{"notes.txt"}, ignored)
	require.Len(t, files, 2)
	assert.Equal(t, int64(20200415103000), files[0].TsCompleted)
	assert.Equal(t, int64(20200601000000), files[1].TsCompleted)

	var buf bytes.Buffer
	rows, err := MergeOutputs(files, &buf)
	require.NoError(t, err)
	assert.Equal(t, 3, rows)

	want := "url,trace,run_date_str,FCP,TBT,CLS,LCP\n" +
		"https://a.example,gs://t/a.html,2020-04-15,800,,,\n" +
		"https://a2.example,,2020-04-15,801,,,\n" +
		"https://b.example,gs://t/b.html,2020-06-01,900,10,0.1,1500\n"
	assert.Equal(t, want, buf.String())
}

func TestMergeOutputsEmpty(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "20200415000000.csv", "")

	files, _, err := ListOutputFiles(dir, 0)
	require.NoError(t, err)

	var buf bytes.Buffer
	rows, err := MergeOutputs(files, &buf)
	require.NoError(t, err)
	assert.Zero(t, rows)
	assert.Equal(t, "url,trace,run_date_str,FCP,TBT,CLS,LCP\n", buf.String())
}
