// File: pkg/ctrun/merge.go
package ctrun

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Source column → merged column, in merge order
var ColumnMap = []struct {
	From string
	To   string
}{
	{"traceUrls", "trace"},
	{"timeToFirstContentfulPaint (ms)", "FCP"},
	{"totalBlockingTime (ms)", "TBT"},
	{"largestContentfulPaint (ms)", "LCP"},
	{"mainFrameCumulativeLayoutShift", "CLS"},
}

var MergedFields = []string{"url", "trace", "run_date_str", "FCP", "TBT", "CLS", "LCP"}

// Reduces a source row to the merged columns. Columns missing in older CSVs stay empty
func CleanRow(in map[string]string) map[string]string {
	url := ""
	if fields := strings.Fields(in["page_name"]); len(fields) > 0 {
		url = fields[0]
	}

	out := map[string]string{
		"url":          url,
		"run_date_str": in["run_date_str"],
	}
	for _, col := range ColumnMap {
		out[col.To] = in[col.From]
	}
	return out
}

// OutputFile is a downloaded run CSV named <TsCompleted>.csv
type OutputFile struct {
	Path        string
	TsCompleted int64
}

// Lists the run CSVs in dir completed at or after since, oldest first.
// Names that are not CT timestamps are returned separately
func ListOutputFiles(dir string, since int64) ([]OutputFile, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("error reading output directory: %w", err)
	}

	var files []OutputFile
	var ignored []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		base := strings.SplitN(entry.Name(), ".", 2)[0]
		ts, err := ParseCTTime(base)
		if err != nil {
			ignored = append(ignored, entry.Name())
			continue
		}
		if since != 0 && ts < since {
			continue
		}
		files = append(files, OutputFile{Path: filepath.Join(dir, entry.Name()), TsCompleted: ts})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].TsCompleted != files[j].TsCompleted {
			return files[i].TsCompleted < files[j].TsCompleted
		}
		return files[i].Path < files[j].Path
	})
	return files, ignored, nil
}

// Writes the merged CSV for files to w and returns the number of data rows
func MergeOutputs(files []OutputFile, w io.Writer) (int, error) {
	writer := csv.NewWriter(w)
	if err := writer.Write(MergedFields); err != nil {
		return 0, fmt.Errorf("error writing merged header: %w", err)
	}

	rows := 0
	for _, file := range files {
		n, err := mergeFile(file, writer)
		rows += n
		if err != nil {
			return rows, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return rows, fmt.Errorf("error writing merged CSV: %w", err)
	}
	return rows, nil
}

func mergeFile(file OutputFile, writer *csv.Writer) (int, error) {
	f, err := os.Open(file.Path)
	if err != nil {
		return 0, fmt.Errorf("error opening %s: %w", file.Path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("error reading header of %s: %w", file.Path, err)
	}

	runDate := CTTimeToDateString(file.TsCompleted)
	rows := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rows, fmt.Errorf("error reading %s: %w", file.Path, err)
		}

		row := make(map[string]string, len(header)+1)
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			}
		}
		row["run_date_str"] = runDate

		cleaned := CleanRow(row)
		out := make([]string, len(MergedFields))
		for i, name := range MergedFields {
			out[i] = cleaned[name]
		}
		if err := writer.Write(out); err != nil {
			return rows, fmt.Errorf("error writing merged row: %w", err)
		}
		rows++
	}
	return rows, nil
}
