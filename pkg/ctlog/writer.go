// File: pkg/ctlog/writer.go
package ctlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// Fixed leading columns of a run results CSV
var BaseFields = []string{"page_name", "run_index", "trace_url"}

// Writes one CSV holding the runs of every result set and returns the number of data rows.
// Metric columns are the sorted union of all result sets
func WriteCSV(w io.Writer, results ...*RunResults) (int, error) {
	metricSet := make(map[string]struct{})
	for _, r := range results {
		for _, m := range r.Metrics() {
			metricSet[m] = struct{}{}
		}
	}
	metrics := make([]string, 0, len(metricSet))
	for m := range metricSet {
		metrics = append(metrics, m)
	}
	sort.Strings(metrics)

	cw := csv.NewWriter(w)
	header := append(append([]string{}, BaseFields...), metrics...)
	if err := cw.Write(header); err != nil {
		return 0, fmt.Errorf("error writing csv header: %w", err)
	}

	rows := 0
	for _, r := range results {
		for _, run := range r.Rows() {
			record := make([]string, 0, len(header))
			record = append(record, run.PageName, strconv.Itoa(run.RunIndex), run.TraceURL)
			for _, m := range metrics {
				if v, ok := run.Metrics[m]; ok {
					record = append(record, FormatFloat(v))
				} else {
					record = append(record, "")
				}
			}
			if err := cw.Write(record); err != nil {
				return rows, fmt.Errorf("error writing csv row: %w", err)
			}
			rows++
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return rows, fmt.Errorf("error flushing csv: %w", err)
	}
	return rows, nil
}
