// File: pkg/ctlog/results.go
package ctlog

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// The only metric extracted from CT logs
const FCPMetric = "timeToFirstContentfulPaint"

var storyNumber = regexp.MustCompile(`\(#(\d+)\)`)

// TraceURLMismatchError reports histograms of one page run that point at different traces
type TraceURLMismatchError struct {
	Expected string
	Found    string
	Metric   string
	RunIndex int
}

func (e *TraceURLMismatchError) Error() string {
	return fmt.Sprintf("trace url mismatch for %s run %d: expected %q but found %q", e.Metric, e.RunIndex, e.Expected, e.Found)
}

// RunResult holds the metrics of a single page load
type RunResult struct {
	PageName string
	RunIndex int
	TraceURL string
	Metrics  map[string]float64
}

type runKey struct {
	url   string
	index int
}

// RunResults collects run results keyed by page URL and run index
type RunResults struct {
	runs    map[runKey]*RunResult
	metrics map[string]struct{}

	// Per metric, how many histograms aggregated more than one sample
	MultiValueCounts map[string]int
}

func newRunResults() *RunResults {
	return &RunResults{
		runs:             make(map[runKey]*RunResult),
		metrics:          make(map[string]struct{}),
		MultiValueCounts: make(map[string]int),
	}
}

// Groups histograms into per-run results. With generateRunIndex the run index is taken
// from the "(#N)" story suffix instead of storysetRepeats
func BuildRunResults(histograms []Histogram, generateRunIndex bool) (*RunResults, error) {
	res := newRunResults()

	for _, h := range histograms {
		avg := h.Field("avg")
		if avg == "" {
			continue
		}
		count, err := strconv.Atoi(h.Field("count"))
		if err != nil {
			return nil, fmt.Errorf("invalid histogram count %q: %w", h.Field("count"), err)
		}
		if count < 1 {
			continue
		}

		metric := h.Field("name")
		if metric != FCPMetric {
			continue
		}

		stories := h.Field("stories")
		url := strings.TrimSpace(strings.SplitN(stories, "(", 2)[0])

		runIndex, err := runIndexOf(h, stories, generateRunIndex)
		if err != nil {
			return nil, err
		}

		if count > 1 {
			res.MultiValueCounts[metric]++
		}

		value, err := strconv.ParseFloat(avg, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q: %w", metric, avg, err)
		}

		key := runKey{url: url, index: runIndex}
		traceURL := h.Field("traceUrls")
		run, ok := res.runs[key]
		if !ok {
			run = &RunResult{PageName: url, RunIndex: runIndex, TraceURL: traceURL, Metrics: make(map[string]float64)}
			res.runs[key] = run
		} else if run.TraceURL != traceURL {
			return nil, &TraceURLMismatchError{Expected: run.TraceURL, Found: traceURL, Metric: metric, RunIndex: runIndex}
		}
		run.Metrics[metric] = value
		res.metrics[metric] = struct{}{}
	}
	return res, nil
}

func runIndexOf(h Histogram, stories string, generate bool) (int, error) {
	if generate {
		m := storyNumber.FindStringSubmatch(stories)
		if m == nil {
			return 0, fmt.Errorf("story %q has no (#N) page number", stories)
		}
		return strconv.Atoi(m[1])
	}

	repeats := h.Field("storysetRepeats")
	idx, err := strconv.Atoi(repeats)
	if err != nil {
		return 0, fmt.Errorf("invalid storysetRepeats %q for %q: %w", repeats, stories, err)
	}
	return idx, nil
}

// Number of distinct runs
func (r *RunResults) Len() int {
	return len(r.runs)
}

// Metric names present in the results, sorted
func (r *RunResults) Metrics() []string {
	out := make([]string, 0, len(r.metrics))
	for m := range r.metrics {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Runs ordered by page URL, then run index
func (r *RunResults) Rows() []RunResult {
	rows := make([]RunResult, 0, len(r.runs))
	for _, run := range r.runs {
		rows = append(rows, *run)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].PageName != rows[j].PageName {
			return rows[i].PageName < rows[j].PageName
		}
		return rows[i].RunIndex < rows[j].RunIndex
	})
	return rows
}
