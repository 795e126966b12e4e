// File: pkg/ctlog/histogram.go
package ctlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Default line number of the exec.go logger that splits long CT output lines
const DefaultExecLine = 74

var (
	mergeMarker = regexp.MustCompile(`Merging \d+ csv files into \d+ columns`)
	foreignLine = regexp.MustCompile(`\n[EI][^\n]*?\.go:\d+\] [^\n]*\n`)
	rowsBlock   = regexp.MustCompile(`(?s)For rows: (.*?)Avg row is`)
	errNotAList = errors.New("rows block is not a list")
	errNotADict = errors.New("histogram is not a dict")
)

// Histogram is one CT "row": a flat record of Telemetry histogram fields
type Histogram map[string]any

// Returns the field rendered as a string, or "" when absent or None
func (h Histogram) Field(name string) string {
	switch v := h[name].(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return FormatFloat(v)
	case bool:
		if v {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(v)
	}
}

// Extractor pulls histograms out of CT worker logs
type Extractor struct {
	continuation *regexp.Regexp
}

// Creates an Extractor that strips continuation prefixes written by exec.go at execLine
func NewExtractor(execLine int) *Extractor {
	if execLine <= 0 {
		execLine = DefaultExecLine
	}
	return &Extractor{
		continuation: regexp.MustCompile(fmt.Sprintf(`\nI[^\n]*exec\.go:%d\] `, execLine)),
	}
}

// Reads a worker log and returns every histogram printed after the merge marker.
// A log without the marker yields no histograms
func (e *Extractor) Extract(r io.Reader) ([]Histogram, error) {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if mergeMarker.MatchString(line) {
			break
		}
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("error reading log: %w", err)
		}
	}

	rest, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("error reading log: %w", err)
	}

	logs := e.continuation.ReplaceAllString(string(rest), "\n")
	logs = stripForeignLines(logs)
	logs = strings.ReplaceAll(logs, "\n", "")

	var out []Histogram
	for i, m := range rowsBlock.FindAllStringSubmatch(logs, -1) {
		hs, err := parseRows(m[1])
		if err != nil {
			return nil, fmt.Errorf("error parsing rows block %d: %w", i+1, err)
		}
		out = append(out, hs...)
	}
	return out, nil
}

// Removes glog lines written by other sources. Only lines with a newline on both
// sides count; each match consumes the closing newline, which hides an adjacent
// foreign line until the next pass
func stripForeignLines(s string) string {
	for {
		next := foreignLine.ReplaceAllString(s, "\n\n")
		if next == s {
			return s
		}
		s = next
	}
}

// Extracts histograms using the default exec.go line number
func ExtractHistograms(r io.Reader) ([]Histogram, error) {
	return NewExtractor(DefaultExecLine).Extract(r)
}

func parseRows(block string) ([]Histogram, error) {
	v, err := ParseLiteral(strings.TrimSpace(block))
	if err != nil {
		return nil, err
	}
	items, ok := v.([]any)
	if !ok {
		return nil, errNotAList
	}

	hs := make([]Histogram, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, errNotADict
		}
		hs = append(hs, Histogram(m))
	}
	return hs, nil
}

// Formats a metric value the way Python's str(float) does for ordinary magnitudes
func FormatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEIN") {
		s += ".0"
	}
	return s
}
