// File: pkg/formatter/run_formatter.go
package formatter

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"voltct/pkg/ctrun"
)

type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

var outputFormats = []OutputFormat{FormatTable, FormatJSON, FormatYAML}

// Parses an --output value; empty selects the table
func ParseOutputFormat(s string) (OutputFormat, error) {
	if s == "" {
		return FormatTable, nil
	}
	for _, f := range outputFormats {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported output format %q, use one of %v", s, outputFormats)
}

type RunFormatter struct{}

func NewRunFormatter() *RunFormatter {
	return &RunFormatter{}
}

func (f *RunFormatter) FormatRuns(runs []ctrun.Run, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		if runs == nil {
			runs = []ctrun.Run{}
		}
		out, err := json.MarshalIndent(runs, "", "  ")
		if err != nil {
			return "", fmt.Errorf("error encoding runs as JSON: %w", err)
		}
		return string(out) + "\n", nil
	case FormatYAML:
		if runs == nil {
			runs = []ctrun.Run{}
		}
		out, err := yaml.Marshal(runs)
		if err != nil {
			return "", fmt.Errorf("error encoding runs as YAML: %w", err)
		}
		return string(out), nil
	case FormatTable, "":
		return f.runTable(runs), nil
	default:
		return "", fmt.Errorf("unsupported output format %q", format)
	}
}

func (f *RunFormatter) runTable(runs []ctrun.Run) string {
	table := NewTable([]string{"ID", "COMPLETED", "DATE", "OUTPUT"})
	for _, r := range runs {
		output := strings.TrimSpace(r.RawOutput)
		if output == "" {
			output = "-"
		}
		table.AddRow([]string{r.ID, fmt.Sprint(r.TsCompleted), r.CompletedDate(), output})
	}
	return table.String() + "\n"
}
