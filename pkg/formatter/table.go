// File: pkg/formatter/table.go
package formatter

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 2).Border(lipgloss.DoubleBorder(), true, false)
	titleStyle  = lipgloss.NewStyle().Bold(true)
)

type Table struct {
	Headers      []string
	Rows         [][]string
	columnWidths []int
}

// Creates a new table with the given headers
func NewTable(headers []string) *Table {
	t := &Table{
		Headers: headers,
		Rows:    [][]string{},
	}
	t.calculateColumnWidths()
	return t
}

func (t *Table) AddRow(row []string) {
	t.Rows = append(t.Rows, row)
	t.calculateColumnWidths()
}

// Widths are measured in terminal cells so page names with wide characters stay aligned
func (t *Table) calculateColumnWidths() {
	t.columnWidths = make([]int, len(t.Headers))
	for i, h := range t.Headers {
		t.columnWidths[i] = lipgloss.Width(h)
	}

	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(t.columnWidths) && lipgloss.Width(cell) > t.columnWidths[i] {
				t.columnWidths[i] = lipgloss.Width(cell)
			}
		}
	}
}

// Returns the string representation of the table
func (t *Table) String() string {
	if len(t.Headers) == 0 {
		return ""
	}

	t.calculateColumnWidths()

	var sb strings.Builder

	t.writeBorder(&sb)
	sb.WriteString("\n")

	t.writeRow(&sb, t.Headers)

	t.writeBorder(&sb)
	sb.WriteString("\n")

	for _, row := range t.Rows {
		t.writeRow(&sb, row)
	}

	t.writeBorder(&sb)

	return sb.String()
}

func (t *Table) writeRow(sb *strings.Builder, row []string) {
	sb.WriteString("| ")
	for i := range t.columnWidths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		sb.WriteString(cell)
		sb.WriteString(strings.Repeat(" ", t.columnWidths[i]-lipgloss.Width(cell)))
		sb.WriteString(" | ")
	}
	sb.WriteString("\n")
}

// writeBorder writes a horizontal border to the string builder
func (t *Table) writeBorder(sb *strings.Builder) {
	sb.WriteString("+")
	for _, width := range t.columnWidths {
		sb.WriteString(strings.Repeat("-", width+2))
		sb.WriteString("+")
	}
}

// Formats a section header with a title
func FormatHeaderSection(title string) string {
	return headerStyle.Render(title)
}

// Formats a simple section title
func FormatSectionTitle(title string) string {
	return titleStyle.Render("-- " + title + " --")
}
