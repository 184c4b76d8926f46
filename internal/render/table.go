package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	tableFooterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Table renders results as an aligned text table. Rows are buffered until
// Flush so column widths can be computed over the whole result.
type Table struct {
	Out io.Writer

	// MaxColumnWidth caps every column's display width; <= 0 disables the
	// cap.
	MaxColumnWidth int

	columns []ColumnDescription
	rows    [][]string
}

// NewTable creates a table renderer writing to out.
func NewTable(out io.Writer) *Table {
	return &Table{Out: out, MaxColumnWidth: 40}
}

func (t *Table) Header(columns []ColumnDescription) {
	t.columns = columns
	t.rows = nil
}

func (t *Table) Row(values []string) bool {
	row := make([]string, len(values))
	copy(row, values)
	t.rows = append(t.rows, row)
	return true
}

func (t *Table) Flush() bool {
	if len(t.columns) == 0 {
		return true
	}
	widths := t.columnWidths()

	header := make([]string, len(t.columns))
	rule := make([]string, len(t.columns))
	for i, col := range t.columns {
		header[i] = tableHeaderStyle.Render(pad(col.Name, widths[i], Left))
		rule[i] = strings.Repeat("-", widths[i])
	}
	fmt.Fprintln(t.Out, strings.Join(header, " | "))
	fmt.Fprintln(t.Out, strings.Join(rule, "-+-"))

	for _, row := range t.rows {
		for _, line := range t.physicalLines(row, widths) {
			fmt.Fprintln(t.Out, line)
		}
	}

	t.columns = nil
	t.rows = nil
	return true
}

func (t *Table) Footer(text string) {
	fmt.Fprintln(t.Out, tableFooterStyle.Render(text))
}

func (t *Table) IsDiscard() bool { return false }

// columnWidths sizes each column to its widest value, measured in display
// cells, clamped to the configured cap. Same approach as sizing a results
// pane: header width first, then every cell.
func (t *Table) columnWidths() []int {
	widths := make([]int, len(t.columns))
	for i, col := range t.columns {
		widths[i] = lipgloss.Width(col.Name)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			for _, line := range strings.Split(cell, "\n") {
				if w := lipgloss.Width(line); w > widths[i] {
					widths[i] = w
				}
			}
		}
	}
	for i, col := range t.columns {
		cap := t.MaxColumnWidth
		if col.MaxWidth > 0 && (cap <= 0 || col.MaxWidth < cap) {
			cap = col.MaxWidth
		}
		if widths[i] < 1 {
			widths[i] = 1
		}
		if cap > 0 && widths[i] > cap {
			widths[i] = cap
		}
	}
	return widths
}

// physicalLines lays one logical row out as one or more physical lines:
// wrapped cells spill onto continuation lines, truncated cells are cut at
// the column width.
func (t *Table) physicalLines(row []string, widths []int) []string {
	cells := make([][]string, len(t.columns))
	height := 1
	for i, col := range t.columns {
		value := ""
		if i < len(row) {
			value = row[i]
		}
		switch col.Overflow {
		case Truncate:
			cells[i] = []string{truncate(value, widths[i])}
		default:
			cells[i] = wrapCell(value, widths[i])
		}
		if len(cells[i]) > height {
			height = len(cells[i])
		}
	}

	lines := make([]string, height)
	for line := 0; line < height; line++ {
		parts := make([]string, len(t.columns))
		for i, col := range t.columns {
			piece := ""
			if line < len(cells[i]) {
				piece = cells[i][line]
			}
			parts[i] = pad(piece, widths[i], col.Alignment)
		}
		lines[line] = strings.Join(parts, " | ")
	}
	return lines
}

func pad(s string, width int, align Alignment) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	if align == Right {
		return strings.Repeat(" ", gap) + s
	}
	return s + strings.Repeat(" ", gap)
}

// truncate cuts a value at the column width measured in display cells, the
// same metric pad and columnWidths use, so wide runes cannot overflow.
func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	var b strings.Builder
	used := 0
	for _, r := range s {
		w := lipgloss.Width(string(r))
		if used+w > width {
			break
		}
		b.WriteRune(r)
		used += w
	}
	return b.String()
}

func wrapCell(s string, width int) []string {
	var lines []string
	for _, logical := range strings.Split(s, "\n") {
		if logical == "" {
			lines = append(lines, "")
			continue
		}
		for lipgloss.Width(logical) > width {
			cut := truncate(logical, width)
			if cut == "" {
				// A single rune wider than the column still has to go
				// somewhere.
				cut = string([]rune(logical)[:1])
			}
			lines = append(lines, cut)
			logical = logical[len(cut):]
		}
		lines = append(lines, logical)
	}
	return lines
}
