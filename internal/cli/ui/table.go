package ui

import (
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

// Table renders aligned columns under a bold header
type Table struct {
	w       io.Writer
	headers []string
	rows    [][]string
	noColor bool
}

// NewTable starts a table with the given column headers
func NewTable(w io.Writer, noColor bool, headers ...string) *Table {
	return &Table{w: w, headers: headers, noColor: noColor}
}

// AddRow adds a row. Missing cells render empty, extra cells are dropped.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// Render writes the header, a rule under each column and the rows
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	rules := make([]string, len(t.headers))
	for _, row := range append([][]string{t.headers}, t.rows...) {
		for i, c := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(c))
		}
	}
	for i, n := range widths {
		rules[i] = strings.Repeat("─", n)
	}

	header, rule := palette(t.noColor)
	t.line(header, widths, t.headers)
	t.line(rule, widths, rules)
	for _, row := range t.rows {
		t.line(nil, widths, row)
	}
}

// line pads every cell but the last to its column width
func (t *Table) line(c *color.Color, widths []int, cells []string) {
	var b strings.Builder
	for i, s := range cells {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(s)
		if i < len(cells)-1 {
			b.WriteString(strings.Repeat(" ", widths[i]-utf8.RuneCountInString(s)))
		}
	}
	if c == nil {
		io.WriteString(t.w, b.String()+"\n")
		return
	}
	c.Fprintln(t.w, b.String())
}

// Header renders a bold title underlined to its own width
func Header(w io.Writer, title string, noColor bool) {
	header, rule := palette(noColor)
	header.Fprintln(w, title)
	rule.Fprintln(w, strings.Repeat("─", utf8.RuneCountInString(title)))
}

func palette(noColor bool) (header, rule *color.Color) {
	header = color.New(color.Bold, color.FgCyan)
	rule = color.New(color.FgHiBlack)
	if noColor {
		header.DisableColor()
		rule.DisableColor()
	}
	return header, rule
}
