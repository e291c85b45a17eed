package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Table prints column-aligned listings such as settings and audit events.
// The header and its dash divider are written with the first row, so a
// table with no rows prints nothing.
type Table struct {
	w       *tabwriter.Writer
	headers []string
	rows    int
}

// NewTable creates a table writing to w with the given column headers.
func NewTable(w io.Writer, headers ...string) *Table {
	return &Table{
		w:       tabwriter.NewWriter(w, 0, 0, 2, ' ', 0),
		headers: headers,
	}
}

// Row writes one row of cells.
func (t *Table) Row(cells ...string) {
	if t.rows == 0 {
		t.line(t.headers)
		dashes := make([]string, len(t.headers))
		for i, h := range t.headers {
			dashes[i] = strings.Repeat("-", len(h))
		}
		t.line(dashes)
	}
	t.rows++
	t.line(cells)
}

// StatusRow writes cells followed by a green "ok" or red "failed" cell.
// Colour codes widen a cell to tabwriter, so the status must stay last.
func (t *Table) StatusRow(ok bool, cells ...string) {
	status := Red("failed")
	if ok {
		status = Green("ok")
	}
	t.Row(append(cells, status)...)
}

// Len returns the number of rows written.
func (t *Table) Len() int {
	return t.rows
}

// Flush writes buffered rows.
func (t *Table) Flush() error {
	if t.rows == 0 {
		return nil
	}
	return t.w.Flush()
}

func (t *Table) line(cells []string) {
	fmt.Fprintln(t.w, strings.Join(cells, "\t"))
}
