// Package render formats loaded objects for display. Everything here is
// pure: no I/O, no state.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sadopc/oraterm/internal/adapter"
	"github.com/sadopc/oraterm/internal/schema"
)

// Grid is a header row plus string cells.
type Grid struct {
	Headers []string
	Rows    [][]string
}

// Empty reports whether the grid has no rows.
func (g Grid) Empty() bool {
	return len(g.Rows) == 0
}

// Truncate returns a copy of g with every cell cut to n runes.
func (g Grid) Truncate(n int) Grid {
	out := Grid{Headers: g.Headers, Rows: make([][]string, len(g.Rows))}
	for i, row := range g.Rows {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = Shorten(c, n)
		}
		out.Rows[i] = cells
	}
	return out
}

// Shorten cuts s to n runes, marking the cut with "...".
func Shorten(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// TableView is the rendered detail of a table.
type TableView struct {
	Owner   string
	Table   string
	Columns Grid
	Data    Grid
}

// Title returns OWNER.TABLE.
func (v TableView) Title() string {
	return v.Owner + "." + v.Table
}

// TableDetail renders the column metadata and the sample rows of a table.
// Rows are skipped entirely when columnNames is empty.
func TableDetail(owner, table string, cols []schema.Column, columnNames []string, rows [][]adapter.Value) TableView {
	return TableView{
		Owner:   owner,
		Table:   table,
		Columns: ColumnGrid(cols),
		Data:    DataGrid(columnNames, rows),
	}
}

// ColumnGrid lays out column metadata, one row per column.
func ColumnGrid(cols []schema.Column) Grid {
	g := Grid{Headers: []string{"#", "Column", "Type", "Length", "Precision", "Scale", "Nullable", "Default"}}
	for _, c := range cols {
		nullable := "N"
		if c.Nullable {
			nullable = "Y"
		}
		g.Rows = append(g.Rows, []string{
			strconv.Itoa(c.ID),
			c.Name,
			c.DataType,
			strconv.FormatInt(c.Length, 10),
			optInt(c.Precision),
			optInt(c.Scale),
			nullable,
			strings.TrimSpace(c.Default),
		})
	}
	return g
}

// DataGrid lays out fetched rows under their column names. Cells beyond
// the header width are dropped.
func DataGrid(columnNames []string, rows [][]adapter.Value) Grid {
	g := Grid{Headers: columnNames}
	if len(columnNames) == 0 {
		return g
	}
	for _, row := range rows {
		cells := make([]string, len(columnNames))
		for i := range cells {
			if i < len(row) {
				cells[i] = row[i].String()
			} else {
				cells[i] = adapter.Null.String()
			}
		}
		g.Rows = append(g.Rows, cells)
	}
	return g
}

// ResultGrid lays out an ad-hoc query result.
func ResultGrid(rs *adapter.ResultSet) Grid {
	if rs == nil {
		return Grid{}
	}
	return DataGrid(rs.Columns, rs.Rows)
}

// CodeDetail renders program source with a comment header naming the
// object. Surrounding whitespace of the source is dropped.
func CodeDetail(name string, t schema.ObjectType, source string) string {
	return fmt.Sprintf("-- %s %s\n\n%s", t, name, strings.TrimSpace(source))
}

// FormatType spells a column type the way DDL would, e.g. NUMBER(8,2) or
// VARCHAR2(30).
func FormatType(c schema.Column) string {
	switch {
	case c.Precision != nil && c.Scale != nil && *c.Scale != 0:
		return fmt.Sprintf("%s(%d,%d)", c.DataType, *c.Precision, *c.Scale)
	case c.Precision != nil:
		return fmt.Sprintf("%s(%d)", c.DataType, *c.Precision)
	case strings.Contains(c.DataType, "CHAR") || c.DataType == "RAW":
		return fmt.Sprintf("%s(%d)", c.DataType, c.Length)
	default:
		return c.DataType
	}
}

func optInt(p *int64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatInt(*p, 10)
}
