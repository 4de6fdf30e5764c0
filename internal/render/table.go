package render

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

func writer(g Grid) table.Writer {
	tw := table.NewWriter()
	header := make(table.Row, len(g.Headers))
	for i, h := range g.Headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	for _, r := range g.Rows {
		row := make(table.Row, len(r))
		for i, c := range r {
			row[i] = c
		}
		tw.AppendRow(row)
	}
	return tw
}

// Markdown renders g as a markdown table. An empty grid renders as "(0 rows)".
func Markdown(g Grid) string {
	if g.Empty() {
		return "(0 rows)"
	}
	return writer(g).RenderMarkdown()
}

// Text renders g as a boxed text table for terminals.
func Text(g Grid) string {
	if g.Empty() {
		return "(0 rows)"
	}
	tw := writer(g)
	tw.SetStyle(table.StyleLight)
	return tw.Render()
}

// Markdown renders the whole table detail: columns, then data.
func (v TableView) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n### Columns\n\n%s\n\n### Data (%d rows)\n\n", v.Title(), Markdown(v.Columns), len(v.Data.Rows))
	if len(v.Data.Headers) == 0 {
		b.WriteString("(no columns)")
	} else {
		b.WriteString(Markdown(v.Data))
	}
	b.WriteByte('\n')
	return b.String()
}

// CodeMarkdown wraps rendered source in a fenced block.
func CodeMarkdown(code string) string {
	return "```sql\n" + code + "\n```\n"
}
