package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sadopc/oraterm/internal/schema"
)

// CheckConditionWidth bounds CHECK conditions in constraint listings.
const CheckConditionWidth = 50

// StatsGrid shows row count and segment size.
func StatsGrid(owner, table string, s schema.TableStats) Grid {
	return Grid{
		Headers: []string{"Table", "Rows", "Size"},
		Rows:    [][]string{{owner + "." + table, strconv.FormatInt(s.RowCount, 10), fmt.Sprintf("%.2f MB", s.SizeMB)}},
	}
}

// ForeignKeyGrid lists parent or child relationships.
func ForeignKeyGrid(fks []schema.ForeignKey, tableHeader string) Grid {
	g := Grid{Headers: []string{"Constraint", "Column", tableHeader, "Referenced column"}}
	for _, fk := range fks {
		g.Rows = append(g.Rows, []string{fk.Constraint, fk.Column, fk.Table, fk.RefColumn})
	}
	return g
}

// IndexGrid lists indexes with their columns.
func IndexGrid(idx []schema.Index) Grid {
	g := Grid{Headers: []string{"Index", "Type", "Uniqueness", "Columns"}}
	for _, i := range idx {
		uniq := "NONUNIQUE"
		if i.Unique {
			uniq = "UNIQUE"
		}
		g.Rows = append(g.Rows, []string{i.Name, i.Type, uniq, strings.Join(i.Columns, ", ")})
	}
	return g
}

// ConstraintGrid lists constraints in the order they were fetched.
func ConstraintGrid(cons []schema.Constraint) Grid {
	g := Grid{Headers: []string{"Constraint", "Type", "Columns", "Details", "Status"}}
	for _, c := range cons {
		g.Rows = append(g.Rows, []string{c.Name, c.TypeName(), strings.Join(c.Columns, ", "), constraintDetail(c), c.Status})
	}
	return g
}

func constraintDetail(c schema.Constraint) string {
	switch c.Type {
	case "R":
		d := "references " + c.RefConstraint
		if c.DeleteRule != "" {
			d += " on delete " + strings.ToLower(c.DeleteRule)
		}
		return d
	case "C":
		return Shorten(strings.Join(strings.Fields(c.Condition), " "), CheckConditionWidth)
	default:
		return ""
	}
}

// RelatedGrid lists tables reachable through foreign keys.
func RelatedGrid(rel []schema.RelatedTable) Grid {
	g := Grid{Headers: []string{"Table", "Relationship", "Level"}}
	for _, r := range rel {
		g.Rows = append(g.Rows, []string{r.Table, r.Relationship, strconv.Itoa(r.Level)})
	}
	return g
}

// SearchGrid lists table and column search hits.
func SearchGrid(matches []schema.SearchMatch) Grid {
	g := Grid{Headers: []string{"Table", "Column", "Match"}}
	for _, m := range matches {
		g.Rows = append(g.Rows, []string{m.Table, m.Column, m.Match})
	}
	return g
}

// TriggerGrid lists the triggers of a table.
func TriggerGrid(tr []schema.Trigger) Grid {
	g := Grid{Headers: []string{"Trigger", "Type", "Event", "Status", "Description"}}
	for _, t := range tr {
		g.Rows = append(g.Rows, []string{t.Name, t.Type, t.Event, t.Status, strings.Join(strings.Fields(t.Description), " ")})
	}
	return g
}

// NameList renders names one per line as a markdown list.
func NameList(title string, names []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d)\n", title, len(names))
	for _, n := range names {
		b.WriteString("- ")
		b.WriteString(n)
		b.WriteByte('\n')
	}
	return b.String()
}
