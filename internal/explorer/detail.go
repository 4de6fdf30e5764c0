package explorer

import (
	"context"

	"github.com/sadopc/oraterm/internal/adapter"
	"github.com/sadopc/oraterm/internal/errs"
	"github.com/sadopc/oraterm/internal/render"
	"github.com/sadopc/oraterm/internal/schema"
)

// DetailKind tells what the detail pane currently shows.
type DetailKind int

const (
	DetailEmpty DetailKind = iota
	DetailLoading
	DetailTable
	DetailCode
	DetailError
)

// Detail is the rendered content of the selected object.
type Detail struct {
	Kind   DetailKind
	Schema string
	Entry  schema.Entry

	Table   render.TableView
	Columns []schema.Column
	Rows    *adapter.ResultSet // sample rows behind Table.Data

	Code   string // header plus trimmed source
	Source string // raw source as fetched

	Err error
}

// Text returns the detail as markdown, suitable for the clipboard.
func (d Detail) Text() (string, bool) {
	switch d.Kind {
	case DetailTable:
		return d.Table.Markdown(), true
	case DetailCode:
		return render.CodeMarkdown(d.Code), true
	case DetailError:
		if d.Err != nil {
			return d.Err.Error(), true
		}
	}
	return "", false
}

// loadDetail fetches whatever is needed to render entry. It checks ctx
// between statements so a superseded load stops issuing work early.
func loadDetail(ctx context.Context, db Catalog, owner string, entry schema.Entry, rowLimit int) (Detail, error) {
	op := "load " + owner + "." + entry.Name
	d := Detail{Schema: owner, Entry: entry}

	if entry.Type.IsProgram() {
		src, err := db.FetchSource(ctx, owner, entry.Name, entry.Type.String())
		if err != nil {
			return d, err
		}
		if err := ctx.Err(); err != nil {
			return d, errs.Wrap(errs.KindCancelled, op, err)
		}
		d.Kind = DetailCode
		d.Source = src
		d.Code = render.CodeDetail(entry.Name, entry.Type, src)
		return d, nil
	}

	cols, err := db.DescribeTable(ctx, owner, entry.Name)
	if err != nil {
		return d, err
	}
	if len(cols) == 0 {
		return d, errs.Newf(errs.KindNotFound, "describe "+owner+"."+entry.Name, "table %s not found in schema %s", entry.Name, owner)
	}
	if err := ctx.Err(); err != nil {
		return d, errs.Wrap(errs.KindCancelled, op, err)
	}
	rs, err := db.FetchRows(ctx, owner, entry.Name, rowLimit)
	if err != nil {
		return d, err
	}
	if err := ctx.Err(); err != nil {
		return d, errs.Wrap(errs.KindCancelled, op, err)
	}
	d.Kind = DetailTable
	d.Columns = cols
	d.Rows = rs
	d.Table = render.TableDetail(owner, entry.Name, cols, rs.Columns, rs.Rows)
	return d, nil
}
