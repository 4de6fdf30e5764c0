package oracle

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sadopc/oraterm/internal/adapter"
	"github.com/sadopc/oraterm/internal/errs"
	"github.com/sadopc/oraterm/internal/schema"
)

// DescribeTable returns the columns of a table ordered by column id. An
// empty result means the table does not exist or is not visible.
func (c *Catalog) DescribeTable(ctx context.Context, owner, table string) ([]schema.Column, error) {
	owner, table, err := normalizePair("describe table", owner, table)
	if err != nil {
		return nil, err
	}
	op := "describe " + owner + "." + table

	const q = `
		SELECT
			column_id,
			column_name,
			data_type,
			data_length,
			data_precision,
			data_scale,
			nullable,
			data_default
		FROM all_tab_columns
		WHERE owner = :owner
		  AND table_name = :table_name
		ORDER BY column_id`

	rows, err := c.db.QueryContext(ctx, q, sql.Named("owner", owner), sql.Named("table_name", table))
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, op, err)
	}
	defer rows.Close()

	cols := []schema.Column{}
	for rows.Next() {
		var (
			col        schema.Column
			length     sql.NullInt64
			precision  sql.NullInt64
			scale      sql.NullInt64
			nullable   string
			defaultVal sql.NullString
		)
		if err := rows.Scan(&col.ID, &col.Name, &col.DataType, &length, &precision, &scale, &nullable, &defaultVal); err != nil {
			return nil, errs.Wrap(errs.KindInternal, op, err)
		}
		col.Length = length.Int64
		if precision.Valid {
			col.Precision = &precision.Int64
		}
		if scale.Valid {
			col.Scale = &scale.Int64
		}
		col.Nullable = nullable == "Y"
		col.Default = defaultVal.String
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.KindInternal, op, err)
	}
	return cols, nil
}

// FetchRows returns at most limit rows of a table. The limit is applied with
// a ROWNUM predicate, so row order is whatever the engine returns.
func (c *Catalog) FetchRows(ctx context.Context, owner, table string, limit int) (*adapter.ResultSet, error) {
	if err := checkLimit(limit); err != nil {
		return nil, withOp("fetch rows", err)
	}
	owner, table, err := normalizePair("fetch rows", owner, table)
	if err != nil {
		return nil, err
	}
	op := "fetch rows of " + owner + "." + table

	q := fmt.Sprintf(`SELECT * FROM %s WHERE ROWNUM <= :row_limit`, QualifiedName(owner, table))

	start := time.Now()
	rows, err := c.db.QueryContext(ctx, q, sql.Named("row_limit", limit))
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, op, err)
	}
	defer rows.Close()

	rs, err := scanResult(rows, 0)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, op, err)
	}
	rs.Query = q
	rs.Duration = time.Since(start)
	return rs, nil
}

// TableStats counts the rows of a table and, best effort, its segment size.
// Size lookups that fail report 0 MB with SizeKnown false instead of
// failing the call.
func (c *Catalog) TableStats(ctx context.Context, owner, table string) (schema.TableStats, error) {
	var stats schema.TableStats
	owner, table, err := normalizePair("table stats", owner, table)
	if err != nil {
		return stats, err
	}

	q := `SELECT COUNT(*) FROM ` + QualifiedName(owner, table)
	if err := c.db.QueryRowContext(ctx, q).Scan(&stats.RowCount); err != nil {
		return stats, errs.Wrap(errs.KindInternal, "count rows of "+owner+"."+table, err)
	}

	size, err := c.segmentSize(ctx, owner, table)
	if err != nil {
		if errs.IsCancelled(err) {
			return stats, err
		}
		c.log.Debug().Err(err).Str("table", owner+"."+table).Msg("segment size unavailable")
		return stats, nil
	}
	stats.SizeMB = size
	stats.SizeKnown = true
	return stats, nil
}

// segmentSize tries user_segments for the login user's own tables, then
// dba_segments. Both may be missing or forbidden.
func (c *Catalog) segmentSize(ctx context.Context, owner, table string) (float64, error) {
	type source struct {
		query string
		args  []any
	}
	var sources []source
	if owner == c.user {
		sources = append(sources, source{
			query: `SELECT SUM(bytes)/1024/1024 FROM user_segments WHERE segment_name = :table_name`,
			args:  []any{sql.Named("table_name", table)},
		})
	}
	sources = append(sources, source{
		query: `SELECT SUM(bytes)/1024/1024 FROM dba_segments WHERE owner = :owner AND segment_name = :table_name`,
		args:  []any{sql.Named("owner", owner), sql.Named("table_name", table)},
	})

	var lastErr error
	for _, src := range sources {
		var size sql.NullFloat64
		err := c.db.QueryRowContext(ctx, src.query, src.args...).Scan(&size)
		if err == nil {
			return size.Float64, nil
		}
		if ctx.Err() != nil {
			return 0, errs.Wrap(errs.KindCancelled, "segment size", ctx.Err())
		}
		lastErr = err
	}
	return 0, errs.Wrap(errs.KindMetadataUnavailable, "segment size of "+owner+"."+table, lastErr)
}

// scanResult reads rows into a ResultSet. A positive maxRows stops after maxRows rows
// and marks the result truncated when more rows were available.
func scanResult(rows *sql.Rows, maxRows int) (*adapter.ResultSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	rs := &adapter.ResultSet{Columns: cols, Rows: [][]adapter.Value{}}
	for rows.Next() {
		if maxRows > 0 && len(rs.Rows) >= maxRows {
			rs.Truncated = true
			break
		}
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make([]adapter.Value, len(cols))
		for i, v := range raw {
			row[i] = adapter.ToValue(v)
		}
		rs.Rows = append(rs.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}
