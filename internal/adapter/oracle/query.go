package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/oraterm/internal/adapter"
	"github.com/sadopc/oraterm/internal/errs"
)

// MaxAdHocRows caps the rows read by ExecuteAdHoc.
const MaxAdHocRows = 1000

// RewriteReadQuery applies the read-only guard and the row cap used by
// ExecuteReadQuery. Queries must start with SELECT; queries that do not
// mention ROWNUM are wrapped in a subquery limited to limit rows.
//
// The guard only inspects the statement prefix. It keeps tool callers from
// issuing DML by accident and is not a security boundary.
func RewriteReadQuery(query string, limit int) (string, error) {
	const op = "execute sql"
	if err := checkLimit(limit); err != nil {
		return "", withOp(op, err)
	}
	q := trimStatement(query)
	upper := strings.ToUpper(q)
	if !strings.HasPrefix(upper, "SELECT") {
		return "", errs.New(errs.KindSecurityRejected, op, "only SELECT queries are allowed")
	}
	if strings.Contains(upper, "ROWNUM") {
		return q, nil
	}
	return fmt.Sprintf("SELECT * FROM (%s) WHERE ROWNUM <= %d", q, limit), nil
}

// ExecuteReadQuery runs a caller-supplied SELECT with a row cap.
func (c *Catalog) ExecuteReadQuery(ctx context.Context, query string, limit int) (*adapter.ResultSet, error) {
	q, err := RewriteReadQuery(query, limit)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := c.db.QueryContext(ctx, q)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "execute sql", err)
	}
	defer rows.Close()

	rs, err := scanResult(rows, 0)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "execute sql", err)
	}
	rs.Query = q
	rs.Duration = time.Since(start)
	return rs, nil
}

// ExecuteAdHoc runs a statement typed into the interactive SQL panel as is.
// At most maxRows rows are read; statements without a result set report
// the affected row count instead.
func (c *Catalog) ExecuteAdHoc(ctx context.Context, query string, maxRows int) (*adapter.ResultSet, error) {
	const op = "execute query"
	q := trimStatement(query)
	if q == "" {
		return nil, errs.New(errs.KindInvalidArgument, op, "query is empty")
	}
	if maxRows <= 0 {
		maxRows = MaxAdHocRows
	}

	start := time.Now()
	if !isQueryStatement(q) {
		res, err := c.db.ExecContext(ctx, q)
		if err != nil {
			return nil, errs.Wrap(errs.KindInternal, op, err)
		}
		msg := "statement executed"
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			msg = fmt.Sprintf("%d row(s) affected", n)
		}
		return &adapter.ResultSet{Query: q, Duration: time.Since(start), Message: msg}, nil
	}

	rows, err := c.db.QueryContext(ctx, q)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, op, err)
	}
	defer rows.Close()

	rs, err := scanResult(rows, maxRows)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, op, err)
	}
	rs.Query = q
	rs.Duration = time.Since(start)
	return rs, nil
}

// trimStatement drops surrounding whitespace and trailing semicolons, which
// the server rejects inside a single statement.
func trimStatement(q string) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(q), ";"))
}

func isQueryStatement(q string) bool {
	upper := strings.ToUpper(q)
	for _, prefix := range []string{"SELECT", "WITH"} {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	return false
}
