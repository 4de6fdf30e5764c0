package oracle

import (
	"context"
	"database/sql"
	"strings"

	"github.com/sadopc/oraterm/internal/errs"
	"github.com/sadopc/oraterm/internal/schema"
)

// MaxRelatedDepth bounds the foreign key walk of RelatedTables.
const MaxRelatedDepth = 3

// Search targets accepted by SearchTables.
const (
	SearchTableName  = "table_name"
	SearchColumnName = "column_name"
	SearchBoth       = "both"
)

// Relationships returns the foreign keys of a table (parents) and the
// foreign keys of other tables pointing at it (children).
func (c *Catalog) Relationships(ctx context.Context, owner, table string) (schema.Relationships, error) {
	var rel schema.Relationships
	owner, table, err := normalizePair("relationships", owner, table)
	if err != nil {
		return rel, err
	}
	op := "relationships of " + owner + "." + table

	const parentsQ = `
		SELECT a.constraint_name, a.column_name, c_pk.table_name, b.column_name
		FROM all_cons_columns a
		JOIN all_constraints c
		  ON a.owner = c.owner AND a.constraint_name = c.constraint_name
		JOIN all_constraints c_pk
		  ON c.r_owner = c_pk.owner AND c.r_constraint_name = c_pk.constraint_name
		JOIN all_cons_columns b
		  ON c_pk.owner = b.owner AND c_pk.constraint_name = b.constraint_name AND b.position = a.position
		WHERE c.constraint_type = 'R'
		  AND a.owner = :owner
		  AND a.table_name = :table_name
		ORDER BY a.constraint_name, a.position`

	const childrenQ = `
		SELECT a.constraint_name, a.column_name, a.table_name, b.column_name
		FROM all_cons_columns a
		JOIN all_constraints c
		  ON a.owner = c.owner AND a.constraint_name = c.constraint_name
		JOIN all_constraints c_pk
		  ON c.r_owner = c_pk.owner AND c.r_constraint_name = c_pk.constraint_name
		JOIN all_cons_columns b
		  ON c_pk.owner = b.owner AND c_pk.constraint_name = b.constraint_name AND b.position = a.position
		WHERE c.constraint_type = 'R'
		  AND c_pk.owner = :owner
		  AND c_pk.table_name = :table_name
		ORDER BY a.table_name, a.constraint_name, a.position`

	rel.Parents, err = c.foreignKeys(ctx, parentsQ, owner, table)
	if err != nil {
		return schema.Relationships{}, errs.Wrap(errs.KindInternal, op, err)
	}
	rel.Children, err = c.foreignKeys(ctx, childrenQ, owner, table)
	if err != nil {
		return schema.Relationships{}, errs.Wrap(errs.KindInternal, op, err)
	}
	return rel, nil
}

func (c *Catalog) foreignKeys(ctx context.Context, q, owner, table string) ([]schema.ForeignKey, error) {
	rows, err := c.db.QueryContext(ctx, q, sql.Named("owner", owner), sql.Named("table_name", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fks := []schema.ForeignKey{}
	for rows.Next() {
		var fk schema.ForeignKey
		if err := rows.Scan(&fk.Constraint, &fk.Column, &fk.Table, &fk.RefColumn); err != nil {
			return nil, err
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

// Indexes returns the indexes of a table ordered by name, each with its
// columns in position order.
func (c *Catalog) Indexes(ctx context.Context, owner, table string) ([]schema.Index, error) {
	owner, table, err := normalizePair("indexes", owner, table)
	if err != nil {
		return nil, err
	}
	op := "indexes of " + owner + "." + table

	const q = `
		SELECT i.index_name, i.index_type, i.uniqueness, c.column_name
		FROM all_indexes i
		JOIN all_ind_columns c
		  ON i.owner = c.index_owner AND i.index_name = c.index_name
		WHERE i.table_owner = :owner
		  AND i.table_name = :table_name
		ORDER BY i.index_name, c.column_position`

	rows, err := c.db.QueryContext(ctx, q, sql.Named("owner", owner), sql.Named("table_name", table))
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, op, err)
	}
	defer rows.Close()

	indexMap := make(map[string]*schema.Index)
	var order []string

	for rows.Next() {
		var idxName, idxType, uniqueness, colName string
		if err := rows.Scan(&idxName, &idxType, &uniqueness, &colName); err != nil {
			return nil, errs.Wrap(errs.KindInternal, op, err)
		}
		idx, ok := indexMap[idxName]
		if !ok {
			idx = &schema.Index{
				Name:   idxName,
				Type:   idxType,
				Unique: uniqueness == "UNIQUE",
			}
			indexMap[idxName] = idx
			order = append(order, idxName)
		}
		idx.Columns = append(idx.Columns, colName)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.KindInternal, op, err)
	}

	indexes := make([]schema.Index, 0, len(order))
	for _, name := range order {
		indexes = append(indexes, *indexMap[name])
	}
	return indexes, nil
}

// Constraints returns primary key, unique, foreign key and then all other
// constraints of a table, each group ordered by name.
func (c *Catalog) Constraints(ctx context.Context, owner, table string) ([]schema.Constraint, error) {
	owner, table, err := normalizePair("constraints", owner, table)
	if err != nil {
		return nil, err
	}
	op := "constraints of " + owner + "." + table

	const q = `
		SELECT
			c.constraint_name,
			c.constraint_type,
			c.search_condition,
			c.r_constraint_name,
			c.delete_rule,
			c.status,
			cc.column_name
		FROM all_constraints c
		LEFT JOIN all_cons_columns cc
		  ON c.owner = cc.owner AND c.constraint_name = cc.constraint_name
		WHERE c.owner = :owner
		  AND c.table_name = :table_name
		ORDER BY
			CASE c.constraint_type WHEN 'P' THEN 1 WHEN 'U' THEN 2 WHEN 'R' THEN 3 ELSE 4 END,
			c.constraint_name,
			cc.position`

	rows, err := c.db.QueryContext(ctx, q, sql.Named("owner", owner), sql.Named("table_name", table))
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, op, err)
	}
	defer rows.Close()

	conMap := make(map[string]*schema.Constraint)
	var order []string

	for rows.Next() {
		var name, typ string
		var cond, refName, rule, status, col sql.NullString
		if err := rows.Scan(&name, &typ, &cond, &refName, &rule, &status, &col); err != nil {
			return nil, errs.Wrap(errs.KindInternal, op, err)
		}
		con, ok := conMap[name]
		if !ok {
			con = &schema.Constraint{
				Name:          name,
				Type:          typ,
				Condition:     cond.String,
				RefConstraint: refName.String,
				DeleteRule:    rule.String,
				Status:        status.String,
			}
			conMap[name] = con
			order = append(order, name)
		}
		if col.Valid {
			con.Columns = append(con.Columns, col.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.KindInternal, op, err)
	}

	out := make([]schema.Constraint, 0, len(order))
	for _, name := range order {
		out = append(out, *conMap[name])
	}
	return out, nil
}

// RelatedTables walks foreign keys outward from a table, breadth first, up
// to depth levels. Each table is reported once, at the level it was first
// reached.
func (c *Catalog) RelatedTables(ctx context.Context, owner, table string, depth int) ([]schema.RelatedTable, error) {
	owner, table, err := normalizePair("related tables", owner, table)
	if err != nil {
		return nil, err
	}
	if depth < 1 || depth > MaxRelatedDepth {
		return nil, errs.Newf(errs.KindInvalidArgument, "related tables", "depth must be between 1 and %d, got %d", MaxRelatedDepth, depth)
	}

	const q = `
		SELECT 'PARENT' AS relationship_type, c_pk.table_name AS related_table
		FROM all_constraints c
		JOIN all_constraints c_pk
		  ON c.r_owner = c_pk.owner AND c.r_constraint_name = c_pk.constraint_name
		WHERE c.constraint_type = 'R'
		  AND c.owner = :p_owner
		  AND c.table_name = :p_table
		UNION
		SELECT 'CHILD' AS relationship_type, c.table_name AS related_table
		FROM all_constraints c
		JOIN all_constraints c_pk
		  ON c.r_owner = c_pk.owner AND c.r_constraint_name = c_pk.constraint_name
		WHERE c.constraint_type = 'R'
		  AND c_pk.owner = :c_owner
		  AND c_pk.table_name = :c_table
		ORDER BY 1, 2`

	seen := map[string]bool{table: true}
	frontier := []string{table}
	out := []schema.RelatedTable{}

	for level := 1; level <= depth && len(frontier) > 0; level++ {
		var next []string
		for _, t := range frontier {
			rows, err := c.db.QueryContext(ctx, q,
				sql.Named("p_owner", owner), sql.Named("p_table", t),
				sql.Named("c_owner", owner), sql.Named("c_table", t),
			)
			if err != nil {
				return nil, errs.Wrap(errs.KindInternal, "related tables of "+owner+"."+t, err)
			}
			found, err := scanRelated(rows, level)
			if err != nil {
				return nil, errs.Wrap(errs.KindInternal, "related tables of "+owner+"."+t, err)
			}
			for _, r := range found {
				if seen[r.Table] {
					continue
				}
				seen[r.Table] = true
				out = append(out, r)
				next = append(next, r.Table)
			}
		}
		frontier = next
	}
	return out, nil
}

func scanRelated(rows *sql.Rows, level int) ([]schema.RelatedTable, error) {
	defer rows.Close()
	var out []schema.RelatedTable
	for rows.Next() {
		r := schema.RelatedTable{Level: level}
		if err := rows.Scan(&r.Relationship, &r.Table); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SearchTables finds tables whose name, or whose columns' names, contain
// keyword. Matching is case-insensitive and treats % and _ literally.
func (c *Catalog) SearchTables(ctx context.Context, owner, keyword, in string) ([]schema.SearchMatch, error) {
	const op = "search tables"
	owner, err := NormalizeIdentifier(owner)
	if err != nil {
		return nil, withOp(op, err)
	}
	kw := strings.ToUpper(strings.TrimSpace(keyword))
	if kw == "" {
		return nil, errs.New(errs.KindInvalidArgument, op, "keyword must not be empty")
	}
	in = strings.ToLower(strings.TrimSpace(in))
	if in == "" {
		in = SearchBoth
	}
	if in != SearchTableName && in != SearchColumnName && in != SearchBoth {
		return nil, errs.Newf(errs.KindInvalidArgument, op, "search_in must be %s, %s or %s, got %q", SearchTableName, SearchColumnName, SearchBoth, in)
	}
	pattern := "%" + escapeLike(kw) + "%"

	matches := []schema.SearchMatch{}
	if in != SearchColumnName {
		const q = `
			SELECT table_name
			FROM all_tables
			WHERE owner = :owner
			  AND table_name LIKE :pattern ESCAPE '\'
			ORDER BY table_name`
		names, err := c.queryStrings(ctx, q, sql.Named("owner", owner), sql.Named("pattern", pattern))
		if err != nil {
			return nil, errs.Wrap(errs.KindInternal, op+" in "+owner, err)
		}
		for _, n := range names {
			matches = append(matches, schema.SearchMatch{Table: n, Match: "TABLE_NAME"})
		}
	}
	if in != SearchTableName {
		const q = `
			SELECT table_name, column_name
			FROM all_tab_columns
			WHERE owner = :owner
			  AND column_name LIKE :pattern ESCAPE '\'
			ORDER BY table_name, column_name`
		rows, err := c.db.QueryContext(ctx, q, sql.Named("owner", owner), sql.Named("pattern", pattern))
		if err != nil {
			return nil, errs.Wrap(errs.KindInternal, op+" in "+owner, err)
		}
		defer rows.Close()
		for rows.Next() {
			m := schema.SearchMatch{Match: "COLUMN_NAME"}
			if err := rows.Scan(&m.Table, &m.Column); err != nil {
				return nil, errs.Wrap(errs.KindInternal, op+" in "+owner, err)
			}
			matches = append(matches, m)
		}
		if err := rows.Err(); err != nil {
			return nil, errs.Wrap(errs.KindInternal, op+" in "+owner, err)
		}
	}
	return matches, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Triggers returns the triggers defined on a table ordered by name.
func (c *Catalog) Triggers(ctx context.Context, owner, table string) ([]schema.Trigger, error) {
	owner, table, err := normalizePair("triggers", owner, table)
	if err != nil {
		return nil, err
	}
	op := "triggers of " + owner + "." + table

	const q = `
		SELECT trigger_name, trigger_type, triggering_event, status, description
		FROM all_triggers
		WHERE table_owner = :owner
		  AND table_name = :table_name
		ORDER BY trigger_name`

	rows, err := c.db.QueryContext(ctx, q, sql.Named("owner", owner), sql.Named("table_name", table))
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, op, err)
	}
	defer rows.Close()

	out := []schema.Trigger{}
	for rows.Next() {
		var (
			tr   schema.Trigger
			desc sql.NullString
		)
		if err := rows.Scan(&tr.Name, &tr.Type, &tr.Event, &tr.Status, &desc); err != nil {
			return nil, errs.Wrap(errs.KindInternal, op, err)
		}
		tr.Description = strings.TrimSpace(desc.String)
		out = append(out, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.KindInternal, op, err)
	}
	return out, nil
}
