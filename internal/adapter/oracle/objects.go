package oracle

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sadopc/oraterm/internal/errs"
	"github.com/sadopc/oraterm/internal/schema"
)

// ListSchemas returns every owner of an accessible object.
func (c *Catalog) ListSchemas(ctx context.Context) ([]string, error) {
	const q = `SELECT DISTINCT owner FROM all_objects ORDER BY owner`
	names, err := c.queryStrings(ctx, q)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "list schemas", err)
	}
	return names, nil
}

// ListTables returns the table names of owner in ascending order.
func (c *Catalog) ListTables(ctx context.Context, owner string) ([]string, error) {
	owner, err := NormalizeIdentifier(owner)
	if err != nil {
		return nil, withOp("list tables", err)
	}

	const q = `
		SELECT table_name
		FROM all_tables
		WHERE owner = :owner
		ORDER BY table_name`

	names, err := c.queryStrings(ctx, q, sql.Named("owner", owner))
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "list tables in "+owner, err)
	}
	return names, nil
}

// ListObjects returns the names of objects of the given types, ascending.
// Types are dictionary spellings such as "PACKAGE BODY".
func (c *Catalog) ListObjects(ctx context.Context, owner string, types []string) ([]string, error) {
	infos, err := c.listObjects(ctx, "list objects", owner, types)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.name
	}
	return names, nil
}

// ListObjectsWithType returns objects of several types in one round trip,
// each paired with its type and ordered by name.
func (c *Catalog) ListObjectsWithType(ctx context.Context, owner string, types []schema.ObjectType) ([]schema.Entry, error) {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	infos, err := c.listObjects(ctx, "list objects", owner, names)
	if err != nil {
		return nil, err
	}
	entries := make([]schema.Entry, 0, len(infos))
	for _, info := range infos {
		t, ok := schema.ParseObjectType(info.objectType)
		if !ok {
			continue
		}
		entries = append(entries, schema.Entry{Name: info.name, Type: t})
	}
	return entries, nil
}

type objectInfo struct {
	name       string
	objectType string
}

func (c *Catalog) listObjects(ctx context.Context, op, owner string, types []string) ([]objectInfo, error) {
	owner, err := NormalizeIdentifier(owner)
	if err != nil {
		return nil, withOp(op, err)
	}
	if len(types) == 0 {
		return []objectInfo{}, nil
	}

	args := []any{sql.Named("owner", owner)}
	binds := make([]string, len(types))
	for i, t := range types {
		norm, err := NormalizeObjectType(t)
		if err != nil {
			return nil, withOp(op, err)
		}
		name := fmt.Sprintf("t%d", i)
		binds[i] = ":" + name
		args = append(args, sql.Named(name, norm))
	}

	q := `
		SELECT object_name, object_type
		FROM all_objects
		WHERE owner = :owner
		  AND object_type IN (` + strings.Join(binds, ", ") + `)
		ORDER BY object_name, object_type`

	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, op+" in "+owner, err)
	}
	defer rows.Close()

	out := []objectInfo{}
	for rows.Next() {
		var info objectInfo
		if err := rows.Scan(&info.name, &info.objectType); err != nil {
			return nil, errs.Wrap(errs.KindInternal, op+" in "+owner, err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.KindInternal, op+" in "+owner, err)
	}
	return out, nil
}

// FetchSource returns the stored source of a program. Lines are joined
// without a separator since each stored line keeps its own newline.
func (c *Catalog) FetchSource(ctx context.Context, owner, name, objectType string) (string, error) {
	owner, name, err := normalizePair("fetch source", owner, name)
	if err != nil {
		return "", err
	}
	objectType, err = NormalizeObjectType(objectType)
	if err != nil {
		return "", withOp("fetch source", err)
	}
	op := fmt.Sprintf("fetch source of %s %s.%s", objectType, owner, name)

	const q = `
		SELECT text
		FROM all_source
		WHERE owner = :owner
		  AND name = :name
		  AND type = :type
		ORDER BY line`

	rows, err := c.db.QueryContext(ctx, q,
		sql.Named("owner", owner),
		sql.Named("name", name),
		sql.Named("type", objectType),
	)
	if err != nil {
		return "", errs.Wrap(errs.KindInternal, op, err)
	}
	defer rows.Close()

	var b strings.Builder
	lines := 0
	for rows.Next() {
		var line sql.NullString
		if err := rows.Scan(&line); err != nil {
			return "", errs.Wrap(errs.KindInternal, op, err)
		}
		b.WriteString(line.String)
		lines++
	}
	if err := rows.Err(); err != nil {
		return "", errs.Wrap(errs.KindInternal, op, err)
	}
	if lines == 0 {
		return "", errs.New(errs.KindNotFound, op, "no source lines found")
	}
	return b.String(), nil
}
