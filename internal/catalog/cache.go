// Package catalog holds the in-memory list of browsable objects for the
// active schema and derives the visible list from type filters and a search
// term without touching the database.
package catalog

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/sadopc/oraterm/internal/schema"
)

// ProgramTypes are the non-table types fetched in one batch on load.
var ProgramTypes = []schema.ObjectType{
	schema.ObjectPackage,
	schema.ObjectPackageBody,
	schema.ObjectProcedure,
	schema.ObjectFunction,
}

// Source lists the objects of a schema.
type Source interface {
	ListTables(ctx context.Context, owner string) ([]string, error)
	ListObjectsWithType(ctx context.Context, owner string, types []schema.ObjectType) ([]schema.Entry, error)
}

// Fetch reads all tables and then all programs of owner and returns them
// sorted by name. An error from either call aborts the fetch.
func Fetch(ctx context.Context, src Source, owner string) ([]schema.Entry, error) {
	tables, err := src.ListTables(ctx, owner)
	if err != nil {
		return nil, err
	}
	programs, err := src.ListObjectsWithType(ctx, owner, ProgramTypes)
	if err != nil {
		return nil, err
	}

	entries := make([]schema.Entry, 0, len(tables)+len(programs))
	for _, name := range tables {
		entries = append(entries, schema.Entry{Name: name, Type: schema.ObjectTable})
	}
	entries = append(entries, programs...)
	Sort(entries)
	return entries, nil
}

// Sort orders entries by uppercase name, then by type.
func Sort(entries []schema.Entry) {
	slices.SortStableFunc(entries, func(a, b schema.Entry) int {
		if c := strings.Compare(strings.ToUpper(a.Name), strings.ToUpper(b.Name)); c != 0 {
			return c
		}
		return cmp.Compare(a.Type, b.Type)
	})
}

// Cache is the object catalog of one schema. It is replaced wholesale and
// never patched. The zero value is an empty, not-loaded cache.
type Cache struct {
	schema  string
	entries []schema.Entry
	loaded  bool
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{}
}

// Load fetches owner's objects and installs them. On error the cache is
// left untouched.
func (c *Cache) Load(ctx context.Context, src Source, owner string) error {
	entries, err := Fetch(ctx, src, owner)
	if err != nil {
		return err
	}
	c.Install(owner, entries)
	return nil
}

// Install replaces the cache content with entries for owner.
func (c *Cache) Install(owner string, entries []schema.Entry) {
	c.schema = owner
	c.entries = slices.Clone(entries)
	Sort(c.entries)
	c.loaded = true
}

// Invalidate clears the cache and its loaded flag.
func (c *Cache) Invalidate() {
	c.schema = ""
	c.entries = nil
	c.loaded = false
}

// Loaded reports whether the cache holds a completed load. A loaded cache
// may still be empty when the schema has no objects.
func (c *Cache) Loaded() bool {
	return c.loaded
}

// LoadedFor reports whether the cache holds a completed load of owner.
func (c *Cache) LoadedFor(owner string) bool {
	return c.loaded && c.schema == owner
}

// Schema returns the schema of the last load.
func (c *Cache) Schema() string {
	return c.schema
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Entries returns a copy of the cached entries.
func (c *Cache) Entries() []schema.Entry {
	return slices.Clone(c.entries)
}

// Visible returns the cached entries passing filters and search.
func (c *Cache) Visible(filters FilterSet, search string) []schema.Entry {
	return Visible(c.entries, filters, search)
}

// Visible keeps the entries whose type is in filters and whose uppercase
// name contains the normalized search term. Order is preserved.
func Visible(entries []schema.Entry, filters FilterSet, search string) []schema.Entry {
	term := NormalizeSearch(search)
	out := make([]schema.Entry, 0, len(entries))
	for _, e := range entries {
		if !filters.Has(e.Type) {
			continue
		}
		if term != "" && !strings.Contains(strings.ToUpper(e.Name), term) {
			continue
		}
		out = append(out, e)
	}
	return out
}
