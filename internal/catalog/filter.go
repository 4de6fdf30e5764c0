package catalog

import (
	"strings"

	"github.com/sadopc/oraterm/internal/schema"
)

// FilterSet is the set of object types shown in the list.
type FilterSet uint8

// NewFilterSet returns a set containing types.
func NewFilterSet(types ...schema.ObjectType) FilterSet {
	var f FilterSet
	for _, t := range types {
		f = f.With(t, true)
	}
	return f
}

// DefaultFilters shows tables only.
func DefaultFilters() FilterSet {
	return NewFilterSet(schema.ObjectTable)
}

// ParseFilters builds a set from dictionary type names. Unknown names are
// ignored; an empty result falls back to DefaultFilters.
func ParseFilters(names []string) FilterSet {
	var f FilterSet
	for _, n := range names {
		if t, ok := schema.ParseObjectType(n); ok {
			f = f.With(t, true)
		}
	}
	if f == 0 {
		return DefaultFilters()
	}
	return f
}

// Has reports whether t is visible.
func (f FilterSet) Has(t schema.ObjectType) bool {
	return f&(1<<uint(t)) != 0
}

// With returns a copy of f with t switched on or off.
func (f FilterSet) With(t schema.ObjectType, enabled bool) FilterSet {
	if enabled {
		return f | 1<<uint(t)
	}
	return f &^ (1 << uint(t))
}

// Types lists the visible types in display order.
func (f FilterSet) Types() []schema.ObjectType {
	var out []schema.ObjectType
	for _, t := range schema.ObjectTypes {
		if f.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

func (f FilterSet) String() string {
	types := f.Types()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return strings.Join(names, ",")
}

// NormalizeSearch uppercases and trims a search term.
func NormalizeSearch(term string) string {
	return strings.ToUpper(strings.TrimSpace(term))
}
