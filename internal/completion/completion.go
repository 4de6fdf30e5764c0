// Package completion suggests Oracle keywords, functions and catalog names
// for the SQL panel.
package completion

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/sahilm/fuzzy"

	"github.com/sadopc/oraterm/internal/schema"
)

// maxItems caps every suggestion list.
const maxItems = 50

// Kind classifies a suggestion.
type Kind int

const (
	KindKeyword Kind = iota
	KindFunction
	KindSchema
	KindTable
	KindProgram
	KindColumn
)

// Icon is the one-letter marker shown in the popup.
func (k Kind) Icon() string {
	switch k {
	case KindKeyword:
		return "K"
	case KindFunction:
		return "F"
	case KindSchema:
		return "S"
	case KindTable:
		return "T"
	case KindProgram:
		return "P"
	case KindColumn:
		return "C"
	}
	return " "
}

// Item is one suggestion.
type Item struct {
	Label  string
	Kind   Kind
	Detail string
}

// Engine holds what is known about the connected catalog. It is filled in
// as the explorer loads things: schema names, the objects of the active
// schema, and the columns of every table whose detail was opened.
type Engine struct {
	mu        sync.RWMutex
	owner     string
	schemas   []string
	objects   []schema.Entry
	columns   map[string][]schema.Column // table name -> columns
	keywords  []string
	functions []string
}

// NewEngine creates an engine that knows only the Oracle keywords and
// functions.
func NewEngine() *Engine {
	return &Engine{
		columns:   make(map[string][]schema.Column),
		keywords:  append([]string(nil), Keywords...),
		functions: append([]string(nil), Functions...),
	}
}

// SetSchemas replaces the known schema names.
func (e *Engine) SetSchemas(names []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.schemas = append([]string(nil), names...)
}

// SetObjects replaces the objects of the active schema. Switching to
// another owner forgets the columns collected so far.
func (e *Engine) SetObjects(owner string, entries []schema.Entry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if owner != e.owner {
		e.columns = make(map[string][]schema.Column)
	}
	e.owner = owner
	e.objects = append([]schema.Entry(nil), entries...)
}

// SetColumns records the columns of a table of the active schema.
func (e *Engine) SetColumns(table string, cols []schema.Column) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.columns[strings.ToUpper(table)] = cols
}

// Complete returns suggestions for the word ending at cursorPos.
func (e *Engine) Complete(text string, cursorPos int) []Item {
	if cursorPos > len(text) {
		cursorPos = len(text)
	}
	if cursorPos < 0 {
		cursorPos = 0
	}

	before := text[:cursorPos]

	if insideStringLiteral(before) {
		return nil
	}

	prefix, dotContext := extractPrefix(before)

	if dotContext != "" {
		return e.completeDotAccess(text, dotContext, prefix)
	}

	var items []Item
	switch detectContext(before, prefix) {
	case contextFrom:
		items = append(items, e.tableCompletions()...)
		items = append(items, e.schemaCompletions()...)
	case contextColumn:
		items = append(items, e.columnsFromTables(parseFromTables(text))...)
		items = append(items, e.tableCompletions()...)
		items = append(items, e.functionCompletions()...)
	case contextExec:
		items = e.programCompletions()
	default:
		items = append(items, e.keywordCompletions()...)
		items = append(items, e.tableCompletions()...)
		items = append(items, e.functionCompletions()...)
	}

	if prefix == "" {
		if len(items) > maxItems {
			items = items[:maxItems]
		}
		return items
	}
	return fuzzyMatch(prefix, items)
}

type contextKind int

const (
	contextGeneral contextKind = iota
	contextFrom
	contextColumn
	contextExec
)

// fromKeywords are followed by a table name.
var fromKeywords = map[string]bool{
	"FROM": true, "JOIN": true, "INTO": true, "UPDATE": true, "TABLE": true,
}

// columnKeywords are followed by a column expression.
var columnKeywords = map[string]bool{
	"SELECT": true, "WHERE": true, "SET": true, "ON": true,
	"AND": true, "OR": true, "HAVING": true, "BY": true,
}

// execKeywords are followed by a program name.
var execKeywords = map[string]bool{
	"EXEC": true, "EXECUTE": true, "CALL": true,
}

// detectContext classifies the last keyword before prefix.
func detectContext(before, prefix string) contextKind {
	ctxText := strings.TrimSpace(before[:len(before)-len(prefix)])
	if ctxText == "" {
		return contextGeneral
	}
	tokens := strings.Fields(ctxText)
	last := strings.ToUpper(tokens[len(tokens)-1])

	if k, ok := keywordContext(last); ok {
		return k
	}

	// Inside a comma separated list, the keyword that opened it decides.
	if strings.HasSuffix(last, ",") {
		for i := len(tokens) - 1; i >= 0; i-- {
			if k, ok := keywordContext(strings.ToUpper(strings.TrimRight(tokens[i], ","))); ok {
				return k
			}
		}
	}
	return contextGeneral
}

func keywordContext(tok string) (contextKind, bool) {
	switch {
	case fromKeywords[tok]:
		return contextFrom, true
	case columnKeywords[tok]:
		return contextColumn, true
	case execKeywords[tok]:
		return contextExec, true
	}
	return contextGeneral, false
}

// extractPrefix returns the word being typed and what precedes its last
// dot: "HR.EMP.NA" yields ("NA", "HR.EMP").
func extractPrefix(before string) (prefix, dotContext string) {
	i := len(before) - 1
	for i >= 0 && !isWordBreak(rune(before[i])) {
		i--
	}
	word := before[i+1:]
	if dot := strings.LastIndex(word, "."); dot >= 0 {
		return word[dot+1:], word[:dot]
	}
	return word, ""
}

// isWordBreak reports whether r ends an Oracle identifier.
func isWordBreak(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$' || r == '#' || r == '.' || r == '"' {
		return false
	}
	return true
}

// insideStringLiteral reports an odd number of single quotes.
func insideStringLiteral(before string) bool {
	return strings.Count(before, "'")%2 != 0
}

// tableRef is a table named in a FROM or JOIN clause.
type tableRef struct {
	name  string
	alias string
}

var (
	fromClauseRe = regexp.MustCompile(`(?i)\bFROM\s+([\w$#."]+(?:\s+(?:AS\s+)?[\w$#]+)?(?:\s*,\s*[\w$#."]+(?:\s+(?:AS\s+)?[\w$#]+)?)*)`)
	joinClauseRe = regexp.MustCompile(`(?i)\bJOIN\s+([\w$#."]+)(?:\s+(?:AS\s+)?([\w$#]+))?`)
)

// clauseWords end a table reference instead of naming an alias.
var clauseWords = map[string]bool{
	"WHERE": true, "JOIN": true, "LEFT": true, "RIGHT": true, "INNER": true,
	"OUTER": true, "FULL": true, "CROSS": true, "NATURAL": true, "ON": true,
	"GROUP": true, "ORDER": true, "HAVING": true, "UNION": true, "MINUS": true,
	"INTERSECT": true, "CONNECT": true, "START": true, "FETCH": true, "USING": true,
}

// parseFromTables extracts the tables named in FROM and JOIN clauses.
// Names are uppercased with quotes and any owner prefix removed.
func parseFromTables(text string) []tableRef {
	var refs []tableRef
	seen := map[string]bool{}
	add := func(name, alias string) {
		name = tableName(name)
		alias = strings.ToUpper(alias)
		if alias == "AS" || clauseWords[alias] {
			alias = ""
		}
		key := name + " " + alias
		if name == "" || seen[key] {
			return
		}
		seen[key] = true
		refs = append(refs, tableRef{name: name, alias: alias})
	}

	for _, match := range fromClauseRe.FindAllStringSubmatch(text, -1) {
		for _, part := range strings.Split(match[1], ",") {
			tokens := strings.Fields(part)
			switch {
			case len(tokens) == 0:
			case len(tokens) == 1:
				add(tokens[0], "")
			default:
				add(tokens[0], tokens[len(tokens)-1])
			}
		}
	}
	for _, match := range joinClauseRe.FindAllStringSubmatch(text, -1) {
		add(match[1], match[2])
	}
	return refs
}

// tableName strips quotes and the owner from a table reference.
func tableName(ref string) string {
	ref = strings.ReplaceAll(ref, `"`, "")
	if dot := strings.LastIndex(ref, "."); dot >= 0 {
		ref = ref[dot+1:]
	}
	return strings.ToUpper(ref)
}

// completeDotAccess handles OWNER.<prefix>, TABLE.<prefix> and
// ALIAS.<prefix>.
func (e *Engine) completeDotAccess(text, dotContext, prefix string) []Item {
	ctx := strings.ToUpper(strings.ReplaceAll(dotContext, `"`, ""))

	var items []Item
	e.mu.RLock()
	owner := e.owner
	e.mu.RUnlock()
	if ctx == owner {
		items = append(items, e.tableCompletions()...)
		items = append(items, e.programCompletions()...)
	} else {
		table := tableName(ctx)
		for _, ref := range parseFromTables(text) {
			if ref.alias != "" && ref.alias == table {
				table = ref.name
				break
			}
		}
		items = e.columnsForTable(table)
	}

	if prefix == "" {
		return items
	}
	return fuzzyMatch(prefix, items)
}

func (e *Engine) columnsForTable(table string) []Item {
	e.mu.RLock()
	defer e.mu.RUnlock()
	cols, ok := e.columns[table]
	if !ok {
		return nil
	}
	items := make([]Item, 0, len(cols))
	for _, c := range cols {
		detail := c.DataType
		if !c.Nullable {
			detail += " NOT NULL"
		}
		items = append(items, Item{Label: c.Name, Kind: KindColumn, Detail: table + " - " + detail})
	}
	return items
}

func (e *Engine) columnsFromTables(refs []tableRef) []Item {
	var items []Item
	seen := map[string]bool{}
	for _, r := range refs {
		if seen[r.name] {
			continue
		}
		seen[r.name] = true
		items = append(items, e.columnsForTable(r.name)...)
	}
	return items
}

func (e *Engine) tableCompletions() []Item {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var items []Item
	for _, o := range e.objects {
		if o.Type == schema.ObjectTable {
			items = append(items, Item{Label: o.Name, Kind: KindTable, Detail: "table"})
		}
	}
	return items
}

// programCompletions lists packages, procedures and functions once each;
// a package body shares its package's name.
func (e *Engine) programCompletions() []Item {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var items []Item
	seen := map[string]bool{}
	for _, o := range e.objects {
		if !o.Type.IsProgram() || seen[o.Name] {
			continue
		}
		seen[o.Name] = true
		detail := strings.ToLower(o.Type.String())
		if o.Type == schema.ObjectPackageBody {
			detail = "package"
		}
		items = append(items, Item{Label: o.Name, Kind: KindProgram, Detail: detail})
	}
	return items
}

func (e *Engine) schemaCompletions() []Item {
	e.mu.RLock()
	defer e.mu.RUnlock()
	items := make([]Item, 0, len(e.schemas))
	for _, s := range e.schemas {
		items = append(items, Item{Label: s, Kind: KindSchema, Detail: "schema"})
	}
	return items
}

func (e *Engine) keywordCompletions() []Item {
	items := make([]Item, 0, len(e.keywords))
	for _, kw := range e.keywords {
		items = append(items, Item{Label: kw, Kind: KindKeyword, Detail: "keyword"})
	}
	return items
}

func (e *Engine) functionCompletions() []Item {
	items := make([]Item, 0, len(e.functions))
	for _, fn := range e.functions {
		items = append(items, Item{Label: fn, Kind: KindFunction, Detail: "function"})
	}
	return items
}

// labels implements fuzzy.Source over lowercased item labels.
type labels []string

func (l labels) String(i int) string { return l[i] }
func (l labels) Len() int            { return len(l) }

// fuzzyMatch ranks items against prefix, case-insensitively, best first.
func fuzzyMatch(prefix string, items []Item) []Item {
	if len(items) == 0 {
		return nil
	}
	src := make(labels, len(items))
	for i, it := range items {
		src[i] = strings.ToLower(it.Label)
	}

	matches := fuzzy.FindFrom(strings.ToLower(prefix), src)
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	result := make([]Item, 0, len(matches))
	for _, m := range matches {
		result = append(result, items[m.Index])
	}
	if len(result) > maxItems {
		result = result[:maxItems]
	}
	return result
}
