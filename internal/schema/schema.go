package schema

import "strings"

// ObjectType is a browsable kind of database object.
type ObjectType int

const (
	ObjectTable ObjectType = iota
	ObjectPackage
	ObjectPackageBody
	ObjectProcedure
	ObjectFunction
)

// ObjectTypes lists every browsable type in display order.
var ObjectTypes = []ObjectType{
	ObjectTable,
	ObjectPackage,
	ObjectPackageBody,
	ObjectProcedure,
	ObjectFunction,
}

// String returns the data dictionary spelling of the type.
func (t ObjectType) String() string {
	switch t {
	case ObjectPackage:
		return "PACKAGE"
	case ObjectPackageBody:
		return "PACKAGE BODY"
	case ObjectProcedure:
		return "PROCEDURE"
	case ObjectFunction:
		return "FUNCTION"
	default:
		return "TABLE"
	}
}

// IsProgram reports whether objects of this type have source text.
func (t ObjectType) IsProgram() bool {
	return t != ObjectTable
}

// ParseObjectType accepts the dictionary spelling, case-insensitively, with
// either a space or an underscore in "PACKAGE BODY".
func ParseObjectType(s string) (ObjectType, bool) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "_", " ")
	for _, t := range ObjectTypes {
		if t.String() == norm {
			return t, true
		}
	}
	return ObjectTable, false
}

// Entry is one browsable object in the active schema.
type Entry struct {
	Name string
	Type ObjectType
}

// Column describes one table column as stored in the dictionary.
type Column struct {
	ID        int
	Name      string
	DataType  string
	Length    int64
	Precision *int64
	Scale     *int64
	Nullable  bool
	Default   string
}

// Index represents a table index.
type Index struct {
	Name    string
	Type    string
	Unique  bool
	Columns []string
}

// Constraint is a table constraint with its columns in position order.
type Constraint struct {
	Name          string
	Type          string // P, U, R, C
	Columns       []string
	Condition     string
	RefConstraint string
	DeleteRule    string
	Status        string
}

// TypeName spells out the single-letter constraint type.
func (c Constraint) TypeName() string {
	switch c.Type {
	case "P":
		return "PRIMARY KEY"
	case "U":
		return "UNIQUE"
	case "R":
		return "FOREIGN KEY"
	case "C":
		return "CHECK"
	default:
		return c.Type
	}
}

// ForeignKey is one column pair of a referential constraint. For a parent
// relationship Table is the referenced table; for a child it is the
// referencing table.
type ForeignKey struct {
	Constraint string
	Column     string
	Table      string
	RefColumn  string
}

// Relationships groups the foreign keys around one table.
type Relationships struct {
	Parents  []ForeignKey
	Children []ForeignKey
}

// RelatedTable is a table reachable through foreign keys.
type RelatedTable struct {
	Table        string
	Relationship string // PARENT or CHILD
	Level        int
}

// SearchMatch is one hit of a table or column search.
type SearchMatch struct {
	Table  string
	Column string
	Match  string // TABLE_NAME or COLUMN_NAME
}

// Trigger describes a table trigger.
type Trigger struct {
	Name        string
	Type        string
	Event       string
	Status      string
	Description string
}

// TableStats holds best-effort size information for a table.
type TableStats struct {
	RowCount  int64
	SizeMB    float64
	SizeKnown bool
}
