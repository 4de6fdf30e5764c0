package adapter

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

var (
	ErrNotConnected = errors.New("not connected to database")
)

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueText
	ValueBinary
	ValueOther
)

// Value is a single cell decoded at the data access boundary.
type Value struct {
	Kind ValueKind
	Text string
	Size int // byte count for ValueBinary
}

// Null is the NULL value.
var Null = Value{Kind: ValueNull}

// Text returns a text value.
func Text(s string) Value {
	return Value{Kind: ValueText, Text: s}
}

// ToValue converts a scanned driver value. Byte slices that are valid UTF-8
// become text; other byte slices keep only their size.
func ToValue(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null
	case string:
		return Text(x)
	case []byte:
		if utf8.Valid(x) {
			return Text(string(x))
		}
		return Value{Kind: ValueBinary, Size: len(x)}
	case time.Time:
		return Value{Kind: ValueOther, Text: x.Format("2006-01-02 15:04:05")}
	case fmt.Stringer:
		return Value{Kind: ValueOther, Text: x.String()}
	default:
		return Value{Kind: ValueOther, Text: fmt.Sprint(x)}
	}
}

// String renders the value for display.
func (v Value) String() string {
	switch v.Kind {
	case ValueNull:
		return "NULL"
	case ValueBinary:
		return fmt.Sprintf("<binary data: %d bytes>", v.Size)
	default:
		return v.Text
	}
}

// ResultSet holds the rows of a query.
type ResultSet struct {
	Columns   []string
	Rows      [][]Value
	Query     string
	Duration  time.Duration
	Truncated bool
	Message   string // set for statements without a result set
}

// RowCount returns the number of fetched rows.
func (r *ResultSet) RowCount() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Strings returns the rows rendered as display strings.
func (r *ResultSet) Strings() [][]string {
	if r == nil {
		return nil
	}
	out := make([][]string, len(r.Rows))
	for i, row := range r.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = v.String()
		}
		out[i] = cells
	}
	return out
}
