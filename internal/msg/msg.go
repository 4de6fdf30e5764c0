// Package msg holds the messages exchanged between the UI components and
// the explorer session. Intent messages describe what the user asked for;
// the session decides what happens.
package msg

import (
	"time"

	"github.com/sadopc/oraterm/internal/schema"
)

// Pane focus targets.
type Pane int

const (
	PaneList Pane = iota
	PaneDetail
	PaneSQL
)

func (p Pane) String() string {
	switch p {
	case PaneDetail:
		return "detail"
	case PaneSQL:
		return "sql"
	default:
		return "objects"
	}
}

// ConnectMsg asks the session to open its connection.
type ConnectMsg struct{}

// LoadSchemasMsg asks for the list of schemas.
type LoadSchemasMsg struct{}

// SelectSchemaMsg switches the active schema.
type SelectSchemaMsg struct {
	Schema string
}

// ToggleFilterMsg shows or hides one object type.
type ToggleFilterMsg struct {
	Type    schema.ObjectType
	Enabled bool
}

// SetFiltersMsg replaces the visible object types at once.
type SetFiltersMsg struct {
	Types []schema.ObjectType
}

// SetSearchMsg replaces the search term.
type SetSearchMsg struct {
	Term string
}

// SelectEntryMsg selects an object and loads its detail.
type SelectEntryMsg struct {
	Entry schema.Entry
}

// RefreshMsg reloads the catalog of the active schema.
type RefreshMsg struct{}

// ExecuteQueryMsg runs an ad-hoc statement.
type ExecuteQueryMsg struct {
	Query string
}

// CancelQueryMsg abandons the running ad-hoc statement.
type CancelQueryMsg struct{}

// CopyRequestMsg copies the current detail to the clipboard.
type CopyRequestMsg struct{}

// CopyDoneMsg reports the outcome of a clipboard copy.
type CopyDoneMsg struct {
	What string
	Err  error
}

// ExportRequestMsg writes the current rows to a file.
type ExportRequestMsg struct {
	Format string
}

// ExportCompleteMsg is sent when export finishes.
type ExportCompleteMsg struct {
	Path     string
	RowCount int
}

// ExportErrMsg is sent when export fails.
type ExportErrMsg struct {
	Err error
}

// StatusMsg updates the status bar text.
type StatusMsg struct {
	Text     string
	IsError  bool
	Duration time.Duration
}

// FocusMsg requests a pane focus change.
type FocusMsg struct {
	Pane Pane
}
