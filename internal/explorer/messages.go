package explorer

import (
	"github.com/sadopc/oraterm/internal/adapter"
	"github.com/sadopc/oraterm/internal/schema"
)

// ConnectedMsg is sent when the connection attempt finishes.
type ConnectedMsg struct {
	Catalog Catalog
	Err     error
}

// SchemasLoadedMsg carries the schemas visible to the login user.
type SchemasLoadedMsg struct {
	Schemas []string
	Err     error
}

// CatalogLoadedMsg carries a finished catalog load. Gen identifies the load
// so that a load superseded by a schema switch is dropped.
type CatalogLoadedMsg struct {
	Gen     uint64
	Schema  string
	Entries []schema.Entry
	Err     error
}

// DetailLoadedMsg carries a finished detail load.
type DetailLoadedMsg struct {
	Gen    uint64
	Schema string
	Entry  schema.Entry
	Detail Detail
	Err    error
}

// QueryResultMsg carries the outcome of an ad-hoc statement.
type QueryResultMsg struct {
	RunID  uint64
	Query  string
	Result *adapter.ResultSet
	Err    error
}
