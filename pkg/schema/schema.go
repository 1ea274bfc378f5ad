/*
Package schema holds the table metadata the completion engine reads.

Metadata is fetched per problem domain ("pa", "stream", "rca", ...) from a
Provider and frozen into a Snapshot. The Store publishes the active Snapshot
to readers through a single atomic pointer, so a completion request sees
either the old schema in full or the new one in full.

	ws := schema.NewWorkspace(provider, 8)
	err := ws.SwitchDomain(ctx, "pa")
	snap := ws.Store().Current()
*/
package schema

import (
	"github.com/cockroachdb/errors"
)

// ErrUnknownDomain is returned by providers when no schema exists for a data type.
var ErrUnknownDomain = errors.New("unknown schema domain")

// ColumnMetadata describes one column.
// DataType is only used for display; completion ignores it.
type ColumnMetadata struct {
	ColumnName string `toml:"column_name" msgpack:"column_name" json:"column_name"`
	DataType   string `toml:"data_type,omitempty" msgpack:"data_type,omitempty" json:"data_type,omitempty"`
}

// TableMetadata describes one table and its columns in declaration order.
type TableMetadata struct {
	TableName string           `toml:"table_name" msgpack:"table_name" json:"table_name"`
	Columns   []ColumnMetadata `toml:"columns" msgpack:"columns" json:"columns"`
}

// ColumnNames returns the column names of t in order.
func (t TableMetadata) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.ColumnName
	}
	return names
}
