package suggest

import (
	"github.com/bastiangx/sqlserve/pkg/schema"
	"github.com/bastiangx/sqlserve/pkg/vocab"
)

// testVocab keeps expectations short. COUNT is both a function and a
// keyword so dedup across kinds shows up in clause results.
var testVocab = vocab.Vocabulary{
	ClauseKeywords: []string{"SELECT", "WHERE"},
	Functions:      []string{"COUNT", "SUM"},
	Keywords:       []string{"SELECT", "FROM", "WHERE", "COUNT"},
}

func testTables() []schema.TableMetadata {
	return []schema.TableMetadata{
		{TableName: "orders", Columns: []schema.ColumnMetadata{
			{ColumnName: "id", DataType: "integer"},
			{ColumnName: "customer_id", DataType: "integer"},
			{ColumnName: "total", DataType: "numeric"},
		}},
		{TableName: "customers", Columns: []schema.ColumnMetadata{
			{ColumnName: "id", DataType: "integer"},
			{ColumnName: "name", DataType: "text"},
		}},
		{TableName: "products", Columns: []schema.ColumnMetadata{
			{ColumnName: "sku", DataType: "text"},
			{ColumnName: "name", DataType: "text"},
		}},
	}
}

func testSnapshot() *schema.Snapshot {
	return schema.NewSnapshot("pa", testTables())
}

func labels[T Candidate | Suggestion](items []T) []string {
	out := make([]string, len(items))
	for i, item := range items {
		switch v := any(item).(type) {
		case Candidate:
			out[i] = v.Label
		case Suggestion:
			out[i] = v.Label
		}
	}
	return out
}
