package suggest

import (
	"testing"

	"github.com/bastiangx/sqlserve/pkg/schema"
	"github.com/bastiangx/sqlserve/pkg/vocab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAfterFromJoin(t *testing.T) {
	gen := NewGenerator(testVocab)
	got := gen.Generate(CursorContext{Class: AfterFromJoin}, testSnapshot(), "SELECT * FROM ")

	require.Len(t, got, 5)
	assert.Equal(t, []string{"orders", "customers", "products", "SELECT", "WHERE"}, labels(got))
	for _, c := range got[:3] {
		assert.Equal(t, KindTable, c.Kind)
		assert.Equal(t, tierPrimary, c.Tier)
		assert.Equal(t, "Table", c.Detail)
		assert.Equal(t, c.Label, c.InsertText)
	}
	for _, c := range got[3:] {
		assert.Equal(t, KindKeyword, c.Kind)
		assert.Equal(t, tierKeyword, c.Tier)
	}
}

func TestGenerateAfterDotResolved(t *testing.T) {
	gen := NewGenerator(testVocab)

	for _, token := range []string{"orders", "ORDERS", "Orders"} {
		got := gen.Generate(CursorContext{Class: AfterDotOnTable, TableToken: token}, testSnapshot(), "")
		assert.Equal(t, []string{"id", "customer_id", "total"}, labels(got), token)
		for _, c := range got {
			assert.Equal(t, KindColumn, c.Kind)
			assert.Equal(t, tierPrimary, c.Tier)
			assert.Equal(t, "Column in orders", c.Detail)
		}
	}
}

func TestGenerateAfterDotUnresolved(t *testing.T) {
	gen := NewGenerator(testVocab)
	got := gen.Generate(CursorContext{Class: AfterDotOnTable, TableToken: "o"}, testSnapshot(), "")

	assert.Equal(t, []string{"id", "customer_id", "total", "id", "name", "sku", "name"}, labels(got))
	for _, c := range got {
		assert.Equal(t, tierFallbackColumn, c.Tier)
		assert.Equal(t, KindColumn, c.Kind)
	}
	assert.Equal(t, "Column in customers", got[3].Detail)
}

func TestGenerateClauseScopesToUsedTables(t *testing.T) {
	gen := NewGenerator(testVocab)
	buffer := "SELECT \nFROM orders o JOIN customers c ON o.customer_id = c.id"
	got := gen.Generate(CursorContext{Class: AfterSelectWhereClause}, testSnapshot(), buffer)

	assert.Equal(t, []string{
		"orders.id", "customers.id", "customer_id", "total", "name",
		"COUNT", "SUM",
		"SELECT", "FROM", "WHERE", "COUNT",
	}, labels(got))

	assert.Equal(t, "Column (2 tables)", got[0].Detail)
	assert.Equal(t, "Column (2 tables)", got[1].Detail)
	assert.Equal(t, "orders", got[2].Detail)
	assert.Equal(t, "customers", got[4].Detail)
	for _, c := range got[:5] {
		assert.Equal(t, tierPrimary, c.Tier)
		assert.Equal(t, c.Label, c.InsertText)
	}
	assert.Equal(t, KindFunction, got[5].Kind)
	assert.Equal(t, tierSecondary, got[5].Tier)
	assert.Equal(t, tierKeyword, got[7].Tier)
}

func TestGenerateClauseWithoutFromUsesWholeSnapshot(t *testing.T) {
	gen := NewGenerator(vocabWithoutWords())
	got := gen.Generate(CursorContext{Class: AfterSelectWhereClause}, testSnapshot(), "SELECT ")

	assert.Equal(t, []string{
		"orders.id", "customers.id", "customer_id", "total",
		"customers.name", "products.name", "sku",
	}, labels(got))
	assert.Equal(t, "Column (2 tables)", got[4].Detail)
	assert.Equal(t, "products", got[6].Detail)
}

func TestGenerateClauseUnknownUsedTableYieldsNoColumns(t *testing.T) {
	gen := NewGenerator(vocabWithoutWords())
	got := gen.Generate(CursorContext{Class: AfterSelectWhereClause}, testSnapshot(), "SELECT x FROM missing WHERE ")
	assert.Empty(t, got)
}

func TestGenerateClauseMatchesTableNamesIgnoringCase(t *testing.T) {
	gen := NewGenerator(vocabWithoutWords())
	got := gen.Generate(CursorContext{Class: AfterSelectWhereClause}, testSnapshot(), "select  from PRODUCTS where ")
	assert.Equal(t, []string{"sku", "name"}, labels(got))
}

func TestGenerateGeneric(t *testing.T) {
	gen := NewGenerator(testVocab)
	got := gen.Generate(CursorContext{Class: Generic}, testSnapshot(), "")

	assert.Equal(t, []string{
		"SELECT", "FROM", "WHERE", "COUNT",
		"orders", "id", "customer_id", "total",
		"customers", "id", "name",
		"products", "sku", "name",
	}, labels(got))
	assert.Equal(t, tierGenericKeyword, got[0].Tier)
	assert.Equal(t, tierPrimary, got[4].Tier)
	assert.Equal(t, tierSecondary, got[5].Tier)
	assert.Equal(t, "Column in orders", got[5].Detail)
}

func TestGenerateEmptySnapshotOnlyKeywords(t *testing.T) {
	gen := NewGenerator(testVocab)
	empty := schema.NewSnapshot("", nil)

	contexts := []CursorContext{
		{Class: Generic},
		{Class: AfterFromJoin},
		{Class: AfterDotOnTable, TableToken: "orders"},
		{Class: AfterSelectWhereClause},
	}
	for _, cc := range contexts {
		for _, c := range gen.Generate(cc, empty, "SELECT * FROM orders WHERE ") {
			assert.Contains(t, []CandidateKind{KindKeyword, KindFunction}, c.Kind, cc.Class.String())
		}
	}
}

func TestGenerateAfterDotEmptySnapshot(t *testing.T) {
	gen := NewGenerator(testVocab)
	empty := schema.NewSnapshot("", nil)

	assert.Empty(t, gen.Generate(CursorContext{Class: AfterDotOnTable, TableToken: "orders"}, empty, "SELECT orders."))
	assert.Empty(t, gen.Generate(CursorContext{Class: AfterDotOnTable, TableToken: "o"}, empty, "SELECT o."))
}

func TestUsedTables(t *testing.T) {
	buffer := "SELECT * FROM Orders o\nJOIN customers c ON 1=1\nleft join ORDERS x"
	assert.Equal(t, []string{"orders", "customers"}, UsedTables(buffer))
	assert.Empty(t, UsedTables("SELECT 1"))
}

func TestGeneratorCopiesVocabulary(t *testing.T) {
	v := testVocab.Clone()
	gen := NewGenerator(v)
	v.ClauseKeywords[0] = "CHANGED"

	got := gen.Generate(CursorContext{Class: AfterFromJoin}, schema.NewSnapshot("", nil), "")
	assert.Equal(t, "SELECT", got[0].Label)
}

// vocabWithoutWords leaves only schema-derived candidates.
func vocabWithoutWords() vocab.Vocabulary {
	return vocab.Vocabulary{}
}
