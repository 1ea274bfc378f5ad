package suggest

import (
	"sync"
	"testing"

	"github.com/bastiangx/sqlserve/pkg/schema"
	"github.com/bastiangx/sqlserve/pkg/vocab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCompleter() (*Completer, *schema.Store) {
	store := &schema.Store{}
	store.Replace(testSnapshot())
	return NewCompleter(store, testVocab), store
}

func TestCompleteScenarios(t *testing.T) {
	c, _ := newTestCompleter()

	tests := []struct {
		name         string
		buffer       string
		line, column int
		want         []string
	}{
		{
			name:   "tables after from",
			buffer: "SELECT * FROM ",
			line:   1, column: 15,
			want: []string{"orders", "customers", "products", "SELECT", "WHERE"},
		},
		{
			name:   "columns after table dot",
			buffer: "SELECT customers.",
			line:   1, column: 18,
			want: []string{"id", "name"},
		},
		{
			name:   "alias falls back to every column",
			buffer: "SELECT o.\nFROM orders o",
			line:   1, column: 10,
			want: []string{"id", "customer_id", "total", "name", "sku"},
		},
		{
			name:   "clause qualifies ambiguous columns",
			buffer: "SELECT \nFROM orders JOIN customers ON orders.customer_id = customers.id",
			line:   1, column: 8,
			want: []string{
				"orders.id", "customers.id", "customer_id", "total", "name",
				"COUNT", "SUM", "SELECT", "FROM", "WHERE",
			},
		},
		{
			name:   "generic puts schema above keywords",
			buffer: "SELECT",
			line:   1, column: 7,
			want: []string{
				"orders", "customers", "products",
				"id", "customer_id", "total", "name", "sku",
				"SELECT", "FROM", "WHERE", "COUNT",
			},
		},
		{
			name:   "cursor mid buffer on second line",
			buffer: "SELECT *\nFROM \nWHERE x = 1",
			line:   2, column: 6,
			want: []string{"orders", "customers", "products", "SELECT", "WHERE"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, labels(c.Complete(tt.buffer, tt.line, tt.column)))
		})
	}
}

func TestCompleteSuggestionFields(t *testing.T) {
	c, _ := newTestCompleter()
	got := c.Complete("SELECT orders.", 1, 15)
	require.NotEmpty(t, got)
	assert.Equal(t, Suggestion{
		Label:      "id",
		InsertText: "id",
		Kind:       KindColumn,
		Detail:     "Column in orders",
	}, got[0])
}

func TestCompleteIsDeterministic(t *testing.T) {
	c, _ := newTestCompleter()
	buffer := "SELECT \nFROM orders o JOIN customers c ON o.id = c.id"
	first := c.Complete(buffer, 1, 8)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.Complete(buffer, 1, 8))
	}
}

func TestCompleteUniqueLabelsAndTierOrder(t *testing.T) {
	c, _ := newTestCompleter()
	inputs := []string{"", "SELECT ", "SELECT * FROM ", "SELECT x.", "SELECT orders.", "WHERE a AND "}
	for _, in := range inputs {
		_, got := c.Explain(in, 1, len(in)+1)
		seen := make(map[string]bool)
		for i, cand := range got {
			assert.False(t, seen[cand.Label], "duplicate %q for %q", cand.Label, in)
			seen[cand.Label] = true
			if i > 0 {
				assert.LessOrEqual(t, got[i-1].Tier, cand.Tier, in)
			}
		}
	}
}

func TestCompleteEmptyStore(t *testing.T) {
	c := NewCompleter(&schema.Store{}, vocab.Default())

	for _, in := range []string{"", "SELECT ", "SELECT * FROM ", "SELECT o."} {
		for _, s := range c.Complete(in, 1, len(in)+1) {
			assert.NotEqual(t, KindTable, s.Kind, in)
			assert.NotEqual(t, KindColumn, s.Kind, in)
		}
	}
	assert.Empty(t, c.Complete("SELECT o.", 1, 10))
}

func TestCompleteSeesReplacedSnapshot(t *testing.T) {
	c, store := newTestCompleter()
	assert.Contains(t, labels(c.Complete("SELECT * FROM ", 1, 15)), "orders")

	store.Replace(schema.NewSnapshot("stream", []schema.TableMetadata{
		{TableName: "sessions", Columns: []schema.ColumnMetadata{{ColumnName: "viewer_id"}}},
	}))
	got := labels(c.Complete("SELECT * FROM ", 1, 15))
	assert.Contains(t, got, "sessions")
	assert.NotContains(t, got, "orders")
}

func TestCompleteConcurrentWithReplace(t *testing.T) {
	c, store := newTestCompleter()
	stream := schema.NewSnapshot("stream", []schema.TableMetadata{
		{TableName: "sessions", Columns: []schema.ColumnMetadata{{ColumnName: "viewer_id"}}},
	})
	pa := testSnapshot()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if i%2 == 0 {
				store.Replace(stream)
			} else {
				store.Replace(pa)
			}
		}
	}()

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				got := labels(c.Complete("SELECT * FROM ", 1, 15))
				// one snapshot per request: never a mix of both domains
				hasStream := contains(got, "sessions")
				hasPA := contains(got, "orders")
				assert.True(t, hasStream != hasPA, "mixed snapshot: %v", got)
			}
		}()
	}
	wg.Wait()
}

func TestStats(t *testing.T) {
	c, _ := newTestCompleter()
	c.Complete("", 1, 1)
	c.Complete("SELECT ", 1, 8)

	stats := c.Stats()
	assert.Equal(t, 2, stats["requests"])
	assert.Equal(t, 3, stats["tables"])
	assert.Equal(t, 7, stats["columns"])
	assert.Equal(t, 4, stats["keywords"])
	assert.Equal(t, 2, stats["functions"])
}

func TestCandidateKindString(t *testing.T) {
	assert.Equal(t, "table", KindTable.String())
	assert.Equal(t, "column", KindColumn.String())
	assert.Equal(t, "function", KindFunction.String())
	assert.Equal(t, "keyword", KindKeyword.String())
	assert.Equal(t, "unknown", CandidateKind(42).String())
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
