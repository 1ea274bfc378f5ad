package suggest

import (
	"sync/atomic"

	"github.com/bastiangx/sqlserve/pkg/schema"
	"github.com/bastiangx/sqlserve/pkg/vocab"
	"github.com/charmbracelet/log"
)

// Completer runs the classify, generate and assemble stages against the
// snapshot currently published in its store. It keeps no per-request
// state, so identical inputs give identical output.
type Completer struct {
	store    *schema.Store
	gen      *Generator
	requests atomic.Int64
}

// NewCompleter reads snapshots from store on every request.
func NewCompleter(store *schema.Store, v vocab.Vocabulary) *Completer {
	return &Completer{
		store: store,
		gen:   NewGenerator(v),
	}
}

// Complete returns the popup list for a 1-based cursor position.
func (c *Completer) Complete(buffer string, line, column int) []Suggestion {
	_, candidates := c.Explain(buffer, line, column)
	return toSuggestions(candidates)
}

// Explain is Complete with the context and tiers left in, for debugging.
func (c *Completer) Explain(buffer string, line, column int) (CursorContext, []Candidate) {
	c.requests.Add(1)

	// one load per request; a concurrent domain switch is seen next time
	snap := c.store.Current()

	lineBefore := LineBeforeCursor(buffer, line, column)
	cc := Classify(lineBefore)
	raw := c.gen.Generate(cc, snap, buffer)
	out := Assemble(raw)

	log.Debug("Completed", "context", cc.Class, "table", cc.TableToken,
		"domain", snap.Domain(), "raw", len(raw), "kept", len(out))
	return cc, out
}

// Stats reports request and vocabulary counters.
func (c *Completer) Stats() map[string]int {
	snap := c.store.Current()
	columns := 0
	for _, t := range snap.Tables() {
		columns += len(t.Columns)
	}
	return map[string]int{
		"requests":  int(c.requests.Load()),
		"tables":    snap.Len(),
		"columns":   columns,
		"keywords":  len(c.gen.vocab.Keywords),
		"functions": len(c.gen.vocab.Functions),
	}
}
