/*
Package suggest is the core: it classifies the cursor position inside a SQL
buffer and turns the active schema snapshot plus the static vocabulary into
a ranked, deduplicated suggestion list.

The pipeline has three stages and no parser:

	cc := Classify(lineBeforeCursor)         // regex heuristics on the current line
	raw := gen.Generate(cc, snapshot, buffer) // candidates with priority tiers
	list := Assemble(raw)                     // first label wins, stable tier sort

Every stage is total. Malformed text classifies as Generic, unknown tables
degrade to a lower-tier column dump and an empty snapshot produces only
keywords and functions.
*/
package suggest

// ICompleter defines the interface for SQL completion engines
type ICompleter interface {
	// Complete returns suggestions for a 1-based cursor position in buffer
	Complete(buffer string, line, column int) []Suggestion

	// Explain returns the classified context and tiered candidates for the same position
	Explain(buffer string, line, column int) (CursorContext, []Candidate)

	// Stats returns counters about the engine and its active snapshot
	Stats() map[string]int
}
