package suggest

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/bastiangx/sqlserve/pkg/schema"
	"github.com/bastiangx/sqlserve/pkg/vocab"
)

var usedTablePattern = regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+([A-Za-z0-9_]+)`)

// Generator turns a cursor context into tiered candidates.
// It holds no per-request state and is safe for concurrent use.
type Generator struct {
	vocab vocab.Vocabulary
}

// NewGenerator creates a generator over a private copy of v.
func NewGenerator(v vocab.Vocabulary) *Generator {
	return &Generator{vocab: v.Clone()}
}

// Generate returns candidates in generation order, duplicates included.
func (g *Generator) Generate(cc CursorContext, snap *schema.Snapshot, buffer string) []Candidate {
	switch cc.Class {
	case AfterFromJoin:
		return g.fromJoinCandidates(snap)
	case AfterDotOnTable:
		return g.dotCandidates(snap, cc.TableToken)
	case AfterSelectWhereClause:
		return g.clauseCandidates(snap, buffer)
	default:
		return g.genericCandidates(snap)
	}
}

func (g *Generator) fromJoinCandidates(snap *schema.Snapshot) []Candidate {
	tables := snap.Tables()
	out := make([]Candidate, 0, len(tables)+len(g.vocab.ClauseKeywords))
	for _, t := range tables {
		out = append(out, tableCandidate(t, tierPrimary))
	}
	return appendKeywords(out, g.vocab.ClauseKeywords, tierKeyword)
}

// dotCandidates offers only columns, so an empty snapshot yields an empty list.
func (g *Generator) dotCandidates(snap *schema.Snapshot, token string) []Candidate {
	if t, ok := snap.Lookup(token); ok {
		out := make([]Candidate, 0, len(t.Columns))
		for _, c := range t.Columns {
			out = append(out, columnCandidate(c.ColumnName, "Column in "+t.TableName, tierPrimary))
		}
		return out
	}

	// alias or typo: offer everything rather than nothing
	var out []Candidate
	for _, t := range snap.Tables() {
		for _, c := range t.Columns {
			out = append(out, columnCandidate(c.ColumnName, "Column in "+t.TableName, tierFallbackColumn))
		}
	}
	return out
}

func (g *Generator) clauseCandidates(snap *schema.Snapshot, buffer string) []Candidate {
	tables := tablesInScope(snap, buffer)

	var order []string
	owners := make(map[string][]string)
	for _, t := range tables {
		for _, c := range t.Columns {
			name := c.ColumnName
			prev, seen := owners[name]
			if !seen {
				order = append(order, name)
			}
			if len(prev) > 0 && prev[len(prev)-1] == t.TableName {
				continue
			}
			owners[name] = append(prev, t.TableName)
		}
	}

	out := make([]Candidate, 0, len(order)+len(g.vocab.Functions)+len(g.vocab.Keywords))
	for _, name := range order {
		tablesWith := owners[name]
		if len(tablesWith) == 1 {
			out = append(out, columnCandidate(name, tablesWith[0], tierPrimary))
			continue
		}
		// a bare name would be an ambiguous reference
		detail := "Column (" + strconv.Itoa(len(tablesWith)) + " tables)"
		for _, table := range tablesWith {
			out = append(out, columnCandidate(table+"."+name, detail, tierPrimary))
		}
	}

	for _, fn := range g.vocab.Functions {
		out = append(out, Candidate{
			Label:      fn,
			InsertText: fn,
			Kind:       KindFunction,
			Detail:     "Function",
			Tier:       tierSecondary,
		})
	}
	return appendKeywords(out, g.vocab.Keywords, tierKeyword)
}

func (g *Generator) genericCandidates(snap *schema.Snapshot) []Candidate {
	out := appendKeywords(nil, g.vocab.Keywords, tierGenericKeyword)
	for _, t := range snap.Tables() {
		out = append(out, tableCandidate(t, tierPrimary))
		for _, c := range t.Columns {
			out = append(out, columnCandidate(c.ColumnName, "Column in "+t.TableName, tierSecondary))
		}
	}
	return out
}

// tablesInScope narrows the snapshot to the tables named after FROM or
// JOIN anywhere in the buffer. With no such reference every table is in scope.
func tablesInScope(snap *schema.Snapshot, buffer string) []schema.TableMetadata {
	names := UsedTables(buffer)
	if len(names) == 0 {
		return snap.Tables()
	}

	used := make(map[string]struct{}, len(names))
	for _, name := range names {
		used[name] = struct{}{}
	}

	var scoped []schema.TableMetadata
	for _, t := range snap.Tables() {
		if _, ok := used[strings.ToLower(t.TableName)]; ok {
			scoped = append(scoped, t)
		}
	}
	return scoped
}

// UsedTables returns the lowercased table names referenced after FROM or
// JOIN in buffer, in first-seen order.
func UsedTables(buffer string) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, m := range usedTablePattern.FindAllStringSubmatch(buffer, -1) {
		name := strings.ToLower(m[1])
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

func tableCandidate(t schema.TableMetadata, tier int) Candidate {
	return Candidate{
		Label:      t.TableName,
		InsertText: t.TableName,
		Kind:       KindTable,
		Detail:     "Table",
		Tier:       tier,
	}
}

func columnCandidate(label, detail string, tier int) Candidate {
	return Candidate{
		Label:      label,
		InsertText: label,
		Kind:       KindColumn,
		Detail:     detail,
		Tier:       tier,
	}
}

func appendKeywords(out []Candidate, words []string, tier int) []Candidate {
	for _, w := range words {
		out = append(out, Candidate{
			Label:      w,
			InsertText: w,
			Kind:       KindKeyword,
			Detail:     "Keyword",
			Tier:       tier,
		})
	}
	return out
}
