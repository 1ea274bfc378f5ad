package schema

import (
	"strings"
	"sync/atomic"

	"github.com/tchap/go-patricia/v2/patricia"
)

// Snapshot is an immutable view of one domain's tables.
// Build it with NewSnapshot and never modify the slices it hands out.
type Snapshot struct {
	domain string
	tables []TableMetadata
	index  *patricia.Trie
}

var emptySnapshot = &Snapshot{index: patricia.NewTrie()}

// NewSnapshot copies tables into a new Snapshot and indexes the
// lowercased table names. When two tables fold to the same name the
// first one wins lookups.
func NewSnapshot(domain string, tables []TableMetadata) *Snapshot {
	owned := make([]TableMetadata, len(tables))
	for i, t := range tables {
		cols := make([]ColumnMetadata, len(t.Columns))
		copy(cols, t.Columns)
		owned[i] = TableMetadata{TableName: t.TableName, Columns: cols}
	}

	index := patricia.NewTrie()
	for i, t := range owned {
		index.Insert(patricia.Prefix(strings.ToLower(t.TableName)), i)
	}

	return &Snapshot{
		domain: domain,
		tables: owned,
		index:  index,
	}
}

// Domain returns the data type this snapshot was loaded for.
func (s *Snapshot) Domain() string {
	if s == nil {
		return ""
	}
	return s.domain
}

// Tables returns the tables in provider order. Callers must not modify it.
func (s *Snapshot) Tables() []TableMetadata {
	if s == nil {
		return nil
	}
	return s.tables
}

// Len returns the number of tables.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.tables)
}

// Lookup resolves name against the table names, ignoring case.
func (s *Snapshot) Lookup(name string) (TableMetadata, bool) {
	if s == nil || name == "" {
		return TableMetadata{}, false
	}
	item := s.index.Get(patricia.Prefix(strings.ToLower(name)))
	if item == nil {
		return TableMetadata{}, false
	}
	return s.tables[item.(int)], true
}

// Store publishes the active Snapshot. The zero value is ready to use and
// reads as an empty snapshot.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// Current returns the most recently published snapshot.
func (st *Store) Current() *Snapshot {
	if snap := st.current.Load(); snap != nil {
		return snap
	}
	return emptySnapshot
}

// Replace publishes snap. A nil snap clears the store.
func (st *Store) Replace(snap *Snapshot) {
	st.current.Store(snap)
}
