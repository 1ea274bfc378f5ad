/*
Package server implements msgpack IPC for SQL completion services.

Editors spawn the binary and exchange msgpack values over stdin/stdout.
Every request carries an ID that is echoed in the response. Requests without
an action are completion requests; the rest name an action.

# Completion

The cursor position is 1-based, as editors report it:

	{"id": "c1", "b": "SELECT o.\nFROM orders o", "ln": 1, "col": 10}

Suggestions come back already deduplicated and ordered:

	{"id": "c1", "s": [{"l": "id", "i": "id", "k": "column", "d": "Column in orders"}], "c": 1, "t": 85}

Set "f" to true to have the list narrowed by the identifier being typed,
for hosts that do not filter their popup. "l" caps the list length.

# Actions

	{"id": "d1", "action": "set_domain", "domain": "stream"}
	{"id": "d2", "action": "get_schema"}
	{"id": "d3", "action": "list_domains"}
	{"id": "x1", "action": "execute", "sql": "SELECT 1"}
	{"id": "i1", "action": "get_info"}

Failures produce a CompletionError frame with an HTTP-like code.
*/
package server

// Request is the union of every request shape. Decoding into one struct
// keeps the stream in sync even when a client sends unexpected fields.
type Request struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"action,omitempty"`

	// completion
	Buffer string `msgpack:"b,omitempty"`
	Line   int    `msgpack:"ln,omitempty"`
	Column int    `msgpack:"col,omitempty"`
	Limit  int    `msgpack:"l,omitempty"`
	Narrow *bool  `msgpack:"f,omitempty"`

	// set_domain
	Domain string `msgpack:"domain,omitempty"`

	// execute
	SQL string `msgpack:"sql,omitempty"`
}

// CompletionSuggestion - minimal suggestion entry
type CompletionSuggestion struct {
	Label      string `msgpack:"l"`
	InsertText string `msgpack:"i"`
	Kind       string `msgpack:"k"`
	Detail     string `msgpack:"d"`
}

// CompletionResponse - completion response, TimeTaken in microseconds
type CompletionResponse struct {
	ID          string                 `msgpack:"id"`
	Suggestions []CompletionSuggestion `msgpack:"s"`
	Count       int                    `msgpack:"c"`
	TimeTaken   int64                  `msgpack:"t"`
}

// ReadyResponse is written once before the first request is read
type ReadyResponse struct {
	Status string `msgpack:"status"`
	Domain string `msgpack:"domain,omitempty"`
}

// DomainResponse - set_domain and list_domains response
type DomainResponse struct {
	ID      string   `msgpack:"id"`
	Status  string   `msgpack:"status"`
	Domain  string   `msgpack:"domain,omitempty"`
	Tables  int      `msgpack:"tables,omitempty"`
	Domains []string `msgpack:"domains,omitempty"`
}

// SchemaTable - one table in a get_schema response
type SchemaTable struct {
	Name    string         `msgpack:"name"`
	Columns []SchemaColumn `msgpack:"columns"`
}

// SchemaColumn - one column in a get_schema response
type SchemaColumn struct {
	Name string `msgpack:"name"`
	Type string `msgpack:"type,omitempty"`
}

// SchemaResponse - get_schema response
type SchemaResponse struct {
	ID     string        `msgpack:"id"`
	Status string        `msgpack:"status"`
	Domain string        `msgpack:"domain"`
	Tables []SchemaTable `msgpack:"tables"`
}

// ExecuteResponse - execute response, TimeTaken in microseconds
type ExecuteResponse struct {
	ID        string     `msgpack:"id"`
	Status    string     `msgpack:"status"`
	RunID     string     `msgpack:"run_id"`
	Columns   []string   `msgpack:"columns"`
	Rows      [][]string `msgpack:"rows"`
	Truncated bool       `msgpack:"truncated,omitempty"`
	TimeTaken int64      `msgpack:"t"`
}

// InfoResponse - get_info response
type InfoResponse struct {
	ID         string         `msgpack:"id"`
	Status     string         `msgpack:"status"`
	Domain     string         `msgpack:"domain"`
	ExecuteKey string         `msgpack:"execute_key,omitempty"`
	Stats      map[string]int `msgpack:"stats"`
}

// CompletionError holds basic error information for any failed request
type CompletionError struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
