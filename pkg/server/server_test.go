package server

import (
	"bytes"
	"context"
	"testing"

	"github.com/bastiangx/sqlserve/pkg/config"
	"github.com/bastiangx/sqlserve/pkg/runner"
	"github.com/bastiangx/sqlserve/pkg/schema"
	"github.com/bastiangx/sqlserve/pkg/suggest"
	"github.com/bastiangx/sqlserve/pkg/vocab"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type memProvider map[string][]schema.TableMetadata

func (m memProvider) Tables(_ context.Context, dataType string) ([]schema.TableMetadata, error) {
	tables, ok := m[dataType]
	if !ok {
		return nil, errors.Wrapf(schema.ErrUnknownDomain, "%s", dataType)
	}
	return tables, nil
}

func (m memProvider) Domains(context.Context) ([]string, error) {
	return []string{"pa", "stream"}, nil
}

var testVocab = vocab.Vocabulary{
	ClauseKeywords: []string{"SELECT", "WHERE"},
	Functions:      []string{"COUNT"},
	Keywords:       []string{"SELECT", "FROM"},
}

// runSession encodes reqs, runs the server to EOF and decodes every frame.
func runSession(t *testing.T, srv *Server, in *bytes.Buffer, out *bytes.Buffer, reqs ...Request) []map[string]any {
	t.Helper()
	enc := msgpack.NewEncoder(in)
	for _, r := range reqs {
		require.NoError(t, enc.Encode(r))
	}
	require.NoError(t, srv.Start(context.Background()))

	dec := msgpack.NewDecoder(out)
	var frames []map[string]any
	for out.Len() > 0 {
		var frame map[string]any
		require.NoError(t, dec.Decode(&frame))
		frames = append(frames, frame)
	}
	return frames
}

func newTestServer(t *testing.T, withExecute bool) (*Server, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	ws := schema.NewWorkspace(memProvider{
		"pa": {
			{TableName: "orders", Columns: []schema.ColumnMetadata{{ColumnName: "id"}, {ColumnName: "total"}}},
			{TableName: "customers", Columns: []schema.ColumnMetadata{{ColumnName: "id"}, {ColumnName: "name"}}},
		},
		"stream": {
			{TableName: "sessions", Columns: []schema.ColumnMetadata{{ColumnName: "viewer_id", DataType: "integer"}}},
		},
	}, 4)
	require.NoError(t, ws.SwitchDomain(context.Background(), "pa"))

	cfg := config.DefaultConfig()
	cfg.Server.DefaultLimit = 3

	in, out := &bytes.Buffer{}, &bytes.Buffer{}
	srv := NewServer(ws, cfg, in, out)
	completer := suggest.NewCompleter(ws.Store(), testVocab)
	srv.SetStats(completer.Stats)

	// Install guards the process; hosts are wired directly here
	srv.RegisterCompletion([]string{"."}, completer.Complete)
	if withExecute {
		srv.BindKey("Ctrl+Enter", func(_ context.Context, sql string) (*runner.Result, error) {
			if err := runner.CheckReadOnly(sql); err != nil {
				return nil, err
			}
			return &runner.Result{RunID: uuid.New(), Columns: []string{"n"}, Rows: [][]string{{"1"}}}, nil
		})
	}
	return srv, in, out
}

func TestReadyFrame(t *testing.T) {
	srv, in, out := newTestServer(t, false)
	frames := runSession(t, srv, in, out)
	require.Len(t, frames, 1)
	assert.Equal(t, "ready", frames[0]["status"])
	assert.Equal(t, "pa", frames[0]["domain"])
}

func TestCompleteRequest(t *testing.T) {
	srv, in, out := newTestServer(t, false)
	frames := runSession(t, srv, in, out,
		Request{ID: "c1", Buffer: "SELECT orders.", Line: 1, Column: 15, Limit: 10},
	)
	require.Len(t, frames, 2)

	var resp CompletionResponse
	decodeFrame(t, frames[1], &resp)
	assert.Equal(t, "c1", resp.ID)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, CompletionSuggestion{Label: "id", InsertText: "id", Kind: "column", Detail: "Column in orders"}, resp.Suggestions[0])
	assert.Equal(t, "total", resp.Suggestions[1].Label)
}

func TestCompleteLimitAndNarrow(t *testing.T) {
	srv, in, out := newTestServer(t, false)
	narrow := true
	frames := runSession(t, srv, in, out,
		Request{ID: "default", Buffer: "SELECT * FROM ", Line: 1, Column: 15},
		Request{ID: "narrow", Buffer: "SELECT * FROM cu", Line: 1, Column: 17, Narrow: &narrow},
	)
	require.Len(t, frames, 3)

	var limited CompletionResponse
	decodeFrame(t, frames[1], &limited)
	assert.Equal(t, 3, limited.Count, "default limit applies")

	var narrowed CompletionResponse
	decodeFrame(t, frames[2], &narrowed)
	require.Equal(t, 1, narrowed.Count)
	assert.Equal(t, "customers", narrowed.Suggestions[0].Label)
}

func TestSetDomainAndSchema(t *testing.T) {
	srv, in, out := newTestServer(t, false)
	frames := runSession(t, srv, in, out,
		Request{ID: "d1", Action: "set_domain", Domain: "stream"},
		Request{ID: "s1", Action: "get_schema"},
		Request{ID: "d2", Action: "set_domain", Domain: "missing"},
		Request{ID: "d3", Action: "set_domain"},
		Request{ID: "l1", Action: "list_domains"},
	)
	require.Len(t, frames, 6)

	var dom DomainResponse
	decodeFrame(t, frames[1], &dom)
	assert.Equal(t, DomainResponse{ID: "d1", Status: "ok", Domain: "stream", Tables: 1}, dom)

	var sch SchemaResponse
	decodeFrame(t, frames[2], &sch)
	assert.Equal(t, "stream", sch.Domain)
	assert.Equal(t, []SchemaTable{{Name: "sessions", Columns: []SchemaColumn{{Name: "viewer_id", Type: "integer"}}}}, sch.Tables)

	var missing CompletionError
	decodeFrame(t, frames[3], &missing)
	assert.Equal(t, 404, missing.Code)

	var noDomain CompletionError
	decodeFrame(t, frames[4], &noDomain)
	assert.Equal(t, 400, noDomain.Code)

	var list DomainResponse
	decodeFrame(t, frames[5], &list)
	assert.Equal(t, "stream", list.Domain, "failed switch keeps the previous domain")
	assert.Equal(t, []string{"pa", "stream"}, list.Domains)
}

func TestExecute(t *testing.T) {
	srv, in, out := newTestServer(t, true)
	frames := runSession(t, srv, in, out,
		Request{ID: "x1", Action: "execute", SQL: "SELECT 1 AS n"},
		Request{ID: "x2", Action: "execute", SQL: "DROP TABLE orders"},
	)
	require.Len(t, frames, 3)

	var ok ExecuteResponse
	decodeFrame(t, frames[1], &ok)
	assert.Equal(t, "ok", ok.Status)
	assert.Equal(t, [][]string{{"1"}}, ok.Rows)
	_, err := uuid.Parse(ok.RunID)
	assert.NoError(t, err)

	var rejected CompletionError
	decodeFrame(t, frames[2], &rejected)
	assert.Equal(t, 400, rejected.Code)
}

func TestExecuteWithoutBackend(t *testing.T) {
	srv, in, out := newTestServer(t, false)
	frames := runSession(t, srv, in, out, Request{ID: "x1", Action: "execute", SQL: "SELECT 1"})

	var resp CompletionError
	decodeFrame(t, frames[1], &resp)
	assert.Equal(t, 503, resp.Code)
}

func TestInfoAndUnknownAction(t *testing.T) {
	srv, in, out := newTestServer(t, true)
	frames := runSession(t, srv, in, out,
		Request{ID: "c1", Buffer: "SELECT ", Line: 1, Column: 8},
		Request{ID: "i1", Action: "get_info"},
		Request{ID: "u1", Action: "reticulate"},
	)
	require.Len(t, frames, 4)

	var info InfoResponse
	decodeFrame(t, frames[2], &info)
	assert.Equal(t, "pa", info.Domain)
	assert.Equal(t, "Ctrl+Enter", info.ExecuteKey)
	assert.Equal(t, 2, info.Stats["ipcRequests"])
	assert.Equal(t, 1, info.Stats["requests"])
	assert.Equal(t, 2, info.Stats["tables"])
	assert.Equal(t, 1, info.Stats["cachedDomains"])

	var unknown CompletionError
	decodeFrame(t, frames[3], &unknown)
	assert.Equal(t, 400, unknown.Code)
	assert.Equal(t, "u1", unknown.ID)
}

func TestUnregisteredCompletion(t *testing.T) {
	ws := schema.NewWorkspace(memProvider{}, 1)
	in, out := &bytes.Buffer{}, &bytes.Buffer{}
	srv := NewServer(ws, config.DefaultConfig(), in, out)

	frames := runSession(t, srv, in, out, Request{ID: "c1", Buffer: "SELECT ", Line: 1, Column: 8})
	var resp CompletionError
	decodeFrame(t, frames[1], &resp)
	assert.Equal(t, 503, resp.Code)
}

func TestBadFrameStopsServer(t *testing.T) {
	srv, in, out := newTestServer(t, false)
	in.Write([]byte{0xc1})

	err := srv.Start(context.Background())
	require.Error(t, err)

	dec := msgpack.NewDecoder(out)
	var ready, errFrame map[string]any
	require.NoError(t, dec.Decode(&ready))
	require.NoError(t, dec.Decode(&errFrame))
	assert.EqualValues(t, 400, errFrame["c"])
}

// decodeFrame re-encodes a generic frame into a typed response.
func decodeFrame(t *testing.T, frame map[string]any, v any) {
	t.Helper()
	raw, err := msgpack.Marshal(frame)
	require.NoError(t, err)
	require.NoError(t, msgpack.Unmarshal(raw, v))
}
