package server

import (
	"bufio"
	"context"
	"io"
	"time"

	"github.com/bastiangx/sqlserve/internal/logger"
	"github.com/bastiangx/sqlserve/pkg/config"
	"github.com/bastiangx/sqlserve/pkg/editor"
	"github.com/bastiangx/sqlserve/pkg/runner"
	"github.com/bastiangx/sqlserve/pkg/schema"
	"github.com/bastiangx/sqlserve/pkg/suggest"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// Server handles the IPC for SQL completions. It is an editor.Host: the
// completion and execute handlers arrive through editor.Install.
type Server struct {
	ws     *schema.Workspace
	config *config.Config
	reader io.Reader
	writer io.Writer
	log    *log.Logger

	complete editor.CompletionFunc
	execute  editor.ExecuteFunc
	chord    string
	stats    func() map[string]int

	requestCount int
}

// NewServer creates a server reading requests from r and writing responses to w.
func NewServer(ws *schema.Workspace, cfg *config.Config, r io.Reader, w io.Writer) *Server {
	return &Server{
		ws:     ws,
		config: cfg,
		reader: r,
		writer: w,
		log:    logger.New("ipc"),
	}
}

// RegisterCompletion implements editor.Host.
func (s *Server) RegisterCompletion(triggers []string, fn editor.CompletionFunc) {
	s.log.Debug("completion registered", "triggers", triggers)
	s.complete = fn
}

// BindKey implements editor.Host. The chord is reported in get_info; the
// execute action calls fn.
func (s *Server) BindKey(chord string, fn editor.ExecuteFunc) {
	s.chord = chord
	s.execute = fn
}

// SetStats sets the source of the counters returned by get_info.
func (s *Server) SetStats(fn func() map[string]int) {
	s.stats = fn
}

// Start processes requests until the reader is exhausted or a frame cannot be decoded.
func (s *Server) Start(ctx context.Context) error {
	dec := msgpack.NewDecoder(bufio.NewReader(s.reader))
	enc := msgpack.NewEncoder(s.writer)

	if err := enc.Encode(ReadyResponse{Status: "ready", Domain: s.ws.Domain()}); err != nil {
		return errors.Wrap(err, "failed to write ready frame")
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		var req Request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			s.log.Errorf("Decoding request: %v", err)
			// the stream position is unknown after a bad frame
			s.send(enc, CompletionError{Error: "invalid msgpack request", Code: 400})
			return errors.Wrap(err, "failed to decode request")
		}

		s.requestCount++
		s.send(enc, s.handle(ctx, req))
	}
}

func (s *Server) send(enc *msgpack.Encoder, response any) {
	if err := enc.Encode(response); err != nil {
		s.log.Errorf("Encoding response: %v", err)
	}
}

func (s *Server) handle(ctx context.Context, req Request) any {
	switch req.Action {
	case "", "complete":
		return s.handleComplete(req)
	case "set_domain":
		return s.handleSetDomain(ctx, req)
	case "list_domains":
		return s.handleListDomains(ctx, req)
	case "get_schema":
		return s.handleGetSchema(req)
	case "execute":
		return s.handleExecute(ctx, req)
	case "get_info":
		return s.handleInfo(req)
	default:
		return CompletionError{ID: req.ID, Error: "unknown action: " + req.Action, Code: 400}
	}
}

func (s *Server) handleComplete(req Request) any {
	if s.complete == nil {
		return CompletionError{ID: req.ID, Error: "completion provider not registered", Code: 503}
	}

	limit := req.Limit
	if limit < 1 {
		limit = s.config.Server.DefaultLimit
	}
	if s.config.Server.MaxLimit > 0 && limit > s.config.Server.MaxLimit {
		limit = s.config.Server.MaxLimit
	}
	narrow := s.config.Server.Narrow
	if req.Narrow != nil {
		narrow = *req.Narrow
	}

	start := time.Now()
	suggestions := s.complete(req.Buffer, req.Line, req.Column)
	if narrow {
		word := suggest.WordBeforeCursor(suggest.LineBeforeCursor(req.Buffer, req.Line, req.Column))
		suggestions = suggest.Narrow(suggestions, word)
	}
	if limit > 0 && len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	elapsed := time.Since(start)

	out := make([]CompletionSuggestion, len(suggestions))
	for i, sg := range suggestions {
		out[i] = CompletionSuggestion{
			Label:      sg.Label,
			InsertText: sg.InsertText,
			Kind:       sg.Kind.String(),
			Detail:     sg.Detail,
		}
	}

	s.log.Debugf("Took [ %v ] for %d suggestions", elapsed, len(out))
	return CompletionResponse{
		ID:          req.ID,
		Suggestions: out,
		Count:       len(out),
		TimeTaken:   elapsed.Microseconds(),
	}
}

func (s *Server) handleSetDomain(ctx context.Context, req Request) any {
	if req.Domain == "" {
		return CompletionError{ID: req.ID, Error: "missing 'domain' parameter", Code: 400}
	}
	if err := s.ws.SwitchDomain(ctx, req.Domain); err != nil {
		s.log.Warnf("Switching domain to %s: %v", req.Domain, err)
		return errorFrame(req.ID, err)
	}
	return DomainResponse{
		ID:     req.ID,
		Status: "ok",
		Domain: req.Domain,
		Tables: s.ws.Store().Current().Len(),
	}
}

func (s *Server) handleListDomains(ctx context.Context, req Request) any {
	domains, err := s.ws.Domains(ctx)
	if err != nil {
		return errorFrame(req.ID, err)
	}
	return DomainResponse{ID: req.ID, Status: "ok", Domain: s.ws.Domain(), Domains: domains}
}

func (s *Server) handleGetSchema(req Request) any {
	snap := s.ws.Store().Current()
	tables := make([]SchemaTable, 0, snap.Len())
	for _, t := range snap.Tables() {
		cols := make([]SchemaColumn, len(t.Columns))
		for i, c := range t.Columns {
			cols[i] = SchemaColumn{Name: c.ColumnName, Type: c.DataType}
		}
		tables = append(tables, SchemaTable{Name: t.TableName, Columns: cols})
	}
	return SchemaResponse{ID: req.ID, Status: "ok", Domain: snap.Domain(), Tables: tables}
}

func (s *Server) handleExecute(ctx context.Context, req Request) any {
	if s.execute == nil {
		return CompletionError{ID: req.ID, Error: "no execution backend configured", Code: 503}
	}
	start := time.Now()
	result, err := s.execute(ctx, req.SQL)
	if err != nil {
		return errorFrame(req.ID, err)
	}
	return ExecuteResponse{
		ID:        req.ID,
		Status:    "ok",
		RunID:     result.RunID.String(),
		Columns:   result.Columns,
		Rows:      result.Rows,
		Truncated: result.Truncated,
		TimeTaken: time.Since(start).Microseconds(),
	}
}

func (s *Server) handleInfo(req Request) any {
	stats := map[string]int{"ipcRequests": s.requestCount}
	if s.stats != nil {
		for k, v := range s.stats() {
			stats[k] = v
		}
	}
	for k, v := range s.ws.Cache().Stats() {
		stats[k] = v
	}
	return InfoResponse{ID: req.ID, Status: "ok", Domain: s.ws.Domain(), ExecuteKey: s.chord, Stats: stats}
}

// errorFrame maps known error classes to codes.
func errorFrame(id string, err error) CompletionError {
	code := 500
	switch {
	case errors.Is(err, schema.ErrUnknownDomain):
		code = 404
	case errors.Is(err, runner.ErrReadOnly), errors.Is(err, runner.ErrEmptyQuery):
		code = 400
	case errors.Is(err, context.DeadlineExceeded):
		code = 504
	}
	return CompletionError{ID: id, Error: err.Error(), Code: code}
}
