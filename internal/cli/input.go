// Package cli handles cmd line input and suggestions for DBG and testing various features
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bastiangx/sqlserve/pkg/editor"
	"github.com/bastiangx/sqlserve/pkg/schema"
	"github.com/bastiangx/sqlserve/pkg/suggest"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var kindStyles = map[suggest.CandidateKind]lipgloss.Style{
	suggest.KindTable:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75")),
	suggest.KindColumn:   lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
	suggest.KindFunction: lipgloss.NewStyle().Foreground(lipgloss.Color("179")),
	suggest.KindKeyword:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
}

// InputHandler reads SQL from stdin one line at a time. Each line is
// appended to a buffer and completed with the cursor at its end, so
// trailing spaces and dots matter. Lines starting with ':' are commands.
// It is an editor.Host, like the IPC server.
type InputHandler struct {
	ws        *schema.Workspace
	explainer suggest.ICompleter
	complete  editor.CompletionFunc
	execute   editor.ExecuteFunc

	in           io.Reader
	out          io.Writer
	lines        []string
	suggestLimit int
	narrow       bool
	explain      bool
}

// NewInputHandler handles initialization of the InputHandler with basic parameters
func NewInputHandler(ws *schema.Workspace, explainer suggest.ICompleter, limit int) *InputHandler {
	return &InputHandler{
		ws:           ws,
		explainer:    explainer,
		in:           os.Stdin,
		out:          os.Stdout,
		suggestLimit: limit,
		narrow:       true,
	}
}

// RegisterCompletion implements editor.Host.
func (h *InputHandler) RegisterCompletion(_ []string, fn editor.CompletionFunc) {
	h.complete = fn
}

// BindKey implements editor.Host. The CLI runs the bound function on ':run'.
func (h *InputHandler) BindKey(chord string, fn editor.ExecuteFunc) {
	log.Debug("execute bound", "chord", chord)
	h.execute = fn
}

// Start begins the interface loop and returns when input ends.
func (h *InputHandler) Start(ctx context.Context) error {
	log.Print("SQLServe CLI [BETA]")
	log.Print("type SQL and press Enter to see suggestions; :help lists commands (Ctrl+C to exit)")

	reader := bufio.NewReader(h.in)
	for {
		log.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			if err == io.EOF {
				return nil
			}
			return err
		}
		h.handleLine(ctx, strings.TrimRight(line, "\r\n"))
	}
}

func (h *InputHandler) handleLine(ctx context.Context, line string) {
	if strings.HasPrefix(line, ":") {
		h.handleCommand(ctx, strings.Fields(line[1:]))
		return
	}
	h.lines = append(h.lines, line)
	h.showSuggestions()
}

func (h *InputHandler) buffer() string {
	return strings.Join(h.lines, "\n")
}

func (h *InputHandler) showSuggestions() {
	if h.complete == nil {
		log.Error("No completion provider registered")
		return
	}

	buffer := h.buffer()
	lineNo := len(h.lines)
	current := h.lines[lineNo-1]
	column := len([]rune(current)) + 1

	start := time.Now()
	if h.explain {
		cc, candidates := h.explainer.Explain(buffer, lineNo, column)
		log.Printf("context: %s table: %q", cc.Class, cc.TableToken)
		for i, c := range limitCandidates(candidates, h.suggestLimit) {
			fmt.Fprintf(h.out, "%3d. [%d] %-40s %s\n", i+1, c.Tier, kindStyles[c.Kind].Render(c.Label), c.Detail)
		}
		return
	}

	suggestions := h.complete(buffer, lineNo, column)
	if h.narrow {
		suggestions = suggest.Narrow(suggestions, suggest.WordBeforeCursor(current))
	}
	log.Debugf("Took [ %v ] for %d suggestions", time.Since(start), len(suggestions))

	if len(suggestions) == 0 {
		log.Warn("No suggestions")
		return
	}
	if h.suggestLimit > 0 && len(suggestions) > h.suggestLimit {
		suggestions = suggestions[:h.suggestLimit]
	}
	for i, s := range suggestions {
		fmt.Fprintf(h.out, "%3d. %-40s %s\n", i+1, kindStyles[s.Kind].Render(s.Label), s.Detail)
	}
}

func limitCandidates(c []suggest.Candidate, limit int) []suggest.Candidate {
	if limit > 0 && len(c) > limit {
		return c[:limit]
	}
	return c
}

func (h *InputHandler) handleCommand(ctx context.Context, args []string) {
	if len(args) == 0 {
		return
	}
	switch args[0] {
	case "help":
		fmt.Fprintln(h.out, ":domain NAME  switch problem domain")
		fmt.Fprintln(h.out, ":domains      list domains")
		fmt.Fprintln(h.out, ":tables       show the active schema")
		fmt.Fprintln(h.out, ":run          execute the buffer")
		fmt.Fprintln(h.out, ":show         print the buffer")
		fmt.Fprintln(h.out, ":clear        empty the buffer")
		fmt.Fprintln(h.out, ":explain      toggle tier/context output")
		fmt.Fprintln(h.out, ":narrow       toggle prefix narrowing")
	case "domain":
		if len(args) < 2 {
			log.Errorf("usage: :domain NAME")
			return
		}
		if err := h.ws.SwitchDomain(ctx, args[1]); err != nil {
			log.Errorf("Switching domain: %v", err)
			return
		}
		log.Infof("domain: %s (%d tables)", args[1], h.ws.Store().Current().Len())
	case "domains":
		domains, err := h.ws.Domains(ctx)
		if err != nil {
			log.Errorf("Listing domains: %v", err)
			return
		}
		fmt.Fprintln(h.out, strings.Join(domains, " "))
	case "tables":
		for _, t := range h.ws.Store().Current().Tables() {
			fmt.Fprintf(h.out, "%s(%s)\n", kindStyles[suggest.KindTable].Render(t.TableName), strings.Join(t.ColumnNames(), ", "))
		}
	case "run":
		h.run(ctx)
	case "show":
		fmt.Fprintln(h.out, h.buffer())
	case "clear":
		h.lines = nil
	case "explain":
		h.explain = !h.explain
		log.Infof("explain: %v", h.explain)
	case "narrow":
		h.narrow = !h.narrow
		log.Infof("narrow: %v", h.narrow)
	default:
		log.Errorf("Unknown command: %s", args[0])
	}
}

func (h *InputHandler) run(ctx context.Context) {
	if h.execute == nil {
		log.Error("No execution backend configured (set schema.dsn)")
		return
	}
	result, err := h.execute(ctx, h.buffer())
	if err != nil {
		log.Errorf("Run failed: %v", err)
		return
	}
	fmt.Fprintln(h.out, strings.Join(result.Columns, " | "))
	for _, row := range result.Rows {
		fmt.Fprintln(h.out, strings.Join(row, " | "))
	}
	log.Infof("run %s: %d rows in %v (truncated: %v)", result.RunID, len(result.Rows), result.Elapsed, result.Truncated)
	h.lines = nil
}
