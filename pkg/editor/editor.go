/*
Package editor wires the completion engine and the execute shortcut into a host
editor.

A host is anything that can show a completion popup and bind keys: the IPC
server and the CLI both implement Host. Install registers the completion
provider exactly once per process, however many times editors mount.

	ok, err := editor.Install(host, completer, dbRunner.Execute, cfg.Editor.ExecuteKey)
*/
package editor

import (
	"context"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/bastiangx/sqlserve/pkg/runner"
	"github.com/bastiangx/sqlserve/pkg/suggest"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

// TriggerCharacters re-invoke completion as soon as they are typed.
var TriggerCharacters = []string{".", " ", ","}

// DefaultExecuteChord runs the buffer.
const DefaultExecuteChord = "Ctrl+Enter"

// navigationKeys drive the completion popup and cannot run queries.
var navigationKeys = []string{"Up", "Down", "Enter", "Tab", "Escape", "PageUp", "PageDown", "Home", "End"}

// ErrChordConflict is returned when the execute chord would steal a popup key.
var ErrChordConflict = errors.New("execute chord conflicts with completion popup navigation")

// CompletionFunc answers a completion request from the host.
type CompletionFunc func(buffer string, line, column int) []suggest.Suggestion

// ExecuteFunc runs the buffer through the execution collaborator.
type ExecuteFunc func(ctx context.Context, buffer string) (*runner.Result, error)

// Host is the editor side of the integration.
type Host interface {
	RegisterCompletion(triggers []string, fn CompletionFunc)
	BindKey(chord string, fn ExecuteFunc)
}

var (
	installMu sync.Mutex
	installed bool
)

// Install registers completer and the execute binding on host. Only the
// first call in a process does anything; later calls return false.
func Install(host Host, completer suggest.ICompleter, execute ExecuteFunc, chord string) (bool, error) {
	if chord == "" {
		chord = DefaultExecuteChord
	}
	chord, err := ValidateChord(chord)
	if err != nil {
		return false, err
	}

	installMu.Lock()
	defer installMu.Unlock()
	if installed {
		log.Debug("Completion provider already registered, skipping")
		return false, nil
	}
	installed = true

	host.RegisterCompletion(TriggerCharacters, completer.Complete)
	if execute != nil {
		host.BindKey(chord, execute)
	}
	log.Debug("Completion provider registered", "triggers", len(TriggerCharacters), "execute", chord)
	return true, nil
}

// Installed reports whether Install has run in this process.
func Installed() bool {
	installMu.Lock()
	defer installMu.Unlock()
	return installed
}

// ValidateChord normalises chord ("ctrl + enter" -> "Ctrl+Enter") and
// rejects bare popup navigation keys.
func ValidateChord(chord string) (string, error) {
	parts := strings.Split(chord, "+")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return "", errors.Newf("malformed key chord %q", chord)
		}
		parts[i] = canonicalKey(p)
	}
	normalised := strings.Join(parts, "+")

	if len(parts) == 1 {
		for _, k := range navigationKeys {
			if parts[0] == k {
				return "", errors.Wrapf(ErrChordConflict, "key %q", normalised)
			}
		}
	}
	return normalised, nil
}

func canonicalKey(k string) string {
	lower := strings.ToLower(k)
	switch lower {
	case "ctrl", "control":
		return "Ctrl"
	case "cmd", "meta", "super":
		return "Cmd"
	case "esc", "escape":
		return "Escape"
	case "pageup", "pgup":
		return "PageUp"
	case "pagedown", "pgdn":
		return "PageDown"
	case "return", "enter":
		return "Enter"
	}
	for _, nav := range navigationKeys {
		if strings.EqualFold(nav, k) {
			return nav
		}
	}
	r, size := utf8.DecodeRuneInString(lower)
	return string(unicode.ToUpper(r)) + lower[size:]
}
