// Package vocab holds the static SQL keyword and function tables used by the completer.
package vocab

import (
	_ "embed"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

//go:embed default.toml
var defaultTOML string

// Vocabulary is plain data; edit default.toml or the [vocab] config section
// to change what gets suggested.
type Vocabulary struct {
	ClauseKeywords []string `toml:"clause_keywords"`
	Functions      []string `toml:"functions"`
	Keywords       []string `toml:"keywords"`
}

var (
	defaultOnce  sync.Once
	defaultVocab Vocabulary
)

// Default returns a copy of the embedded vocabulary.
func Default() Vocabulary {
	defaultOnce.Do(func() {
		v, err := Parse(defaultTOML)
		if err != nil {
			// the embedded file ships with the binary
			log.Fatalf("embedded vocabulary is invalid: %v", err)
		}
		defaultVocab = v
	})
	return defaultVocab.Clone()
}

// Parse decodes a vocabulary from TOML text.
func Parse(data string) (Vocabulary, error) {
	var v Vocabulary
	if _, err := toml.Decode(data, &v); err != nil {
		return Vocabulary{}, errors.Wrap(err, "failed to decode vocabulary")
	}
	return v, nil
}

// Clone returns a deep copy of v.
func (v Vocabulary) Clone() Vocabulary {
	return Vocabulary{
		ClauseKeywords: append([]string(nil), v.ClauseKeywords...),
		Functions:      append([]string(nil), v.Functions...),
		Keywords:       append([]string(nil), v.Keywords...),
	}
}

// Override returns v with each non-empty list of o replacing its counterpart.
func (v Vocabulary) Override(o Vocabulary) Vocabulary {
	out := v.Clone()
	if len(o.ClauseKeywords) > 0 {
		out.ClauseKeywords = append([]string(nil), o.ClauseKeywords...)
	}
	if len(o.Functions) > 0 {
		out.Functions = append([]string(nil), o.Functions...)
	}
	if len(o.Keywords) > 0 {
		out.Keywords = append([]string(nil), o.Keywords...)
	}
	return out
}
