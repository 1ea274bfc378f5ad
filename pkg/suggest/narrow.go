package suggest

import (
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Narrow keeps the suggestions whose label, or the part of a qualified
// label after its last dot, starts with word (ignoring case). Order is
// preserved. Editors filter their own popups; the IPC server and the CLI
// call this instead.
func Narrow(list []Suggestion, word string) []Suggestion {
	if word == "" || len(list) == 0 {
		return list
	}

	trie := patricia.NewTrie()
	for i, s := range list {
		label := strings.ToLower(s.Label)
		insertIndex(trie, label, i)
		if dot := strings.LastIndexByte(label, '.'); dot >= 0 && dot < len(label)-1 {
			insertIndex(trie, label[dot+1:], i)
		}
	}

	hit := make(map[int]struct{})
	err := trie.VisitSubtree(patricia.Prefix(strings.ToLower(word)), func(_ patricia.Prefix, item patricia.Item) error {
		for _, i := range item.([]int) {
			hit[i] = struct{}{}
		}
		return nil
	})
	if err != nil {
		log.Errorf("Error visiting suggestion trie: %v", err)
		return list
	}

	indexes := make([]int, 0, len(hit))
	for i := range hit {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	out := make([]Suggestion, len(indexes))
	for n, i := range indexes {
		out[n] = list[i]
	}
	return out
}

func insertIndex(trie *patricia.Trie, key string, i int) {
	p := patricia.Prefix(key)
	if existing := trie.Get(p); existing != nil {
		trie.Set(p, append(existing.([]int), i))
		return
	}
	trie.Insert(p, []int{i})
}
