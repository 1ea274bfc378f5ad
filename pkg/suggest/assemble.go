package suggest

import (
	"sort"

	"github.com/bastiangx/sqlserve/internal/utils"
)

// Assemble keeps the first candidate for every label, whatever its kind or
// tier, then orders by tier. Ties keep generation order.
func Assemble(raw []Candidate) []Candidate {
	filter := utils.NewSuggestionFilter(len(raw))
	out := make([]Candidate, 0, len(raw))
	for _, c := range raw {
		if filter.ShouldInclude(c.Label) {
			out = append(out, c)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Tier < out[j].Tier
	})
	return out
}
