package utils

// SuggestionFilter drops repeated labels, keeping the first one seen.
// Labels are compared exactly; "id" and "ID" are different labels.
type SuggestionFilter struct {
	seenLabels map[string]struct{}
}

// NewSuggestionFilter creates a filter sized for about n labels
func NewSuggestionFilter(n int) *SuggestionFilter {
	return &SuggestionFilter{
		seenLabels: make(map[string]struct{}, n),
	}
}

// ShouldInclude reports whether label is new and records it.
// Returns false for every later occurrence of the same label.
func (f *SuggestionFilter) ShouldInclude(label string) bool {
	if _, seen := f.seenLabels[label]; seen {
		return false
	}
	f.seenLabels[label] = struct{}{}
	return true
}
