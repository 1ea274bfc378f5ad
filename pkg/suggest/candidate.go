package suggest

// CandidateKind tells the editor which icon to draw.
type CandidateKind uint8

const (
	KindTable CandidateKind = iota
	KindColumn
	KindFunction
	KindKeyword
)

func (k CandidateKind) String() string {
	switch k {
	case KindTable:
		return "table"
	case KindColumn:
		return "column"
	case KindFunction:
		return "function"
	case KindKeyword:
		return "keyword"
	default:
		return "unknown"
	}
}

// Priority tiers. Lower sorts first.
const (
	tierPrimary        = 1
	tierSecondary      = 2
	tierGenericKeyword = 3
	tierFallbackColumn = 5
	tierKeyword        = 9
)

// Candidate is one suggestion before dedup and ordering.
type Candidate struct {
	Label      string
	InsertText string
	Kind       CandidateKind
	Detail     string
	Tier       int
}

// Suggestion is what the editor popup receives. The tier is not exposed.
type Suggestion struct {
	Label      string
	InsertText string
	Kind       CandidateKind
	Detail     string
}

func toSuggestions(candidates []Candidate) []Suggestion {
	out := make([]Suggestion, len(candidates))
	for i, c := range candidates {
		out[i] = Suggestion{
			Label:      c.Label,
			InsertText: c.InsertText,
			Kind:       c.Kind,
			Detail:     c.Detail,
		}
	}
	return out
}
