// Package fuzzy finds the name a misspelled input most likely meant.
package fuzzy

import (
	"strings"
	"unicode/utf8"
)

// MaxEditDistance is the largest number of edits still treated as a typo.
const MaxEditDistance = 2

// Closest returns the candidate input most likely meant. The bool is false
// when input already names a candidate (ignoring case) or nothing is close.
//
// Inputs shorter than 2 runes are never corrected, and a candidate must
// share the input's first letter.
func Closest(input string, candidates []string) (string, bool) {
	if utf8.RuneCountInString(input) < 2 {
		return "", false
	}
	lower := strings.ToLower(input)

	for _, c := range candidates {
		if strings.ToLower(c) == lower {
			return c, false
		}
	}

	best, bestDist := "", MaxEditDistance+1
	for _, c := range candidates {
		cl := strings.ToLower(c)
		if cl == "" || firstRune(cl) != firstRune(lower) {
			continue
		}
		// ties keep the earlier candidate
		if d := levenshteinDistance(lower, cl); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, best != ""
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

// levenshteinDistance counts single-rune inserts, deletes and substitutions.
func levenshteinDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
