package cli

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// suggest returns the candidate closest to input, or "" when none is within
// a third of the input's length (minimum 2 edits).
func suggest(input string, candidates []string) string {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return ""
	}
	limit := max(2, len(input)/3)
	best, bestDist := "", limit+1
	for _, c := range candidates {
		if d := levenshtein.ComputeDistance(input, strings.ToLower(c)); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func didYouMean(input string, candidates []string) string {
	if s := suggest(input, candidates); s != "" {
		return " (did you mean " + s + "?)"
	}
	return ""
}
