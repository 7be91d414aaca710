package barcode

import (
	"sort"
	"strings"
)

// maxSuggestions caps the suggestion list shown on a station display.
const maxSuggestions = 5

// maxEditDistance is the cutoff beyond which a candidate is not considered a
// plausible mis-scan.
const maxEditDistance = 2

// Suggest returns the nearest-matching loaded ids and command barcodes for an
// unclassifiable scan. Prefix matches rank ahead of edit-distance matches;
// ties break lexicographically so the result is deterministic.
func Suggest(clean string, idx EntityIndex) []string {
	candidates := append(idx.KnownIDs(), CommandVocabulary()...)

	type scored struct {
		id   string
		rank int // 0 = prefix match, 1..maxEditDistance = edit distance
	}
	var matches []scored
	for _, c := range candidates {
		cu := strings.ToUpper(c)
		if cu == clean {
			continue
		}
		if strings.HasPrefix(cu, clean) || strings.HasPrefix(clean, cu) {
			matches = append(matches, scored{c, 0})
			continue
		}
		if d := editDistance(clean, cu); d <= maxEditDistance {
			matches = append(matches, scored{c, d})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].rank != matches[j].rank {
			return matches[i].rank < matches[j].rank
		}
		return matches[i].id < matches[j].id
	})

	var out []string
	for _, m := range matches {
		out = append(out, m.id)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}

// editDistance is the Levenshtein distance between a and b, bailing out early
// for length differences beyond the cutoff.
func editDistance(a, b string) int {
	la, lb := len(a), len(b)
	if la-lb > maxEditDistance || lb-la > maxEditDistance {
		return maxEditDistance + 1
	}

	prev := make([]int, lb+1)
	cur := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		cur[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min3(cur[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[lb]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
