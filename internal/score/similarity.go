package score

import "github.com/antzucaro/matchr"

// Similarity computes the similarity ratio between two tokens on a 0..1
// scale: 1.0 for identical strings, otherwise 1 − levenshtein/maxLen,
// clamped to [0, 1]. Inputs are compared as given; callers normalise first.
//
// The ratio is symmetric: Similarity(a, b) == Similarity(b, a).
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	dist := matchr.Levenshtein(a, b)
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}

	ratio := 1.0 - float64(dist)/float64(maxLen)
	if ratio < 0 {
		return 0.0
	}
	if ratio > 1 {
		return 1.0
	}
	return ratio
}
