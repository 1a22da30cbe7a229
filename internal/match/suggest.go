package match

import "slices"

// MinSimilarity is the score below which Closest makes no suggestion.
const MinSimilarity = 0.6

// Closest returns the candidate most similar to name, ties broken by candidate order.
// It reports false when no candidate reaches MinSimilarity.
func Closest(name string, candidates []string) (string, bool) {
	best, bestScore := "", 0.0

	for _, c := range candidates {
		if score := Similarity(name, c); score > bestScore {
			best, bestScore = c, score
		}
	}

	return best, bestScore >= MinSimilarity
}

// Ranked returns the candidates reaching MinSimilarity, most similar first.
func Ranked(name string, candidates []string) []string {
	type scored struct {
		name  string
		score float64
	}

	var hits []scored

	for _, c := range candidates {
		if score := Similarity(name, c); score >= MinSimilarity {
			hits = append(hits, scored{name: c, score: score})
		}
	}

	slices.SortStableFunc(hits, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		default:
			return 0
		}
	})

	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.name
	}

	return out
}
