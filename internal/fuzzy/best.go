package fuzzy

import "github.com/dgallion1/quotecheck/internal/textnorm"

// NoMatch is the index BestMatch reports when no candidate qualifies.
const NoMatch = -1

// BestMatch scores query against every candidate with all four methods and
// keeps each candidate's highest score. The first candidate to reach the
// overall maximum wins. When no candidate reaches threshold (0-1 scale) it
// returns ("", 0, NoMatch).
func (s *Scorer) BestMatch(query string, candidates []string, threshold float64) (string, float64, int) {
	if len(candidates) == 0 {
		return "", 0, NoMatch
	}

	cmps := make([]Compare, 0, len(Methods))
	for _, m := range Methods {
		cmp, _ := s.Comparator(m)
		cmps = append(cmps, cmp)
	}

	q := textnorm.NormalizeForMatching(query)
	best, bestIdx := 0, NoMatch
	for i, c := range candidates {
		nc := textnorm.NormalizeForMatching(c)
		score := 0
		for _, cmp := range cmps {
			score = max(score, cmp(q, nc))
		}
		if score > best {
			best, bestIdx = score, i
		}
	}

	if bestIdx == NoMatch || float64(best)/100 < threshold {
		return "", 0, NoMatch
	}
	return candidates[bestIdx], float64(best) / 100, bestIdx
}
