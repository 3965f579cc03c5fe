// Package confidence rolls per-quote scores up into a document-level figure.
package confidence

// Summary describes how well a set of quotes held up.
type Summary struct {
	Confidence     float64 `json:"confidence" yaml:"confidence"`
	ValidMatches   int     `json:"valid_matches" yaml:"valid_matches"`
	InvalidMatches int     `json:"invalid_matches" yaml:"invalid_matches"`
	AverageScore   float64 `json:"average_score" yaml:"average_score"`
	TotalItems     int     `json:"total_items" yaml:"total_items"`
}

// Aggregate summarizes scores (0-1 each) out of totalItems expected quotes.
// A score counts as valid at or above threshold. Confidence is the valid
// fraction of totalItems, so items without a score count against it. With no
// items the summary is all zero.
func Aggregate(scores []float64, totalItems int, threshold float64) Summary {
	if totalItems <= 0 {
		return Summary{}
	}

	s := Summary{TotalItems: totalItems}
	var sum float64
	for _, v := range scores {
		sum += v
		if v >= threshold {
			s.ValidMatches++
		}
	}
	s.InvalidMatches = max(totalItems-s.ValidMatches, 0)
	s.Confidence = float64(s.ValidMatches) / float64(totalItems)
	if len(scores) > 0 {
		s.AverageScore = sum / float64(len(scores))
	}
	return s
}

// NeedsReview reports whether the summary falls below the review threshold.
func (s Summary) NeedsReview(reviewThreshold float64) bool {
	return s.Confidence < reviewThreshold
}
