package quote

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/quotecheck/internal/confidence"
)

// Batch is an ordered set of results together with their summary.
type Batch struct {
	Results            []MatchResult `json:"results" yaml:"results"`
	confidence.Summary `yaml:",inline"`
	Degraded           bool `json:"degraded" yaml:"degraded"`
}

// NewBatch summarizes results in order. Every result counts as one item.
func NewBatch(results []MatchResult, threshold float64) Batch {
	scores := make([]float64, len(results))
	degraded := false
	for i, r := range results {
		scores[i] = r.Score
		degraded = degraded || r.Degraded
	}
	return Batch{
		Results:  results,
		Summary:  confidence.Aggregate(scores, len(results), threshold),
		Degraded: degraded,
	}
}

// Observer is told about each result as soon as it is ready. Calls may come
// from several goroutines at once.
type Observer func(i int, res MatchResult, elapsed time.Duration)

// ValidateAll validates every quote against document with at most workers
// quotes in flight and returns the results in input order. observe may be nil.
func (v *Validator) ValidateAll(ctx context.Context, quotes []string, document string, workers int, observe Observer) (Batch, error) {
	results := make([]MatchResult, len(quotes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, workers))
	for i, q := range quotes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			res, err := v.Validate(gctx, q, document)
			if err != nil {
				return err
			}
			results[i] = res
			if observe != nil {
				observe(i, res, time.Since(start))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Batch{}, eris.Wrap(err, "quote: validate batch")
	}
	return NewBatch(results, v.opts.Threshold), nil
}
