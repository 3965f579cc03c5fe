// Package quote decides whether a quote appears in a document, trying an
// exact, a partial and a sliding-window tier in that order.
package quote

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"

	"github.com/dgallion1/quotecheck/internal/fuzzy"
	"github.com/dgallion1/quotecheck/internal/textnorm"
	"github.com/dgallion1/quotecheck/internal/window"
)

// ErrInvalidOptions is returned by NewValidator for out-of-range options.
var ErrInvalidOptions = eris.New("invalid validator options")

// NotFound is the position reported when a quote was not located.
const NotFound = -1

// Method names the tier that produced a result.
type Method string

const (
	MethodExact   Method = "exact_match"
	MethodPartial Method = "partial_match"
	MethodWindow  Method = "window_match"
	MethodNone    Method = "no_match"
	// MethodEmpty marks a quote with nothing to search for.
	MethodEmpty Method = "none"
)

// MatchResult is the outcome of validating one quote.
type MatchResult struct {
	Valid    bool    `json:"valid" yaml:"valid"`
	Score    float64 `json:"score" yaml:"score"`
	Match    string  `json:"match" yaml:"match"`
	Position int     `json:"position" yaml:"position"`
	Method   Method  `json:"method" yaml:"method"`
	Error    string  `json:"error,omitempty" yaml:"error,omitempty"`
	Degraded bool    `json:"degraded,omitempty" yaml:"degraded,omitempty"`
}

// Options tune the validation tiers. Scores are on a 0-1 scale and sizes are
// in runes.
type Options struct {
	Threshold        float64
	WindowSize       int
	PartialThreshold float64
	PartialMargin    int
	AnchorTokens     int
	WindowWorkers    int
}

// DefaultOptions returns the standard tuning.
func DefaultOptions() Options {
	return Options{
		Threshold:        0.90,
		WindowSize:       300,
		PartialThreshold: 0.95,
		PartialMargin:    50,
		AnchorTokens:     3,
		WindowWorkers:    4,
	}
}

// Validate checks that the options are usable.
func (o Options) Validate() error {
	switch {
	case o.Threshold < 0 || o.Threshold > 1:
		return eris.Wrapf(ErrInvalidOptions, "threshold %v outside [0, 1]", o.Threshold)
	case o.PartialThreshold < 0 || o.PartialThreshold > 1:
		return eris.Wrapf(ErrInvalidOptions, "partial threshold %v outside [0, 1]", o.PartialThreshold)
	case o.WindowSize <= 0:
		return eris.Wrapf(ErrInvalidOptions, "window size %d must be positive", o.WindowSize)
	case o.PartialMargin < 0:
		return eris.Wrapf(ErrInvalidOptions, "partial margin %d is negative", o.PartialMargin)
	case o.AnchorTokens <= 0:
		return eris.Wrapf(ErrInvalidOptions, "anchor tokens %d must be positive", o.AnchorTokens)
	}
	return nil
}

// Validator runs the tiered quote check. It is safe for concurrent use.
type Validator struct {
	opts    Options
	scorer  *fuzzy.Scorer
	partial fuzzy.Compare
	search  *window.Search
}

// NewValidator builds a validator on scorer.
func NewValidator(scorer *fuzzy.Scorer, opts Options) (*Validator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	partial, err := scorer.Comparator(fuzzy.Partial)
	if err != nil {
		return nil, eris.Wrap(err, "quote: partial comparator")
	}
	search, err := window.NewSearch(scorer, fuzzy.TokenSort, opts.WindowWorkers)
	if err != nil {
		return nil, eris.Wrap(err, "quote: window search")
	}
	return &Validator{opts: opts, scorer: scorer, partial: partial, search: search}, nil
}

// Options returns the validator's tuning.
func (v *Validator) Options() Options { return v.opts }

// Scorer returns the similarity scorer the validator compares with.
func (v *Validator) Scorer() *fuzzy.Scorer { return v.scorer }

// Validate locates quote in document.
//
// The exact tier looks for the normalized quote inside the normalized
// document. The partial tier accepts a best-substring score above the partial
// threshold, provided the quote's first few tokens can be found to anchor the
// span. The window tier slides overlapping windows over the document, scores
// them order-insensitively and accepts the best one at or above the threshold.
//
// Positions and matched text always refer to the original document. The only
// error is a cancelled context.
func (v *Validator) Validate(ctx context.Context, quote, document string) (MatchResult, error) {
	res, err := v.validate(ctx, quote, document)
	res.Degraded = v.scorer.Degraded()
	return res, err
}

func (v *Validator) validate(ctx context.Context, quote, document string) (MatchResult, error) {
	nq := textnorm.NormalizeForMatching(quote)
	if nq == "" {
		return MatchResult{Position: NotFound, Method: MethodEmpty, Error: "empty quote"}, nil
	}

	doc := textnorm.MapForMatching(document)

	if p := strings.Index(doc.Text, nq); p >= 0 {
		start, end := doc.Original(p, p+len(nq))
		return MatchResult{
			Valid:    true,
			Score:    1,
			Match:    document[start:end],
			Position: start,
			Method:   MethodExact,
		}, nil
	}

	if err := ctx.Err(); err != nil {
		return MatchResult{}, err
	}

	if ps := float64(v.partial(nq, doc.Text)) / 100; ps > v.opts.PartialThreshold {
		if start, ok := v.anchor(nq, doc); ok {
			end := advanceRunes(document, start, utf8.RuneCountInString(quote)+v.opts.PartialMargin)
			return MatchResult{
				Valid:    true,
				Score:    ps,
				Match:    document[start:end],
				Position: start,
				Method:   MethodPartial,
			}, nil
		}
	}

	w, score, err := v.search.Best(ctx, quote, document, v.opts.WindowSize)
	if err != nil {
		return MatchResult{}, err
	}
	if score >= v.opts.Threshold {
		return MatchResult{
			Valid:    true,
			Score:    score,
			Match:    w.Text,
			Position: w.Start,
			Method:   MethodWindow,
		}, nil
	}
	return MatchResult{Score: score, Position: NotFound, Method: MethodNone}, nil
}

// anchor finds where the quote's leading tokens occur in the document and
// returns that offset in the original text.
func (v *Validator) anchor(nq string, doc textnorm.Mapped) (int, bool) {
	fields := strings.Fields(nq)
	if len(fields) > v.opts.AnchorTokens {
		fields = fields[:v.opts.AnchorTokens]
	}
	a := strings.Join(fields, " ")
	p := strings.Index(doc.Text, a)
	if p < 0 {
		return 0, false
	}
	start, _ := doc.Original(p, p+len(a))
	return start, true
}

// advanceRunes returns the byte offset n runes past from, clamped to len(s).
func advanceRunes(s string, from, n int) int {
	i := from
	for ; n > 0 && i < len(s); n-- {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return i
}

// ValidateQuote runs a single check with the default scorer and tuning apart
// from threshold and window size.
func ValidateQuote(ctx context.Context, quote, document string, threshold float64, windowSize int) (MatchResult, error) {
	opts := DefaultOptions()
	opts.Threshold = threshold
	opts.WindowSize = windowSize
	v, err := NewValidator(fuzzy.Default(), opts)
	if err != nil {
		return MatchResult{}, err
	}
	return v.Validate(ctx, quote, document)
}
