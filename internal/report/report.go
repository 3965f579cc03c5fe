// Package report validates a document's claims and summarizes how far the
// extraction can be trusted.
package report

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/quotecheck/internal/claims"
	"github.com/dgallion1/quotecheck/internal/confidence"
	"github.com/dgallion1/quotecheck/internal/doctree"
	"github.com/dgallion1/quotecheck/internal/quote"
	"github.com/dgallion1/quotecheck/internal/stats"
	"github.com/dgallion1/quotecheck/internal/textnorm"
)

var ErrInvalidOptions = eris.New("invalid report options")

// Options tune report building.
type Options struct {
	ReviewThreshold     float64
	SuggestionThreshold float64
	Concurrency         int
}

func DefaultOptions() Options {
	return Options{ReviewThreshold: 0.75, SuggestionThreshold: 0.60, Concurrency: 8}
}

func (o Options) Validate() error {
	switch {
	case o.ReviewThreshold < 0 || o.ReviewThreshold > 1:
		return eris.Wrapf(ErrInvalidOptions, "review threshold %v outside [0, 1]", o.ReviewThreshold)
	case o.SuggestionThreshold < 0 || o.SuggestionThreshold > 1:
		return eris.Wrapf(ErrInvalidOptions, "suggestion threshold %v outside [0, 1]", o.SuggestionThreshold)
	case o.Concurrency <= 0:
		return eris.Wrapf(ErrInvalidOptions, "concurrency %d must be positive", o.Concurrency)
	}
	return nil
}

// Suggestion is the document sentence closest to a rejected quote.
type Suggestion struct {
	Sentence string  `json:"sentence" yaml:"sentence"`
	Score    float64 `json:"score" yaml:"score"`
}

// ClaimResult pairs a claim with its validation outcome.
type ClaimResult struct {
	Claim      claims.Claim      `json:"claim" yaml:"claim"`
	Result     quote.MatchResult `json:"result" yaml:"result"`
	Page       int               `json:"page,omitempty" yaml:"page,omitempty"`
	Issues     []string          `json:"issues,omitempty" yaml:"issues,omitempty"`
	Suggestion *Suggestion       `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
}

// Report is the outcome of checking every claim of one document.
type Report struct {
	Document           string        `json:"document" yaml:"document"`
	Claims             []ClaimResult `json:"claims" yaml:"claims"`
	confidence.Summary `yaml:",inline"`
	Threshold          float64   `json:"threshold" yaml:"threshold"`
	NeedsReview        bool      `json:"needs_review" yaml:"needs_review"`
	Degraded           bool      `json:"degraded" yaml:"degraded"`
	GeneratedAt        time.Time `json:"generated_at" yaml:"generated_at"`
}

// Rejected returns the claims whose quote was not found.
func (r *Report) Rejected() []ClaimResult {
	var out []ClaimResult
	for _, c := range r.Claims {
		if !c.Result.Valid {
			out = append(out, c)
		}
	}
	return out
}

// Builder produces reports. It is safe for concurrent use.
type Builder struct {
	validator *quote.Validator
	splitter  *textnorm.SentenceSplitter
	opts      Options
	latency   *stats.Latency
	logger    *zap.Logger
	now       func() time.Time
}

// NewBuilder validates opts. splitter may be nil, in which case rejected
// claims get no suggestion.
func NewBuilder(v *quote.Validator, splitter *textnorm.SentenceSplitter, opts Options, logger *zap.Logger) (*Builder, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		validator: v,
		splitter:  splitter,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// WithLatency records the duration of every validation into l.
func (b *Builder) WithLatency(l *stats.Latency) *Builder {
	b.latency = l
	return b
}

// Options returns the builder's tuning.
func (b *Builder) Options() Options { return b.opts }

// Build validates every claim against doc. observe, when set, sees each
// result as it completes.
func (b *Builder) Build(ctx context.Context, doc doctree.Document, list []claims.Claim, observe quote.Observer) (*Report, error) {
	wrapped := func(i int, res quote.MatchResult, elapsed time.Duration) {
		if b.latency != nil {
			b.latency.Record(elapsed)
		}
		if observe != nil {
			observe(i, res, elapsed)
		}
	}

	batch, err := b.validator.ValidateAll(ctx, claims.Quotes(list), doc.Text, b.opts.Concurrency, wrapped)
	if err != nil {
		return nil, eris.Wrap(err, "report: validate claims")
	}

	rep := &Report{
		Document:    doc.Title,
		Claims:      make([]ClaimResult, len(list)),
		Summary:     batch.Summary,
		Threshold:   b.validator.Options().Threshold,
		NeedsReview: batch.NeedsReview(b.opts.ReviewThreshold),
		Degraded:    batch.Degraded,
		GeneratedAt: b.now().UTC(),
	}

	var sentences []string
	for i, c := range list {
		res := batch.Results[i]
		cr := ClaimResult{Claim: c, Result: res, Issues: claims.Check(c)}
		if res.Position >= 0 {
			cr.Page = doc.PageAt(res.Position)
		}
		if !res.Valid && res.Method != quote.MethodEmpty && b.splitter != nil {
			if sentences == nil {
				sentences = b.splitter.Split(doc.Text)
			}
			cr.Suggestion = b.suggest(c.Quote, sentences)
		}
		rep.Claims[i] = cr
	}

	b.logger.Info("report built",
		zap.String("document", doc.Title),
		zap.Int("claims", len(list)),
		zap.Int("valid", rep.ValidMatches),
		zap.Float64("confidence", rep.Confidence),
		zap.Bool("needs_review", rep.NeedsReview),
	)
	return rep, nil
}

func (b *Builder) suggest(q string, sentences []string) *Suggestion {
	match, score, idx := b.validator.Scorer().BestMatch(q, sentences, b.opts.SuggestionThreshold)
	if idx < 0 {
		return nil
	}
	return &Suggestion{Sentence: match, Score: score}
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(r), "report: encode json")
}

// WriteYAML writes the report as YAML.
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return eris.Wrap(err, "report: encode yaml")
	}
	return eris.Wrap(enc.Close(), "report: flush yaml")
}
