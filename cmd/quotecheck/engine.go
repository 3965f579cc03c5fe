package main

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dgallion1/quotecheck/internal/doctree"
	"github.com/dgallion1/quotecheck/internal/fuzzy"
	"github.com/dgallion1/quotecheck/internal/parser"
	"github.com/dgallion1/quotecheck/internal/quote"
	"github.com/dgallion1/quotecheck/internal/report"
)

// newScorer builds the configured scorer and warns when it is degraded.
func newScorer() (*fuzzy.Scorer, error) {
	scorer, err := cfg.Scorer()
	if err != nil {
		return nil, eris.Wrap(err, "build scorer")
	}
	if scorer.Degraded() {
		zap.L().Warn("fuzzy backend is exact; similarity scores are either 0 or 100",
			zap.String("backend", string(scorer.Backend())))
	}
	return scorer, nil
}

// newValidator builds a validator from config with optional overrides; zero
// values keep the configured setting.
func newValidator(threshold float64, windowSize int) (*quote.Validator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	scorer, err := newScorer()
	if err != nil {
		return nil, err
	}
	opts := cfg.QuoteOptions()
	if threshold > 0 {
		opts.Threshold = threshold
	}
	if windowSize > 0 {
		opts.WindowSize = windowSize
	}
	return quote.NewValidator(scorer, opts)
}

func newBuilder(v *quote.Validator, concurrency int) (*report.Builder, error) {
	opts := cfg.ReportOptions()
	if concurrency > 0 {
		opts.Concurrency = concurrency
	}
	return report.NewBuilder(v, resources.Splitter, opts, zap.L())
}

func parserOptions() parser.Options {
	return parser.Options{FallbackPdftotext: cfg.PDF.FallbackPdftotext}
}

// loadDocument parses path and flattens it for validation.
func loadDocument(path string) (*doctree.DocTree, doctree.Document, error) {
	tree, err := parser.ParseFile(path, parserOptions())
	if err != nil {
		return nil, doctree.Document{}, err
	}
	doc := doctree.Flatten(tree)
	if doc.Text == "" {
		return nil, doctree.Document{}, eris.Errorf("no text could be extracted from %s", path)
	}
	return tree, doc, nil
}
