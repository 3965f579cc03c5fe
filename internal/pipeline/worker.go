package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dgallion1/quotecheck/internal/doctree"
	"github.com/dgallion1/quotecheck/internal/parser"
	"github.com/dgallion1/quotecheck/internal/quote"
	"github.com/dgallion1/quotecheck/internal/report"
)

// Worker processes a single validation job.
type Worker struct {
	builder    *report.Builder
	parserOpts parser.Options
	logger     *zap.Logger
}

func NewWorker(builder *report.Builder, parserOpts parser.Options, logger *zap.Logger) *Worker {
	return &Worker{
		builder:    builder,
		parserOpts: parserOpts,
		logger:     logger,
	}
}

// Process parses the job's document and validates its claims against it.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.logger.With(zap.String("job_id", job.ID), zap.String("filename", job.Filename))
	start := time.Now()

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename, w.parserOpts)
	if err != nil {
		log.Error("unsupported format", zap.Error(err))
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	tree, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", zap.Error(err))
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if job.Title != "" {
		tree.Title = job.Title
	}

	doc := doctree.Flatten(tree)
	job.SetContentHash(ContentHashHex([]byte(doc.Text)))
	if doc.Text == "" {
		log.Warn("no text extracted")
		job.AddError("no extractable content")
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	log.Info("parsed document", zap.Int("bytes", len(doc.Text)), zap.Int("pages", tree.PageCount()))

	// Phase 2: Validate
	list := job.Claims()
	job.SetStatus(StatusValidating, "validating")
	job.SetTotalClaims(len(list))

	rep, err := w.builder.Build(ctx, doc, list, func(_ int, res quote.MatchResult, _ time.Duration) {
		job.RecordResult(res.Valid)
	})
	if err != nil {
		log.Error("validation failed", zap.Error(err))
		job.AddError(fmt.Sprintf("validate: %s", err))
		job.SetStatus(StatusFailed, "validating")
		return
	}

	job.SetReport(rep)
	job.SetStatus(StatusCompleted, "done")
	log.Info("job complete",
		zap.Int("claims", len(list)),
		zap.Int("valid", rep.ValidMatches),
		zap.Bool("needs_review", rep.NeedsReview),
		zap.Duration("elapsed", time.Since(start)),
	)
}
