package report

import (
	"bytes"
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dgallion1/quotecheck/internal/claims"
	"github.com/dgallion1/quotecheck/internal/doctree"
	"github.com/dgallion1/quotecheck/internal/fuzzy"
	"github.com/dgallion1/quotecheck/internal/quote"
	"github.com/dgallion1/quotecheck/internal/stats"
	"github.com/dgallion1/quotecheck/internal/textnorm"
)

func testDoc() doctree.Document {
	return doctree.Flatten(&doctree.DocTree{
		Title: "study",
		Children: []*doctree.DocNode{
			{Text: "The reaction yield was 85% after purification.", Page: 1},
			{Text: "Samples were stored at 4 degrees for two weeks. The control group showed no change.", Page: 2},
		},
	})
}

func testClaims() []claims.Claim {
	return []claims.Claim{
		{ID: "yield", Quote: "reaction yield was 85%"},
		{ID: "control", Quote: "The control group showed no change."},
		{ID: "storage", Quote: "Samples were stored at 4 degrees for three months"},
		{ID: "blank", Quote: ""},
	}
}

func newBuilder(t *testing.T, scorer *fuzzy.Scorer) *Builder {
	t.Helper()
	res, err := textnorm.EnsureResourcesReady()
	require.NoError(t, err)
	v, err := quote.NewValidator(scorer, quote.DefaultOptions())
	require.NoError(t, err)
	b, err := NewBuilder(v, res.Splitter, DefaultOptions(), zap.NewNop())
	require.NoError(t, err)
	b.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return b
}

func TestBuild(t *testing.T) {
	b := newBuilder(t, fuzzy.Default())
	lat := stats.NewLatency(time.Hour)
	b.WithLatency(lat)

	var seen atomic.Int32
	rep, err := b.Build(context.Background(), testDoc(), testClaims(), func(int, quote.MatchResult, time.Duration) {
		seen.Add(1)
	})
	require.NoError(t, err)

	assert.Equal(t, "study", rep.Document)
	require.Len(t, rep.Claims, 4)

	yield := rep.Claims[0]
	assert.Equal(t, "yield", yield.Claim.ID)
	assert.True(t, yield.Result.Valid)
	assert.Equal(t, quote.MethodExact, yield.Result.Method)
	assert.Equal(t, 1, yield.Page)
	assert.Nil(t, yield.Suggestion)
	assert.Empty(t, yield.Issues)

	control := rep.Claims[1]
	assert.True(t, control.Result.Valid)
	assert.Equal(t, 2, control.Page)

	storage := rep.Claims[2]
	assert.False(t, storage.Result.Valid)
	assert.Zero(t, storage.Page)
	require.NotNil(t, storage.Suggestion)
	assert.Equal(t, "Samples were stored at 4 degrees for two weeks.", storage.Suggestion.Sentence)
	assert.GreaterOrEqual(t, storage.Suggestion.Score, 0.60)

	blank := rep.Claims[3]
	assert.Equal(t, quote.MethodEmpty, blank.Result.Method)
	assert.Nil(t, blank.Suggestion)
	assert.Equal(t, []string{"quote is empty"}, blank.Issues)

	assert.Equal(t, 2, rep.ValidMatches)
	assert.Equal(t, 2, rep.InvalidMatches)
	assert.Equal(t, 4, rep.TotalItems)
	assert.InDelta(t, 0.5, rep.Confidence, 1e-9)
	assert.True(t, rep.NeedsReview)
	assert.False(t, rep.Degraded)
	assert.Equal(t, 0.90, rep.Threshold)
	assert.Len(t, rep.Rejected(), 2)

	assert.EqualValues(t, 4, seen.Load())
	assert.Equal(t, 4, lat.Snapshot().Count)
}

func TestBuild_AllFoundNeedsNoReview(t *testing.T) {
	b := newBuilder(t, fuzzy.Default())
	rep, err := b.Build(context.Background(), testDoc(), testClaims()[:2], nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, rep.Confidence)
	assert.False(t, rep.NeedsReview)
	assert.Empty(t, rep.Rejected())
}

func TestBuild_Degraded(t *testing.T) {
	scorer, err := fuzzy.NewScorer(fuzzy.BackendExact)
	require.NoError(t, err)
	b := newBuilder(t, scorer)

	rep, err := b.Build(context.Background(), testDoc(), testClaims()[:1], nil)
	require.NoError(t, err)
	assert.True(t, rep.Degraded)
	assert.True(t, rep.Claims[0].Result.Valid)
}

func TestBuild_Cancelled(t *testing.T) {
	b := newBuilder(t, fuzzy.Default())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Build(ctx, testDoc(), testClaims(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewBuilder_InvalidOptions(t *testing.T) {
	v, err := quote.NewValidator(fuzzy.Default(), quote.DefaultOptions())
	require.NoError(t, err)

	for _, opts := range []Options{
		{ReviewThreshold: 1.5, SuggestionThreshold: 0.5, Concurrency: 1},
		{ReviewThreshold: 0.5, SuggestionThreshold: -1, Concurrency: 1},
		{ReviewThreshold: 0.5, SuggestionThreshold: 0.5},
	} {
		_, err := NewBuilder(v, nil, opts, nil)
		assert.True(t, eris.Is(err, ErrInvalidOptions), "%+v", opts)
	}
}

func TestReport_Write(t *testing.T) {
	b := newBuilder(t, fuzzy.Default())
	rep, err := b.Build(context.Background(), testDoc(), testClaims()[:1], nil)
	require.NoError(t, err)

	var js bytes.Buffer
	require.NoError(t, rep.WriteJSON(&js))
	assert.Contains(t, js.String(), `"needs_review": false`)
	assert.Contains(t, js.String(), `"valid_matches": 1`)
	assert.Contains(t, js.String(), `"method": "exact_match"`)

	var ym bytes.Buffer
	require.NoError(t, rep.WriteYAML(&ym))
	assert.Contains(t, ym.String(), "confidence: 1\n")
	assert.Contains(t, ym.String(), "document: study\n")
}
