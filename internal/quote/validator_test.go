package quote

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/quotecheck/internal/fuzzy"
	"github.com/dgallion1/quotecheck/internal/textnorm"
	"github.com/dgallion1/quotecheck/internal/window"
)

func newValidator(t *testing.T, mutate func(*Options)) *Validator {
	t.Helper()
	opts := DefaultOptions()
	if mutate != nil {
		mutate(&opts)
	}
	v, err := NewValidator(fuzzy.Default(), opts)
	require.NoError(t, err)
	return v
}

func validate(t *testing.T, v *Validator, quote, doc string) MatchResult {
	t.Helper()
	res, err := v.Validate(context.Background(), quote, doc)
	require.NoError(t, err)
	return res
}

func TestValidate_ExactSubstring(t *testing.T) {
	doc := "In the trial, results showed significant improvement over placebo."
	quote := "results showed significant improvement"

	res := validate(t, newValidator(t, nil), quote, doc)
	assert.True(t, res.Valid)
	assert.Equal(t, MethodExact, res.Method)
	assert.InDelta(t, 1.0, res.Score, 1e-9)
	assert.Equal(t, strings.Index(doc, quote), res.Position)
	assert.Equal(t, quote, res.Match)
}

func TestValidate_ExactThroughNormalization(t *testing.T) {
	doc := "\u0394 caf\u00e9: Results  showed\nsignificant improvement \u2013 overall."
	res := validate(t, newValidator(t, nil), "results showed significant improvement", doc)

	require.Equal(t, MethodExact, res.Method)
	assert.Equal(t, strings.Index(doc, "Results"), res.Position)
	assert.Equal(t, "Results  showed\nsignificant improvement", res.Match)
	assert.True(t, strings.HasPrefix(doc[res.Position:], res.Match))
}

func TestValidate_UnitSpacing(t *testing.T) {
	doc := "Liposomes of 150nm  size were prepared by extrusion."
	res := validate(t, newValidator(t, nil), "150 nm size", doc)

	assert.True(t, res.Valid)
	assert.Contains(t, []Method{MethodExact, MethodPartial}, res.Method)
	assert.Equal(t, strings.Index(doc, "150nm"), res.Position)
}

func TestValidate_ExactWhenQuoteEndsInsideWord(t *testing.T) {
	padding := strings.Repeat("Unrelated methods text about buffers and pipettes. ", 12)
	tests := []struct {
		quote, doc string
	}{
		{"held for 10 min", "Vesicles were held for 10 minutes."},
		{"for 10 min", "Vesicles were held for 10 minutes."},
		{"the samples were incubated for 5 min", padding + "Then the samples were incubated for 5 minutes at 37 \u00b0C." + padding},
		{"stored at 4 deg", "Samples were stored at 4 degrees for two weeks."},
		{"yield of 85", "a yield of 85 % was reached"},
	}
	v := newValidator(t, nil)
	for _, tt := range tests {
		res := validate(t, v, tt.quote, tt.doc)
		assert.Equal(t, MethodExact, res.Method, tt.quote)
		assert.InDelta(t, 1.0, res.Score, 1e-9, tt.quote)
		assert.True(t, res.Valid, tt.quote)
	}
}

func TestValidate_EveryNormalizedSubstringIsExact(t *testing.T) {
	doc := "Vesicles (150 nm) were held for 10 minutes at 37 \u00b0C, then 5 mM substrate was added; " +
		"the yield was 85 % and [\u00b3H]spiperone binding fell 2\u20133 fold in 4 mice."
	norm := textnorm.Normalize(doc)
	v := newValidator(t, nil)

	// Cut at every word start and at every rune boundary after it, including
	// cuts inside numbers and unit words.
	var starts []int
	for i, r := range norm {
		if i == 0 || (norm[i-1] == ' ' && !unicode.IsSpace(r)) {
			starts = append(starts, i)
		}
	}
	checked := 0
	for _, start := range starts {
		for end := start + 1; end <= len(norm); end++ {
			if end < len(norm) && !utf8.RuneStart(norm[end]) {
				continue
			}
			q := norm[start:end]
			if utf8.RuneCountInString(strings.TrimSpace(q)) < 4 {
				continue
			}
			res := validate(t, v, q, doc)
			if !assert.Equal(t, MethodExact, res.Method, "quote %q", q) {
				return
			}
			assert.InDelta(t, 1.0, res.Score, 1e-9)
			checked++
		}
	}
	assert.Greater(t, checked, 1000)
}

func TestValidate_PartialSpanCountsRunes(t *testing.T) {
	doc := "Einleitung. Die L\u00f6sung wurde bei Raumtemperatur \u00fcber Nacht ger\u00fchrt und anschlie\u00dfend filtriert. " +
		"Danach folgte die \u00fcbliche Aufarbeitung mit w\u00e4ssriger L\u00f6sung und Trocknung \u00fcber Natriumsulfat."
	quote := "Die L\u00f6sung wurde bei Raumtemperatur \u00fcber Nacht ger\u00fchrt und anschliessend filtriert"

	res := validate(t, newValidator(t, nil), quote, doc)
	require.Equal(t, MethodPartial, res.Method)
	assert.Equal(t, strings.Index(doc, "Die L"), res.Position)

	rest := []rune(doc[res.Position:])
	want := string(rest[:min(len(rest), utf8.RuneCountInString(quote)+50)])
	assert.Equal(t, want, res.Match)
}

func TestValidate_PartialTier(t *testing.T) {
	doc := "Background text here. The compound inhibited receptor binding in a dose dependent " +
		"manner across all tested concentrations. More text follows."
	quote := "The compound inhibited receptor binding in a dose-dependent manner across all tested concentrations"

	res := validate(t, newValidator(t, nil), quote, doc)
	require.Equal(t, MethodPartial, res.Method)
	assert.True(t, res.Valid)
	assert.Greater(t, res.Score, 0.95)
	assert.Equal(t, strings.Index(doc, "The compound"), res.Position)

	wantEnd := min(res.Position+len(quote)+50, len(doc))
	assert.Equal(t, doc[res.Position:wantEnd], res.Match)
}

func TestValidate_PartialWithoutAnchorFallsThrough(t *testing.T) {
	doc := "Background text here. The compound inhibited receptor binding in a dose dependent " +
		"manner across all tested concentrations. More text follows."
	quote := "Teh compound inhibited receptor binding in a dose dependent manner across all tested concentrations"

	res := validate(t, newValidator(t, nil), quote, doc)
	assert.NotEqual(t, MethodPartial, res.Method)
	assert.NotEqual(t, MethodExact, res.Method)
}

func TestValidate_Absent(t *testing.T) {
	doc := "The formulation remained stable for six months at four degrees. " +
		"Particle size did not change appreciably during storage."
	quote := "liposomes exhibited complete degradation"

	v := newValidator(t, nil)
	res := validate(t, v, quote, doc)
	assert.False(t, res.Valid)
	assert.Equal(t, MethodNone, res.Method)
	assert.Equal(t, NotFound, res.Position)
	assert.Empty(t, res.Match)

	s, err := window.NewSearch(fuzzy.Default(), fuzzy.TokenSort, 1)
	require.NoError(t, err)
	_, best, err := s.Best(context.Background(), quote, doc, DefaultOptions().WindowSize)
	require.NoError(t, err)
	assert.Greater(t, best, 0.0)
	assert.InDelta(t, best, res.Score, 1e-9)
}

func TestValidate_EmptyQuote(t *testing.T) {
	v := newValidator(t, nil)
	for _, q := range []string{"", "   \n\t", "\u200b"} {
		res := validate(t, v, q, "any document")
		assert.False(t, res.Valid)
		assert.Equal(t, MethodEmpty, res.Method)
		assert.Zero(t, res.Score)
		assert.Equal(t, NotFound, res.Position)
	}
}

func TestValidate_ThresholdBoundary(t *testing.T) {
	res := validate(t, newValidator(t, nil), "abcdefghij", "abcdefghix")
	assert.True(t, res.Valid)
	assert.Equal(t, MethodWindow, res.Method)
	assert.InDelta(t, 0.90, res.Score, 1e-9)
	assert.Equal(t, 0, res.Position)

	strict := newValidator(t, func(o *Options) { o.Threshold = 0.9000001 })
	res = validate(t, strict, "abcdefghij", "abcdefghix")
	assert.False(t, res.Valid)
	assert.Equal(t, MethodNone, res.Method)
	assert.InDelta(t, 0.90, res.Score, 1e-9)
}

func TestValidate_WindowTierReorderedWords(t *testing.T) {
	doc := "Dose dependent binding of the receptor was observed in all samples."
	res := validate(t, newValidator(t, func(o *Options) { o.WindowSize = 40 }),
		"binding receptor the of dependent dose", doc)

	assert.Equal(t, MethodWindow, res.Method)
	assert.True(t, res.Valid)
	assert.Equal(t, doc[res.Position:res.Position+len(res.Match)], res.Match)
}

func TestValidate_Degraded(t *testing.T) {
	s, err := fuzzy.NewScorer(fuzzy.BackendExact)
	require.NoError(t, err)
	v, err := NewValidator(s, DefaultOptions())
	require.NoError(t, err)

	res, err := v.Validate(context.Background(), "Significant Improvement", "a significant improvement")
	require.NoError(t, err)
	assert.Equal(t, MethodExact, res.Method)
	assert.True(t, res.Degraded)

	res, err = v.Validate(context.Background(), "significant improvment", "a significant improvement")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.True(t, res.Degraded)
}

func TestValidate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newValidator(t, nil).Validate(ctx, "missing words here", "some other document")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewValidator_InvalidOptions(t *testing.T) {
	tests := map[string]func(*Options){
		"threshold":         func(o *Options) { o.Threshold = 1.5 },
		"partial threshold": func(o *Options) { o.PartialThreshold = -0.1 },
		"window size":       func(o *Options) { o.WindowSize = 0 },
		"margin":            func(o *Options) { o.PartialMargin = -1 },
		"anchor":            func(o *Options) { o.AnchorTokens = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			opts := DefaultOptions()
			mutate(&opts)
			_, err := NewValidator(fuzzy.Default(), opts)
			require.Error(t, err)
			assert.True(t, eris.Is(err, ErrInvalidOptions))
		})
	}
}

func TestValidateQuote(t *testing.T) {
	res, err := ValidateQuote(context.Background(), "significant improvement", "A significant improvement.", 0.9, 300)
	require.NoError(t, err)
	assert.Equal(t, MethodExact, res.Method)

	_, err = ValidateQuote(context.Background(), "q", "doc", 2, 300)
	assert.Error(t, err)
}

func TestValidateAll_OrderAndSummary(t *testing.T) {
	doc := "In the trial, results showed significant improvement over placebo."
	quotes := []string{
		"results showed significant improvement",
		"",
		"liposomes exhibited complete degradation",
		"over placebo",
	}

	var calls atomic.Int32
	batch, err := newValidator(t, nil).ValidateAll(context.Background(), quotes, doc, 3,
		func(i int, res MatchResult, elapsed time.Duration) {
			calls.Add(1)
			assert.GreaterOrEqual(t, elapsed, time.Duration(0))
		})
	require.NoError(t, err)

	require.Len(t, batch.Results, 4)
	assert.Equal(t, MethodExact, batch.Results[0].Method)
	assert.Equal(t, MethodEmpty, batch.Results[1].Method)
	assert.Equal(t, MethodNone, batch.Results[2].Method)
	assert.Equal(t, MethodExact, batch.Results[3].Method)

	assert.Equal(t, int32(4), calls.Load())
	assert.Equal(t, 4, batch.TotalItems)
	assert.Equal(t, 2, batch.ValidMatches)
	assert.InDelta(t, 0.5, batch.Confidence, 1e-9)
	assert.False(t, batch.Degraded)
}

func TestNewBatch(t *testing.T) {
	results := []MatchResult{{Score: 1.0}, {Score: 0.95}, {Score: 0.4}, {Score: 1.0}, {Score: 0.92, Degraded: true}}
	b := NewBatch(results, 0.90)

	assert.Equal(t, 4, b.ValidMatches)
	assert.InDelta(t, 0.8, b.Confidence, 1e-9)
	assert.InDelta(t, 0.854, b.AverageScore, 1e-9)
	assert.True(t, b.Degraded)
}
