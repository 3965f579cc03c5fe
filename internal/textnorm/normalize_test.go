package textnorm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Table(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses whitespace", "Hello   \n\tworld", "Hello world"},
		{"trims", "  leading and trailing  ", "leading and trailing"},
		{"superscript isotope", "binding of [\u00b3H]dopamine", "binding of [3H]dopamine"},
		{"iodine label", "[\u00b9\u00b2\u2075I]RTI-55", "[125I]RTI-55"},
		{"carbon label", "[\u00b9\u2074C]glucose", "[14C]glucose"},
		{"en and em dash", "a\u2013b \u2014 c", "a-b - c"},
		{"minus sign", "\u22125 mV", "-5 mV"},
		{"curly quotes", "\u201cquoted\u201d \u2018x\u2019", "\"quoted\" 'x'"},
		{"soft hyphen", "co\u00adoperate", "cooperate"},
		{"zero width", "zero\u200bwidth\ufeff", "zerowidth"},
		{"ligature", "\ufb01lter", "filter"},
		{"no-break space", "10\u00a0mg", "10 mg"},
		{"empty", "", ""},
		{"only whitespace", " \n\t ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	samples := []string{
		"The  [\u00b3H]spiperone binding \u2013 measured at 37 \u00b0C \u2013 was \u201crobust\u201d.",
		"a \u00ad b",
		"zero\u200b \u200bwidth",
		"Ki = 3.5 nM (n = 4)\n\nsecond paragraph",
		"caf\u00e9 CAF\u00c9",
		"a\u0301\u200d\u0323",
		"o\u0308\u00ad\u0327x \u200b\u0301",
	}
	for _, s := range samples {
		once := Normalize(s)
		assert.Equal(t, once, Normalize(once), "Normalize(%q)", s)

		m := NormalizeForMatching(s)
		assert.Equal(t, m, NormalizeForMatching(m), "NormalizeForMatching(%q)", s)
	}
}

func TestNormalizeForMatching_CaseInsensitive(t *testing.T) {
	s := "Dopamine D2 Receptor caf\u00e9"
	assert.Equal(t, NormalizeForMatching(s), NormalizeForMatching(strings.ToUpper(s)))
	assert.Equal(t, "dopamine d2 receptor", NormalizeForMatching("  DOPAMINE   D2\nReceptor "))
}

func TestNormalizeForMatching_JoinsUnits(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"150 nm size", "150nm size"},
		{"150nm  size", "150nm size"},
		{"5 mmol of substrate", "5mmol of substrate"},
		{"yield of 85 %", "yield of 85%"},
		{"at 37 \u00b0C", "at 37\u00b0c"},
		{"3 moles", "3moles"},
		{"held for 10 minutes", "held for 10minutes"},
		{"1 nm, 2 nm", "1nm, 2nm"},
		{"between 1 and 2", "between 1and 2"},
		{"from 3 4 5", "from 3 4 5"},
		{"(n = 4)", "(n = 4)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeForMatching(tt.in), tt.in)
	}
}

func TestNormalizeForMatching_PreservesSubstrings(t *testing.T) {
	doc := NormalizeForMatching("Vesicles were held for 10 minutes at 37 \u00b0C with 5 mM substrate (yield 85 %).")
	for _, q := range []string{
		"held for 10 min",
		"for 10 m",
		"10 minutes at 37",
		"at 37 \u00b0",
		"5 mM",
		"substrate (yield 85",
		"yield 85 %",
	} {
		assert.Contains(t, doc, NormalizeForMatching(q), q)
	}
}

func TestNormalize_InvisibleBetweenMarks(t *testing.T) {
	// The dot below sorts before the acute accent once the joiner is gone.
	assert.Equal(t, "a\u0323\u0301", Normalize("a\u0301\u200d\u0323"))
}

func TestMapForMatching_OriginalSpan(t *testing.T) {
	src := "The  \u201cQuick\u201d fox jumped"
	m := MapForMatching(src)
	require.Equal(t, "the \"quick\" fox jumped", m.Text)

	needle := "\"quick\" fox"
	idx := strings.Index(m.Text, needle)
	require.GreaterOrEqual(t, idx, 0)

	start, end := m.Original(idx, idx+len(needle))
	assert.Equal(t, "\u201cQuick\u201d fox", src[start:end])
}

func TestMapForMatching_OriginalSpanAcrossJoinedUnit(t *testing.T) {
	src := "particles of 150 nm size were"
	m := MapForMatching(src)

	idx := strings.Index(m.Text, "150nm size")
	require.GreaterOrEqual(t, idx, 0)

	start, end := m.Original(idx, idx+len("150nm size"))
	assert.Equal(t, "150 nm size", src[start:end])
}

func TestMap_OriginalSkipsInvisible(t *testing.T) {
	src := "a co\u00adoperative\u200b study"
	m := Map(src)
	require.Equal(t, "a cooperative study", m.Text)

	idx := strings.Index(m.Text, "cooperative")
	start, end := m.Original(idx, idx+len("cooperative"))
	assert.Equal(t, "co\u00adoperative", src[start:end])

	start, end = m.Original(0, len(m.Text))
	assert.Equal(t, 0, start)
	assert.Equal(t, len(src), end)
}

func TestMapped_OriginalDecomposed(t *testing.T) {
	// A precomposed letter decomposes to two runes that map back to the same source bytes.
	src := "x\u00e9 y"
	m := Map(src)
	require.Equal(t, "xe\u0301 y", m.Text)

	start, end := m.Original(1, 2)
	assert.Equal(t, "\u00e9", src[start:end])

	start, end = m.Original(len(m.Text), len(m.Text))
	assert.Equal(t, len(src), start)
	assert.Equal(t, len(src), end)
}
