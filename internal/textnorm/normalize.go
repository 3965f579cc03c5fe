package textnorm

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/unicode/norm"
)

// invisible holds the characters removed outright: soft hyphen, zero-width
// space, non-joiner and joiner, word joiner and the byte order mark.
var invisible = runes.In(&unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x00ad, Hi: 0x00ad, Stride: 1},
		{Lo: 0x200b, Hi: 0x200d, Stride: 1},
		{Lo: 0x2060, Hi: 0x2060, Stride: 1},
		{Lo: 0xfeff, Hi: 0xfeff, Stride: 1},
	},
	LatinOffset: 1,
})

// Normalize canonicalizes scientific text extracted from PDFs so that two
// extraction passes of the same passage compare equal.
//
// The text is decomposed with NFKD, typographic dashes and quotes are mapped
// to ASCII, soft hyphens and zero-width characters are removed, and every
// whitespace run collapses to a single space. Superscript and subscript digits
// have compatibility decompositions to ASCII digits, so NFKD also turns
// isotope labels such as [³H] or [¹²⁵I] into [3H] and [125I].
//
// Normalize is idempotent.
func Normalize(text string) string {
	return build(text, false).Text
}

// NormalizeForMatching applies Normalize, lower-cases the result and drops the
// space between a digit and a following letter, percent or degree sign
// ("150 nm" and "150nm" both become "150nm"). The join only looks at the two
// characters around the space, so a substring of the normalized text stays a
// substring of the matching form. All searching compares on this form.
func NormalizeForMatching(text string) string {
	return MapForMatching(text).Text
}

// Map normalizes text like Normalize and keeps the offset map back into text.
func Map(text string) Mapped {
	return build(text, false)
}

// MapForMatching normalizes text like NormalizeForMatching and keeps the
// offset map back into text.
func MapForMatching(text string) Mapped {
	return joinUnits(build(text, true))
}

// Mapped is normalized text that remembers which bytes of the source produced
// each of its bytes.
type Mapped struct {
	Text string

	starts []int
	ends   []int
	srcLen int
}

// Original converts the normalized byte span [start, end) into the span of the
// source text that produced it. The returned offsets always fall on rune
// boundaries of the source.
func (m Mapped) Original(start, end int) (int, int) {
	if start < 0 {
		start = 0
	}
	if end > len(m.Text) {
		end = len(m.Text)
	}
	if start >= len(m.Text) {
		return m.srcLen, m.srcLen
	}
	if end <= start {
		return m.starts[start], m.starts[start]
	}
	return m.starts[start], m.ends[end-1]
}

func build(text string, fold bool) Mapped {
	var b strings.Builder
	b.Grow(len(text))
	m := Mapped{
		starts: make([]int, 0, len(text)),
		ends:   make([]int, 0, len(text)),
		srcLen: len(text),
	}

	var buf [utf8.UTFMax]byte
	emit := func(r rune, from, to int) {
		n := utf8.EncodeRune(buf[:], r)
		b.Write(buf[:n])
		for range n {
			m.starts = append(m.starts, from)
			m.ends = append(m.ends, to)
		}
	}

	pending := false
	var spaceFrom, spaceTo int

	visible, pos := stripInvisible(text)
	source := func(i int) int {
		if pos == nil {
			return i
		}
		return pos[i]
	}

	var it norm.Iter
	it.InitString(norm.NFKD, visible)
	for !it.Done() {
		from := source(it.Pos())
		seg := it.Next()
		to := source(it.Pos()-1) + 1

		for len(seg) > 0 {
			r, size := utf8.DecodeRune(seg)
			seg = seg[size:]

			r = mapRune(r)
			if unicode.IsSpace(r) {
				if !pending {
					pending = true
					spaceFrom, spaceTo = from, to
				}
				continue
			}
			if fold {
				r = unicode.ToLower(r)
			}
			if pending {
				if b.Len() > 0 {
					emit(' ', spaceFrom, spaceTo)
				}
				pending = false
			}
			emit(r, from, to)
		}
	}

	m.Text = b.String()
	return m
}

// stripInvisible removes the invisible characters before decomposition, so
// combining marks on both sides of one are ordered as a single sequence. pos
// maps each byte of the result to its offset in text; it is nil when nothing
// was removed.
func stripInvisible(text string) (string, []int) {
	if strings.IndexFunc(text, invisible.Contains) < 0 {
		return text, nil
	}
	var b strings.Builder
	b.Grow(len(text))
	pos := make([]int, 0, len(text))
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !invisible.Contains(r) {
			b.WriteString(text[i : i+size])
			for k := range size {
				pos = append(pos, i+k)
			}
		}
		i += size
	}
	return b.String(), pos
}

func mapRune(r rune) rune {
	switch r {
	case '\u2010', '\u2011', '\u2012', '\u2013', '\u2014', '\u2015', '\u2212':
		return '-'
	case '\u2018', '\u2019', '\u201a', '\u201b':
		return '\''
	case '\u201c', '\u201d', '\u201e', '\u201f':
		return '"'
	}
	return r
}

// unitSpace matches a digit, one space and the first character of a unit.
var unitSpace = regexp.MustCompile(`[0-9] [\p{L}%\x{b0}]`)

func joinUnits(m Mapped) Mapped {
	locs := unitSpace.FindAllStringIndex(m.Text, -1)
	if len(locs) == 0 {
		return m
	}

	out := Mapped{
		starts: make([]int, 0, len(m.starts)),
		ends:   make([]int, 0, len(m.ends)),
		srcLen: m.srcLen,
	}
	var b strings.Builder
	b.Grow(len(m.Text))
	prev := 0
	for _, loc := range locs {
		space := loc[0] + 1
		b.WriteString(m.Text[prev:space])
		out.starts = append(out.starts, m.starts[prev:space]...)
		out.ends = append(out.ends, m.ends[prev:space]...)
		prev = space + 1
	}
	b.WriteString(m.Text[prev:])
	out.starts = append(out.starts, m.starts[prev:]...)
	out.ends = append(out.ends, m.ends[prev:]...)
	out.Text = b.String()
	return out
}
