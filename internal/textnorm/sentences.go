package textnorm

import (
	"strings"
	"unicode"
)

// SentenceSplitter segments prose into sentences without breaking on the
// abbreviations common in scientific writing ("et al.", "Fig.", "e.g.").
type SentenceSplitter struct {
	abbrev map[string]bool
}

// NewSentenceSplitter returns a splitter that treats the given lower-case
// tokens, written without their final period, as abbreviations.
func NewSentenceSplitter(abbrev map[string]bool) *SentenceSplitter {
	return &SentenceSplitter{abbrev: abbrev}
}

// Split returns the normalized sentences of text. A sentence ends at '.', '!'
// or '?' (plus any closing brackets or quotes) when whitespace follows and the
// next word does not start in lower case. Empty sentences are dropped.
func (s *SentenceSplitter) Split(text string) []string {
	runes := []rune(text)
	var out []string
	start := 0

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}

		end := i + 1
		for end < len(runes) && isCloser(runes[end]) {
			end++
		}
		if end < len(runes) && !unicode.IsSpace(runes[end]) {
			continue
		}
		next := end
		for next < len(runes) && unicode.IsSpace(runes[next]) {
			next++
		}
		if next < len(runes) && unicode.IsLower(runes[next]) {
			continue
		}
		if r == '.' && s.isAbbreviation(runes[start:i]) {
			continue
		}

		out = appendSentence(out, runes[start:end])
		start = next
		i = next - 1
	}
	return appendSentence(out, runes[start:])
}

// isAbbreviation reports whether the word ending right before a period is a
// known abbreviation or a single-letter initial.
func (s *SentenceSplitter) isAbbreviation(before []rune) bool {
	j := len(before)
	for j > 0 && !unicode.IsSpace(before[j-1]) {
		j--
	}
	word := strings.TrimLeft(string(before[j:]), "([{\"'")
	if word == "" {
		return false
	}
	if w := []rune(word); len(w) == 1 && unicode.IsUpper(w[0]) {
		return true
	}
	return s.abbrev[strings.ToLower(word)]
}

func isCloser(r rune) bool {
	switch r {
	case ')', ']', '}', '"', '\'', '”', '’':
		return true
	}
	return false
}

func appendSentence(out []string, seg []rune) []string {
	if sentence := Normalize(string(seg)); sentence != "" {
		out = append(out, sentence)
	}
	return out
}
