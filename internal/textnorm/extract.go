package textnorm

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	numberPattern  = regexp.MustCompile(`-?\d+\.?\d*(?:[eE][+-]?\d+)?`)
	percentPattern = regexp.MustCompile(`(\d+\.?\d*)\s*%`)
)

// Clean collapses whitespace, removes control and format characters and trims
// the result. Unlike Normalize it leaves the characters themselves alone.
func Clean(text string) string {
	text = strings.Map(func(r rune) rune {
		if unicode.Is(unicode.C, r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
	return strings.Join(strings.Fields(text), " ")
}

// Truncate shortens text to at most limit runes, ending it with ellipsis when
// anything was cut.
func Truncate(text string, limit int, ellipsis string) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	el := []rune(ellipsis)
	if len(el) >= limit {
		return string(el[:limit])
	}
	return string([]rune(text)[:limit-len(el)]) + ellipsis
}

// ExtractNumbers returns every number in text, including decimals, negatives
// and exponent notation, in order of appearance.
func ExtractNumbers(text string) []float64 {
	return parseAll(numberPattern.FindAllString(Normalize(text), -1))
}

// ExtractPercentages returns the values written as percentages ("12.5 %").
func ExtractPercentages(text string) []float64 {
	var raw []string
	for _, m := range percentPattern.FindAllStringSubmatch(Normalize(text), -1) {
		raw = append(raw, m[1])
	}
	return parseAll(raw)
}

func parseAll(raw []string) []float64 {
	out := make([]float64, 0, len(raw))
	for _, s := range raw {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// ExtractUnits returns the measurement units from units that occur in text as
// standalone tokens or directly after a number. The result is sorted and free
// of duplicates.
func ExtractUnits(text string, units []string) []string {
	text = Normalize(text)
	var found []string
	for _, u := range units {
		if containsUnit(text, u) {
			found = append(found, u)
		}
	}
	sort.Strings(found)
	return found
}

func containsUnit(text, unit string) bool {
	if unit == "" {
		return false
	}
	for offset := 0; offset < len(text); {
		i := strings.Index(text[offset:], unit)
		if i < 0 {
			return false
		}
		i += offset
		end := i + len(unit)

		before, _ := utf8.DecodeLastRuneInString(text[:i])
		after, _ := utf8.DecodeRuneInString(text[end:])
		okBefore := i == 0 || !unicode.IsLetter(before)
		okAfter := end == len(text) || !unicode.IsLetter(after)
		if okBefore && okAfter {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		offset = i + size
	}
	return false
}

// Highlight wraps every case-insensitive occurrence of match in text with
// marker on both sides.
func Highlight(text, match, marker string) string {
	if match == "" {
		return text
	}
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(match))
	return re.ReplaceAllStringFunc(text, func(s string) string {
		return marker + s + marker
	})
}
