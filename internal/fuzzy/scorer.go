// Package fuzzy scores the similarity of two strings on a 0-100 scale.
package fuzzy

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
	"github.com/rotisserie/eris"

	"github.com/dgallion1/quotecheck/internal/textnorm"
)

// ErrUnknownBackend is returned for an unrecognized backend name.
var ErrUnknownBackend = eris.New("unknown similarity backend")

// Backend selects the engine behind the similarity methods.
type Backend string

const (
	// BackendLevenshtein scores with edit distance.
	BackendLevenshtein Backend = "levenshtein"
	// BackendExact only distinguishes equal from unequal strings. Results
	// produced with it are marked degraded.
	BackendExact Backend = "exact"
)

// ParseBackend resolves a backend name; the empty name selects levenshtein.
func ParseBackend(name string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(name))); b {
	case "", BackendLevenshtein:
		return BackendLevenshtein, nil
	case BackendExact:
		return BackendExact, nil
	default:
		return "", eris.Wrapf(ErrUnknownBackend, "fuzzy: parse backend %q", name)
	}
}

// Compare scores two strings that are already in matching form.
type Compare func(a, b string) int

// Scorer computes similarity scores. It holds no mutable state and is safe for
// concurrent use.
type Scorer struct {
	backend Backend
}

// NewScorer returns a scorer for backend.
func NewScorer(backend Backend) (*Scorer, error) {
	b, err := ParseBackend(string(backend))
	if err != nil {
		return nil, err
	}
	return &Scorer{backend: b}, nil
}

// Default returns the edit-distance scorer.
func Default() *Scorer {
	return &Scorer{backend: BackendLevenshtein}
}

// Backend returns the engine in use.
func (s *Scorer) Backend() Backend { return s.backend }

// Degraded reports whether scores come from the exact-equality fallback.
func (s *Scorer) Degraded() bool { return s.backend == BackendExact }

// Score normalizes both strings for matching and compares them with m.
func (s *Scorer) Score(a, b string, m Method) (int, error) {
	cmp, err := s.Comparator(m)
	if err != nil {
		return 0, err
	}
	return cmp(textnorm.NormalizeForMatching(a), textnorm.NormalizeForMatching(b)), nil
}

// Comparator binds m to the scorer's backend. The returned function skips
// normalization, so callers that compare one string against many can
// normalize once.
func (s *Scorer) Comparator(m Method) (Compare, error) {
	if !m.Valid() {
		return nil, eris.Wrapf(ErrUnknownMethod, "fuzzy: method %d", int(m))
	}
	if s.backend == BackendExact {
		return exactCompare, nil
	}
	switch m {
	case Partial:
		return partialRatio, nil
	case TokenSort:
		return tokenSortRatio, nil
	case TokenSet:
		return tokenSetRatio, nil
	default:
		return ratio, nil
	}
}

func exactCompare(a, b string) int {
	if a != "" && a == b {
		return 100
	}
	return 0
}

func ratio(a, b string) int {
	return ratioRunes([]rune(a), []rune(b))
}

// ratioRunes is the indel similarity 100 * (1 - d / (len(a)+len(b))), where d
// counts insertions and deletions. A substitution costs 2, the same as a
// deletion followed by an insertion.
func ratioRunes(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	total := len(a) + len(b)
	dist, _, _ := levenshtein.Calculate(a, b, 0, 1, 2, 1)
	return int(math.Round(100 * float64(total-dist) / float64(total)))
}

func tokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func tokenSortRatio(a, b string) int {
	ta, tb := tokens(a), tokens(b)
	sort.Strings(ta)
	sort.Strings(tb)
	return ratio(strings.Join(ta, " "), strings.Join(tb, " "))
}

func tokenSetRatio(a, b string) int {
	sa, sb := tokenSet(a), tokenSet(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}

	var common, onlyA, onlyB []string
	for t := range sa {
		if sb[t] {
			common = append(common, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range sb {
		if !sa[t] {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	sect := strings.Join(common, " ")
	withA := strings.TrimSpace(sect + " " + strings.Join(onlyA, " "))
	withB := strings.TrimSpace(sect + " " + strings.Join(onlyB, " "))

	return max(ratio(sect, withA), ratio(sect, withB), ratio(withA, withB))
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range tokens(s) {
		set[t] = true
	}
	return set
}
