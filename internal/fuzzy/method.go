package fuzzy

import (
	"strings"

	"github.com/rotisserie/eris"
)

// ErrUnknownMethod is returned when a similarity method name is not recognized.
var ErrUnknownMethod = eris.New("unknown similarity method")

// Method selects how two strings are compared.
type Method int

const (
	// Ratio is the normalized indel similarity of the two whole strings.
	Ratio Method = iota
	// Partial scores the best-aligned substring of the longer string.
	Partial
	// TokenSort compares the alphabetically sorted token lists.
	TokenSort
	// TokenSet compares the token intersection against each remainder.
	TokenSet
)

// Methods lists every method in the order BestMatch evaluates them.
var Methods = []Method{Ratio, Partial, TokenSort, TokenSet}

var methodNames = map[Method]string{
	Ratio:     "ratio",
	Partial:   "partial",
	TokenSort: "token_sort",
	TokenSet:  "token_set",
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether m is one of the declared methods.
func (m Method) Valid() bool {
	_, ok := methodNames[m]
	return ok
}

// ParseMethod resolves a method name. Names are case-insensitive and accept
// "partial_ratio", "token_sort_ratio" and "token_set_ratio" aliases.
func ParseMethod(name string) (Method, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.TrimSuffix(n, "_ratio")
	if n == "" {
		n = "ratio"
	}
	for m, known := range methodNames {
		if known == n {
			return m, nil
		}
	}
	return 0, eris.Wrapf(ErrUnknownMethod, "fuzzy: parse method %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (m Method) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, eris.Wrapf(ErrUnknownMethod, "fuzzy: marshal method %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Method) UnmarshalText(b []byte) error {
	parsed, err := ParseMethod(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
