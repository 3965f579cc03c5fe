// Package claims loads the quote-bearing claims an extractor produced for a
// document.
package claims

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/quotecheck/internal/fuzzy"
)

// ErrNoClaims is returned when a claims file holds no claims.
var ErrNoClaims = eris.New("no claims found")

// MaxQuoteRunes is the longest quote Check accepts.
const MaxQuoteRunes = 2000

// RequiredFields must be present on every claim record.
var RequiredFields = []string{"quote"}

// Claim is one extracted statement and the quote that supports it.
type Claim struct {
	ID    string `json:"id" yaml:"id"`
	Field string `json:"field,omitempty" yaml:"field,omitempty"`
	Value any    `json:"value,omitempty" yaml:"value,omitempty"`
	Quote string `json:"quote" yaml:"quote"`
	Page  int    `json:"page,omitempty" yaml:"page,omitempty"`
}

type envelope[T any] struct {
	Claims []T `json:"claims" yaml:"claims"`
}

// fencePattern matches a fenced code block, as model responses often wrap
// their JSON in one.
var fencePattern = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)\\s*```")

// Load reads claims from r. See Parse.
func Load(r io.Reader) ([]Claim, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "claims: read")
	}
	return Parse(data)
}

// Parse decodes claims from JSON or YAML. The input may be a bare list or an
// object with a "claims" list, optionally wrapped in a fenced code block.
// Every record must carry the required fields. Claims without an ID are
// numbered "claim-1", "claim-2" and so on by position.
func Parse(data []byte) ([]Claim, error) {
	data = unfence(data)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrNoClaims
	}

	records, err := decode[map[string]any](data)
	if err != nil {
		return nil, err
	}
	for i, rec := range records {
		if check := CheckRequired(rec, RequiredFields); !check.Valid {
			return nil, eris.Errorf("claims: item %d: missing required field %q", i+1, check.Missing[0])
		}
	}

	list, err := decode[Claim](data)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNoClaims
	}
	for i := range list {
		if list[i].ID == "" {
			list[i].ID = fmt.Sprintf("claim-%d", i+1)
		}
	}
	return list, nil
}

func decode[T any](data []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	isJSON := trimmed[0] == '[' || trimmed[0] == '{'
	isList := trimmed[0] == '[' || (trimmed[0] == '-' && !bytes.HasPrefix(trimmed, []byte("---")))

	unmarshal := yaml.Unmarshal
	if isJSON {
		unmarshal = json.Unmarshal
	}

	if isList {
		var list []T
		if err := unmarshal(trimmed, &list); err != nil {
			return nil, eris.Wrap(err, "claims: decode list")
		}
		return list, nil
	}
	var env envelope[T]
	if err := unmarshal(trimmed, &env); err != nil {
		return nil, eris.Wrap(err, "claims: decode document")
	}
	return env.Claims, nil
}

func unfence(data []byte) []byte {
	if m := fencePattern.FindSubmatch(data); m != nil {
		return m[1]
	}
	return data
}

// FieldCheck reports which required fields a record has.
type FieldCheck struct {
	Valid   bool     `json:"valid"`
	Missing []string `json:"missing_fields"`
	Present []string `json:"present_fields"`
}

// CheckRequired checks that every field in required is a key of record.
func CheckRequired(record map[string]any, required []string) FieldCheck {
	c := FieldCheck{Missing: []string{}, Present: []string{}}
	for _, f := range required {
		if _, ok := record[f]; ok {
			c.Present = append(c.Present, f)
		} else {
			c.Missing = append(c.Missing, f)
		}
	}
	c.Valid = len(c.Missing) == 0
	return c
}

var injectionPattern = regexp.MustCompile(
	`(?i)(ignore\s+(previous|all|above)|system\s*prompt|you\s+are\s+now|` +
		`forget\s+(everything|all)|new\s+instructions)`,
)

// Check lists the problems that make a claim's quote untrustworthy. An empty
// result means the claim is well formed; it says nothing about whether the
// quote is in the document.
func Check(c Claim) []string {
	var issues []string
	q := strings.TrimSpace(c.Quote)
	switch {
	case q == "":
		issues = append(issues, "quote is empty")
	case utf8.RuneCountInString(q) > MaxQuoteRunes:
		issues = append(issues, fmt.Sprintf("quote exceeds %d characters", MaxQuoteRunes))
	}
	if injectionPattern.MatchString(q) {
		issues = append(issues, "quote reads like an instruction")
	}
	return issues
}

// Dedupe drops claims whose quote matches the quote of an earlier kept claim
// at or above threshold (0-1). Claims with empty quotes are always kept.
func Dedupe(list []Claim, scorer *fuzzy.Scorer, threshold float64) []Claim {
	out := make([]Claim, 0, len(list))
	var seen []string
	for _, c := range list {
		if strings.TrimSpace(c.Quote) == "" {
			out = append(out, c)
			continue
		}
		if _, _, idx := scorer.BestMatch(c.Quote, seen, threshold); idx != fuzzy.NoMatch {
			continue
		}
		seen = append(seen, c.Quote)
		out = append(out, c)
	}
	return out
}

// Quotes returns the quote of every claim in order.
func Quotes(list []Claim) []string {
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.Quote
	}
	return out
}
