package doctree

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// searchContext is how many bytes of text Search keeps on each side of a hit.
const searchContext = 100

// PageSpan is the byte range of Document.Text that came from one page.
type PageSpan struct {
	Page  int `json:"page"`
	Start int `json:"start"`
	End   int `json:"end"`
}

// Document is a tree flattened into the single text that quotes are checked
// against.
type Document struct {
	Title string     `json:"title"`
	Text  string     `json:"-"`
	Pages []PageSpan `json:"pages,omitempty"`
}

// Flatten joins the headings and text of every node, in document order, with
// blank lines between them. Nodes that carry a page number contribute to the
// page spans, so offsets in Text can be traced back to a page.
func Flatten(t *DocTree) Document {
	doc := Document{Title: t.Title}
	var b strings.Builder

	add := func(s string, page int) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		start := b.Len()
		b.WriteString(s)
		if page <= 0 {
			return
		}
		if n := len(doc.Pages); n > 0 && doc.Pages[n-1].Page == page {
			doc.Pages[n-1].End = b.Len()
			return
		}
		doc.Pages = append(doc.Pages, PageSpan{Page: page, Start: start, End: b.Len()})
	}

	t.Walk(func(n *DocNode, _ int) {
		add(n.Title, n.Page)
		add(n.Text, n.Page)
	})

	doc.Text = b.String()
	return doc
}

// PageAt returns the page holding the byte offset, or 0 when the document has
// no page information or the offset precedes the first page. Offsets between
// two pages belong to the earlier one.
func (d Document) PageAt(offset int) int {
	if offset < 0 || len(d.Pages) == 0 {
		return 0
	}
	i := sort.Search(len(d.Pages), func(i int) bool { return d.Pages[i].Start > offset })
	if i == 0 {
		return 0
	}
	return d.Pages[i-1].Page
}

// Hit is one occurrence of a search term.
type Hit struct {
	Position int    `json:"position"`
	Page     int    `json:"page,omitempty"`
	Context  string `json:"context"`
}

// Search finds every non-overlapping occurrence of each term and returns the
// hits keyed by term. Terms without hits are present with an empty slice.
func (d Document) Search(terms []string, caseSensitive bool) map[string][]Hit {
	out := make(map[string][]Hit, len(terms))
	for _, term := range terms {
		if term == "" {
			continue
		}
		pattern := regexp.QuoteMeta(term)
		if !caseSensitive {
			pattern = `(?i)` + pattern
		}
		hits := []Hit{}
		for _, loc := range regexp.MustCompile(pattern).FindAllStringIndex(d.Text, -1) {
			from := runeStart(d.Text, max(0, loc[0]-searchContext))
			to := runeStart(d.Text, min(len(d.Text), loc[1]+searchContext))
			hits = append(hits, Hit{
				Position: loc[0],
				Page:     d.PageAt(loc[0]),
				Context:  strings.TrimSpace(d.Text[from:to]),
			})
		}
		out[term] = hits
	}
	return out
}

func runeStart(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
