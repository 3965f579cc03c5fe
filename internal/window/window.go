// Package window slides overlapping fixed-size windows across a document and
// finds the one most similar to a query.
package window

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/quotecheck/internal/fuzzy"
	"github.com/dgallion1/quotecheck/internal/textnorm"
)

// minParallelWindows is the window count below which scoring stays on the
// calling goroutine.
const minParallelWindows = 64

// Window is a slice of the document. Start and End are byte offsets into the
// document and always fall on rune boundaries.
type Window struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Split cuts document into windows of size runes that advance by half a
// window. A final window aligned to the end of the document is added when the
// stride does not land there, so the tail is always covered. A document no
// longer than size yields one window holding all of it.
func Split(document string, size int) []Window {
	if size <= 0 {
		return nil
	}

	offsets := make([]int, 0, len(document)+1)
	for i := range document {
		offsets = append(offsets, i)
	}
	n := len(offsets)
	offsets = append(offsets, len(document))

	if n <= size {
		return []Window{{Text: document, Start: 0, End: len(document)}}
	}

	at := func(r int) Window {
		start, end := offsets[r], offsets[r+size]
		return Window{Text: document[start:end], Start: start, End: end}
	}

	stride := max(1, size/2)
	last := n - size
	out := make([]Window, 0, last/stride+2)
	r := 0
	for ; r <= last; r += stride {
		out = append(out, at(r))
	}
	if r-stride != last {
		out = append(out, at(last))
	}
	return out
}

// Search finds the best window for a query with a fixed similarity method.
type Search struct {
	compare fuzzy.Compare
	method  fuzzy.Method
	workers int
}

// NewSearch binds method to scorer. workers bounds how many goroutines score
// windows at once; values below 1 are treated as 1.
func NewSearch(scorer *fuzzy.Scorer, method fuzzy.Method, workers int) (*Search, error) {
	cmp, err := scorer.Comparator(method)
	if err != nil {
		return nil, eris.Wrap(err, "window: new search")
	}
	return &Search{compare: cmp, method: method, workers: max(1, workers)}, nil
}

// Method returns the similarity method windows are scored with.
func (s *Search) Method() fuzzy.Method { return s.method }

// Best returns the highest-scoring window of document for query and its score
// on a 0-1 scale. When several windows share the maximum the earliest wins.
// A non-positive size yields a zero window at position -1.
func (s *Search) Best(ctx context.Context, query, document string, size int) (Window, float64, error) {
	windows := Split(document, size)
	if len(windows) == 0 {
		return Window{Start: -1, End: -1}, 0, nil
	}

	q := textnorm.NormalizeForMatching(query)
	scores := make([]int, len(windows))

	if s.workers == 1 || len(windows) < minParallelWindows {
		for i, w := range windows {
			if i%minParallelWindows == 0 {
				if err := ctx.Err(); err != nil {
					return Window{}, 0, err
				}
			}
			scores[i] = s.compare(q, textnorm.NormalizeForMatching(w.Text))
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.workers)
		chunk := (len(windows) + s.workers - 1) / s.workers
		for lo := 0; lo < len(windows); lo += chunk {
			hi := min(lo+chunk, len(windows))
			g.Go(func() error {
				for i := lo; i < hi; i++ {
					if err := gctx.Err(); err != nil {
						return err
					}
					scores[i] = s.compare(q, textnorm.NormalizeForMatching(windows[i].Text))
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return Window{}, 0, eris.Wrap(err, "window: score windows")
		}
	}

	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return windows[best], float64(scores[best]) / 100, nil
}
