package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/dgallion1/quotecheck/internal/doctree"
)

// maxLineBytes bounds a single line of plain text.
const maxLineBytes = 4 * 1024 * 1024

// TextParser handles plain text files. Blank lines separate paragraphs, and
// form feeds (as written by pdftotext) start a new page.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	tree := &doctree.DocTree{Title: titleFromFilename(filename)}
	var current strings.Builder
	page, paged := 1, false

	flush := func() {
		if current.Len() == 0 {
			return
		}
		node := &doctree.DocNode{Text: current.String()}
		if paged {
			node.Page = page
		}
		tree.Children = append(tree.Children, node)
		current.Reset()
	}

	for scanner.Scan() {
		line := scanner.Text()
		for {
			before, after, found := strings.Cut(line, "\f")
			if !found {
				break
			}
			appendLine(&current, before)
			flush()
			page++
			paged = true
			line = after
		}
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		appendLine(&current, line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "read text")
	}

	// Paragraphs before the first form feed belong to page one.
	if paged {
		for _, n := range tree.Children {
			if n.Page == 0 {
				n.Page = 1
			}
		}
	}
	return tree, nil
}

func appendLine(b *strings.Builder, line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(line)
}
