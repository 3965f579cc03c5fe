package parser

import (
	"io"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"

	"github.com/dgallion1/quotecheck/internal/doctree"
)

// PDFParser handles PDF files. It tries the Go library first,
// then falls back to pdftotext if enabled.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	// ledongthuc/pdf opens by path.
	tmp, _, cleanup, err := spoolToTemp(r, "quotecheck-pdf-*.pdf")
	if err != nil {
		return nil, err
	}
	defer cleanup()
	path := tmp.Name()

	pages, err := extractPDFPages(path)
	if (err != nil || blank(pages)) && p.FallbackPdftotext {
		pages, err = extractPdftotext(path)
	}
	if err != nil {
		return nil, eris.Wrap(err, "extract pdf text")
	}

	tree := &doctree.DocTree{Title: titleFromFilename(filename)}
	for i, page := range pages {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		tree.Children = append(tree.Children, &doctree.DocNode{Text: page, Page: i + 1})
	}
	return tree, nil
}

// extractPDFPages returns the plain text of each page; unreadable pages are
// left empty so page numbers stay aligned.
func extractPDFPages(path string) ([]string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open pdf")
	}
	defer f.Close()

	pages := make([]string, reader.NumPage())
	for i := range pages {
		page := reader.Page(i + 1)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages[i] = text
	}
	return pages, nil
}

// extractPdftotext runs poppler's pdftotext, which separates pages with form
// feeds.
func extractPdftotext(path string) ([]string, error) {
	out, err := exec.Command("pdftotext", "-layout", path, "-").Output()
	if err != nil {
		return nil, eris.Wrap(err, "pdftotext")
	}
	return strings.Split(strings.TrimSuffix(string(out), "\f"), "\f"), nil
}

func blank(pages []string) bool {
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			return false
		}
	}
	return true
}
