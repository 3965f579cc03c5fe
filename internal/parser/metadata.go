package parser

import (
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rotisserie/eris"
)

// PDFInfo is the document information a PDF declares about itself.
type PDFInfo struct {
	Title     string `json:"title,omitempty" yaml:"title,omitempty"`
	Author    string `json:"author,omitempty" yaml:"author,omitempty"`
	PageCount int    `json:"page_count" yaml:"page_count"`
}

// PDFMetadata validates the PDF at path and reads its info dictionary.
func PDFMetadata(path string) (*PDFInfo, error) {
	if err := api.ValidateFile(path, model.NewDefaultConfiguration()); err != nil {
		return nil, eris.Wrap(err, "parser: validate pdf")
	}
	ctx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "parser: read pdf context")
	}
	return &PDFInfo{
		Title:     ctx.Title,
		Author:    ctx.Author,
		PageCount: ctx.PageCount,
	}, nil
}
