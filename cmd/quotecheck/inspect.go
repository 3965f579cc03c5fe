package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgallion1/quotecheck/internal/doctree"
	"github.com/dgallion1/quotecheck/internal/parser"
	"github.com/dgallion1/quotecheck/internal/textnorm"
)

var (
	inspectSearch        []string
	inspectCaseSensitive bool
	inspectFormat        string
)

// Inspection summarizes what the parser extracted from a document.
type Inspection struct {
	File        string                   `json:"file" yaml:"file"`
	Title       string                   `json:"title" yaml:"title"`
	Author      string                   `json:"author,omitempty" yaml:"author,omitempty"`
	Pages       int                      `json:"pages" yaml:"pages"`
	Characters  int                      `json:"characters" yaml:"characters"`
	Sentences   int                      `json:"sentences" yaml:"sentences"`
	Numbers     []float64                `json:"numbers" yaml:"numbers"`
	Percentages []float64                `json:"percentages" yaml:"percentages"`
	Units       []string                 `json:"units" yaml:"units"`
	Search      map[string][]doctree.Hit `json:"search,omitempty" yaml:"search,omitempty"`
}

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Show the text, numbers and units extracted from a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(inspectFormat); err != nil {
			return err
		}
		tree, doc, err := loadDocument(args[0])
		if err != nil {
			return err
		}
		info := inspect(args[0], tree, doc)
		if strings.EqualFold(filepath.Ext(args[0]), ".pdf") {
			if meta, err := parser.PDFMetadata(args[0]); err != nil {
				zap.L().Warn("pdf metadata unavailable", zap.Error(err))
			} else {
				if meta.Title != "" {
					info.Title = meta.Title
				}
				info.Author = meta.Author
				info.Pages = max(info.Pages, meta.PageCount)
			}
		}

		if inspectFormat != "text" {
			return writeValue(cmd.OutOrStdout(), inspectFormat, info)
		}
		printInspection(cmd.OutOrStdout(), info)
		return nil
	},
}

func inspect(file string, tree *doctree.DocTree, doc doctree.Document) Inspection {
	info := Inspection{
		File:        file,
		Title:       doc.Title,
		Pages:       tree.PageCount(),
		Characters:  len([]rune(doc.Text)),
		Sentences:   len(resources.Splitter.Split(doc.Text)),
		Numbers:     textnorm.ExtractNumbers(doc.Text),
		Percentages: textnorm.ExtractPercentages(doc.Text),
		Units:       textnorm.ExtractUnits(doc.Text, resources.Units),
	}
	if len(inspectSearch) > 0 {
		info.Search = doc.Search(inspectSearch, inspectCaseSensitive)
	}
	return info
}

func printInspection(w io.Writer, info Inspection) {
	headerColor.Fprintln(w, info.Title)
	if info.Author != "" {
		fmt.Fprintf(w, "author      %s\n", info.Author)
	}
	fmt.Fprintf(w, "pages       %d\n", info.Pages)
	fmt.Fprintf(w, "characters  %d\n", info.Characters)
	fmt.Fprintf(w, "sentences   %d\n", info.Sentences)
	fmt.Fprintf(w, "numbers     %d\n", len(info.Numbers))
	fmt.Fprintf(w, "percentages %v\n", info.Percentages)
	fmt.Fprintf(w, "units       %s\n", strings.Join(info.Units, " "))

	for _, term := range inspectSearch {
		hits := info.Search[term]
		emphasisText.Fprintf(w, "\n%q: %d hit(s)\n", term, len(hits))
		for _, h := range hits {
			ctx := textnorm.Highlight(textnorm.Clean(h.Context), term, "**")
			if h.Page > 0 {
				dimColor.Fprintf(w, "  p.%d ", h.Page)
			} else {
				dimColor.Fprint(w, "  ")
			}
			fmt.Fprintf(w, "@%d %s\n", h.Position, ctx)
		}
	}
}

func init() {
	inspectCmd.Flags().StringSliceVar(&inspectSearch, "search", nil, "terms to locate in the text")
	inspectCmd.Flags().BoolVar(&inspectCaseSensitive, "case-sensitive", false, "match search terms exactly")
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "text", "output format: text, json or yaml")
	rootCmd.AddCommand(inspectCmd)
}
