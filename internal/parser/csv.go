package parser

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/dgallion1/quotecheck/internal/doctree"
)

// csvRowsPerNode groups data rows so a table does not become one node per row.
const csvRowsPerNode = 20

// CSVParser handles CSV files. Each row is rendered as "header: value" pairs
// so quotes that cite a table cell can still be found.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "parse csv")
	}

	tree := &doctree.DocTree{Title: titleFromFilename(filename)}
	if len(records) == 0 {
		return tree, nil
	}

	headers, rows := records[0], records[1:]
	for i := 0; i < len(rows); i += csvRowsPerNode {
		batch := rows[i:min(i+csvRowsPerNode, len(rows))]

		var text strings.Builder
		for _, row := range batch {
			cells := make([]string, len(row))
			for j, cell := range row {
				if j < len(headers) && headers[j] != "" {
					cells[j] = headers[j] + ": " + cell
				} else {
					cells[j] = cell
				}
			}
			text.WriteString(strings.Join(cells, ", "))
			text.WriteString("\n")
		}
		tree.Children = append(tree.Children, &doctree.DocNode{Text: text.String()})
	}

	return tree, nil
}
