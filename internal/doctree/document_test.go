package doctree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pagedTree() *DocTree {
	return &DocTree{
		Title: "paper",
		Children: []*DocNode{
			{Text: "Abstract text on page one.", Page: 1},
			{Text: "Methods continue on page one.", Page: 1},
			{Text: "Results appear on page two.", Page: 2},
			{Text: "   ", Page: 3},
			{Text: "Discussion on page four.", Page: 4},
		},
	}
}

func TestFlatten_PageSpans(t *testing.T) {
	doc := Flatten(pagedTree())

	assert.Equal(t, "paper", doc.Title)
	assert.Equal(t, "Abstract text on page one.\n\nMethods continue on page one.\n\n"+
		"Results appear on page two.\n\nDiscussion on page four.", doc.Text)

	require.Len(t, doc.Pages, 3)
	assert.Equal(t, 1, doc.Pages[0].Page)
	assert.Equal(t, 0, doc.Pages[0].Start)
	assert.Equal(t, "Abstract text on page one.\n\nMethods continue on page one.",
		doc.Text[doc.Pages[0].Start:doc.Pages[0].End])
	assert.Equal(t, "Results appear on page two.", doc.Text[doc.Pages[1].Start:doc.Pages[1].End])
	assert.Equal(t, 4, doc.Pages[2].Page)
}

func TestFlatten_HeadingsAndNesting(t *testing.T) {
	tree := &DocTree{
		Title: "doc",
		Children: []*DocNode{
			{Title: "Intro", Text: "Opening words.", Children: []*DocNode{
				{Title: "Background", Text: "Earlier work."},
			}},
			{Title: "Conclusion"},
		},
	}
	doc := Flatten(tree)
	assert.Equal(t, "Intro\n\nOpening words.\n\nBackground\n\nEarlier work.\n\nConclusion", doc.Text)
	assert.Empty(t, doc.Pages)
	assert.Equal(t, 0, doc.PageAt(5))
}

func TestDocument_PageAt(t *testing.T) {
	doc := Flatten(pagedTree())

	assert.Equal(t, 1, doc.PageAt(0))
	assert.Equal(t, 1, doc.PageAt(strings.Index(doc.Text, "Methods")))
	assert.Equal(t, 2, doc.PageAt(strings.Index(doc.Text, "Results")))
	assert.Equal(t, 4, doc.PageAt(strings.Index(doc.Text, "Discussion")))
	assert.Equal(t, 0, doc.PageAt(-1))
}

func TestDocument_Search(t *testing.T) {
	doc := Flatten(pagedTree())

	hits := doc.Search([]string{"page", "RESULTS", "absent", ""}, false)
	assert.Len(t, hits["page"], 4)
	require.Len(t, hits["RESULTS"], 1)
	assert.Equal(t, strings.Index(doc.Text, "Results"), hits["RESULTS"][0].Position)
	assert.Equal(t, 2, hits["RESULTS"][0].Page)
	assert.Contains(t, hits["RESULTS"][0].Context, "Results appear")
	assert.Empty(t, hits["absent"])
	assert.NotContains(t, hits, "")

	sensitive := doc.Search([]string{"RESULTS"}, true)
	assert.Empty(t, sensitive["RESULTS"])
}

func TestDocument_SearchContextIsBounded(t *testing.T) {
	doc := Document{Text: strings.Repeat("é", 150) + "needle" + strings.Repeat("ü", 150)}
	hits := doc.Search([]string{"needle"}, true)
	require.Len(t, hits["needle"], 1)

	ctx := hits["needle"][0].Context
	assert.Contains(t, ctx, "needle")
	assert.LessOrEqual(t, len(ctx), 2*searchContext+len("needle"))
}

func TestDocTree_PageCount(t *testing.T) {
	assert.Equal(t, 4, pagedTree().PageCount())
	assert.Equal(t, 0, (&DocTree{}).PageCount())
}
