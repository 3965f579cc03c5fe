package parser

import (
	"strings"

	"github.com/dgallion1/quotecheck/internal/doctree"
)

// outline builds a section tree from a flat stream of headings and text
// blocks. Text attaches to the most recent heading; a heading nests under the
// nearest earlier heading of a lower level.
type outline struct {
	root    *doctree.DocNode
	stack   []outlineEntry
	pending strings.Builder
}

type outlineEntry struct {
	node  *doctree.DocNode
	level int
}

func newOutline(title string) *outline {
	root := &doctree.DocNode{Title: title}
	return &outline{root: root, stack: []outlineEntry{{node: root, level: 0}}}
}

func (o *outline) heading(title string, level int) {
	o.flush()
	node := &doctree.DocNode{Title: title}
	for len(o.stack) > 1 && o.stack[len(o.stack)-1].level >= level {
		o.stack = o.stack[:len(o.stack)-1]
	}
	parent := o.stack[len(o.stack)-1].node
	parent.Children = append(parent.Children, node)
	o.stack = append(o.stack, outlineEntry{node: node, level: level})
}

func (o *outline) text(t string) {
	if t == "" {
		return
	}
	if o.pending.Len() > 0 {
		o.pending.WriteString("\n\n")
	}
	o.pending.WriteString(t)
}

func (o *outline) flush() {
	t := strings.TrimSpace(o.pending.String())
	o.pending.Reset()
	if t == "" {
		return
	}
	top := o.stack[len(o.stack)-1].node
	if top.Text != "" {
		top.Text += "\n\n" + t
	} else {
		top.Text = t
	}
}

// tree finishes the outline. Text seen before the first heading becomes a
// leading node of its own.
func (o *outline) tree(title string) *doctree.DocTree {
	o.flush()
	t := &doctree.DocTree{Title: title}
	if o.root.Text != "" {
		t.Children = append(t.Children, &doctree.DocNode{Text: o.root.Text})
	}
	t.Children = append(t.Children, o.root.Children...)
	return t
}
