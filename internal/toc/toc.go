// Package toc turns a compiled-help table of contents (.hhc) into a forest
// of topics. The .hhc markup is rarely well formed: closing tags go missing,
// entities appear unescaped and lists nest without parents. Build never
// fails on any of that; it returns the best forest it can.
package toc

import (
	"fmt"
	"iter"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/markup"
	apperrors "github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/errors"
)

// TopicNode is one entry in the table of contents. Target is the rooted
// archive path the topic opens, or "" for a grouping node.
type TopicNode struct {
	Title    string      `json:"title"`
	Target   string      `json:"target,omitempty"`
	Children []TopicNode `json:"children"`
}

// HasTarget reports whether the node opens a page.
func (n TopicNode) HasTarget() bool {
	return n.Target != ""
}

// Parse decodes raw .hhc bytes and builds the forest. It fails only when the
// bytes are not text under UTF-8 or Windows-1252.
func Parse(data []byte) ([]TopicNode, error) {
	html, _, err := markup.DecodeText(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrTOCParseFailed, err)
	}
	return ParseHTML(html), nil
}

// ParseHTML builds the forest from already decoded .hhc markup.
func ParseHTML(html string) []TopicNode {
	return Build(markup.ScanTags(html))
}

// Build runs the tree-building state machine over a tag stream.
//
// The stack holds the sibling list under construction at every open <ul>;
// its bottom is the result. Closing a list hands it to the last node of the
// enclosing list as that node's children. An <object> collects Name/Local
// params and becomes a node on </object>.
func Build(tags iter.Seq[markup.Tag]) []TopicNode {
	b := newBuilder()
	for tag := range tags {
		b.handle(tag)
	}
	return b.finish()
}

type builder struct {
	stack    [][]TopicNode
	inObject bool
	name     string
	hasName  bool
	local    string
}

func newBuilder() *builder {
	return &builder{stack: [][]TopicNode{nil}}
}

func (b *builder) handle(tag markup.Tag) {
	switch {
	case tag.HasPrefix("/ul"):
		b.closeList()
	case tag.HasPrefix("ul"):
		b.stack = append(b.stack, nil)
	case tag.HasPrefix("/object"):
		b.closeObject()
	case tag.HasPrefix("object"):
		b.inObject = true
		b.name, b.hasName, b.local = "", false, ""
	case b.inObject && tag.HasPrefix("param"):
		b.param(markup.ParseAttributes(tag.Raw))
	}
}

func (b *builder) param(attrs map[string]string) {
	value := attrs["value"]
	switch strings.ToLower(attrs["name"]) {
	case "name":
		b.name = markup.DecodeEntities(value)
		b.hasName = true
	case "local":
		// Paths are kept raw; decoding "&amp;" in a file name would point
		// at an entry that does not exist.
		b.local = value
	}
}

func (b *builder) closeObject() {
	if b.inObject && b.hasName {
		node := TopicNode{Title: b.name}
		if b.local != "" {
			node.Target = rootPath(b.local)
		}
		top := len(b.stack) - 1
		b.stack[top] = append(b.stack[top], node)
	}
	b.inObject = false
	b.name, b.hasName, b.local = "", false, ""
}

// closeList attaches the finished list to the last node one level up. A node
// followed by several lists keeps the children of all of them.
func (b *builder) closeList() {
	if len(b.stack) < 2 {
		return
	}
	children := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	top := len(b.stack) - 1
	siblings := b.stack[top]
	if len(siblings) == 0 {
		b.stack[top] = append(siblings, children...)
		return
	}
	parent := siblings[len(siblings)-1]
	siblings = siblings[:len(siblings)-1]
	parent.Children = append(parent.Children, children...)
	b.stack[top] = append(siblings, parent)
}

func (b *builder) finish() []TopicNode {
	for len(b.stack) > 1 {
		children := b.stack[len(b.stack)-1]
		b.stack = b.stack[:len(b.stack)-1]
		top := len(b.stack) - 1
		b.stack[top] = append(b.stack[top], children...)
	}
	forest := prune(b.stack[0])
	if forest == nil {
		return []TopicNode{}
	}
	return forest
}

// prune drops nodes that have neither a target nor, after pruning, any
// children. Such a node carries no navigable information.
func prune(nodes []TopicNode) []TopicNode {
	var out []TopicNode
	for _, n := range nodes {
		n.Children = prune(n.Children)
		if n.Target == "" && len(n.Children) == 0 {
			continue
		}
		if n.Children == nil {
			n.Children = []TopicNode{}
		}
		out = append(out, n)
	}
	return out
}

func rootPath(p string) string {
	if strings.HasPrefix(p, "/") {
		return p
	}
	return "/" + p
}
