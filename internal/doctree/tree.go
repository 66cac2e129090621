package doctree

import (
	"slices"
	"strings"

	"github.com/dgallion1/docstyle/internal/violation"
)

// Tree is the node arena for one document. It is not safe for concurrent
// mutation; build it on one goroutine and share it read-only afterwards.
type Tree struct {
	ids   *IDGenerator
	nodes map[ID]*Node
	root  ID
	pages []ID
}

// NewTree creates a tree with a Document root. A nil generator gets a fresh one.
func NewTree(ids *IDGenerator) *Tree {
	if ids == nil {
		ids = NewIDGenerator()
	}
	t := &Tree{ids: ids, nodes: make(map[ID]*Node)}
	t.root = t.NewNode(&Document{}, nil)
	return t
}

// Root returns the Document node's ID.
func (t *Tree) Root() ID { return t.root }

// Len returns the number of nodes in the arena, detached ones included.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns the node for id, or nil.
func (t *Tree) Node(id ID) *Node { return t.nodes[id] }

// NewNode allocates a detached node.
func (t *Tree) NewNode(d Data, orig any) ID {
	id := t.ids.Next()
	t.nodes[id] = &Node{id: id, Data: d, Orig: orig}
	return id
}

// AddPage appends a Page node under the root and indexes it.
func (t *Tree) AddPage(p *Page, orig any) ID {
	id := t.NewNode(p, orig)
	t.AppendChild(t.root, id)
	t.pages = append(t.pages, id)
	return id
}

// Pages returns the page IDs in document order.
func (t *Tree) Pages() []ID { return t.pages }

// PageCount returns the number of pages.
func (t *Tree) PageCount() int { return len(t.pages) }

// Children returns the ordered child IDs of id.
func (t *Tree) Children(id ID) []ID {
	if n := t.nodes[id]; n != nil {
		return n.children
	}
	return nil
}

// Parent returns the parent of id.
func (t *Tree) Parent(id ID) ID {
	if n := t.nodes[id]; n != nil {
		return n.parent
	}
	return NoID
}

// Kind returns the variant of id, or zero for an unknown node.
func (t *Tree) Kind(id ID) Kind {
	if n := t.nodes[id]; n != nil {
		return n.Kind()
	}
	return 0
}

// BBox returns the bounding box of id.
func (t *Tree) BBox(id ID) BBox {
	if n := t.nodes[id]; n != nil {
		return n.BBox()
	}
	return BBox{}
}

// AppendChild appends child to parent's children. A child that already has a
// parent is detached from it first.
func (t *Tree) AppendChild(parent, child ID) {
	p, c := t.nodes[parent], t.nodes[child]
	if p == nil || c == nil {
		return
	}
	if c.parent != NoID {
		t.RemoveChild(c.parent, child)
	}
	p.children = append(p.children, child)
	c.parent = parent
}

// ReplaceChild swaps old for repl at the same position. The old node is
// detached but stays in the arena. It reports whether old was a child.
func (t *Tree) ReplaceChild(parent, old, repl ID) bool {
	p, o, r := t.nodes[parent], t.nodes[old], t.nodes[repl]
	if p == nil || o == nil || r == nil {
		return false
	}
	i := slices.Index(p.children, old)
	if i < 0 {
		return false
	}
	if r.parent != NoID {
		t.RemoveChild(r.parent, repl)
		i = slices.Index(p.children, old)
	}
	p.children[i] = repl
	r.parent = parent
	o.parent = NoID
	return true
}

// RemoveChild detaches child from parent. It reports whether child was found.
func (t *Tree) RemoveChild(parent, child ID) bool {
	p, c := t.nodes[parent], t.nodes[child]
	if p == nil || c == nil {
		return false
	}
	i := slices.Index(p.children, child)
	if i < 0 {
		return false
	}
	p.children = slices.Delete(p.children, i, i+1)
	c.parent = NoID
	return true
}

// MoveChildren appends every child of from to to, preserving order.
func (t *Tree) MoveChildren(from, to ID) {
	f := t.nodes[from]
	if f == nil || t.nodes[to] == nil {
		return
	}
	moved := slices.Clone(f.children)
	for _, c := range moved {
		t.AppendChild(to, c)
	}
}

// NextSibling returns the sibling after id, or NoID.
func (t *Tree) NextSibling(id ID) ID {
	siblings := t.Children(t.Parent(id))
	i := slices.Index(siblings, id)
	if i < 0 || i+1 >= len(siblings) {
		return NoID
	}
	return siblings[i+1]
}

// PrevSibling returns the sibling before id, or NoID.
func (t *Tree) PrevSibling(id ID) ID {
	siblings := t.Children(t.Parent(id))
	i := slices.Index(siblings, id)
	if i <= 0 {
		return NoID
	}
	return siblings[i-1]
}

// NearestAncestor walks up from id's parent and returns the first node whose
// kind is one of kinds.
func (t *Tree) NearestAncestor(id ID, kinds ...Kind) ID {
	for cur := t.Parent(id); cur != NoID; cur = t.Parent(cur) {
		if slices.Contains(kinds, t.Kind(cur)) {
			return cur
		}
	}
	return NoID
}

// PageOf returns the page containing id, or id itself when it is a page.
func (t *Tree) PageOf(id ID) ID {
	if t.Kind(id) == KindPage {
		return id
	}
	return t.NearestAncestor(id, KindPage)
}

// PageIndex returns the 0-based index of the page containing id, or -1.
func (t *Tree) PageIndex(id ID) int {
	if n := t.nodes[t.PageOf(id)]; n != nil {
		return n.Data.(*Page).Index
	}
	return -1
}

// Walk visits id and its descendants in pre-order. Returning false from fn
// skips the node's children.
func (t *Tree) Walk(id ID, fn func(*Node) bool) {
	n := t.nodes[id]
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		t.Walk(c, fn)
	}
}

// Spans returns the Span descendants of id in document order, including
// spans nested under links.
func (t *Tree) Spans(id ID) []*Span {
	var out []*Span
	t.Walk(id, func(n *Node) bool {
		if s, ok := n.Data.(*Span); ok {
			out = append(out, s)
		}
		return true
	})
	return out
}

// Lines returns the direct Line children of id.
func (t *Tree) Lines(id ID) []ID {
	var out []ID
	for _, c := range t.Children(id) {
		if t.Kind(c) == KindLine {
			out = append(out, c)
		}
	}
	return out
}

// LineText concatenates the span texts of a line.
func (t *Tree) LineText(id ID) string {
	var b strings.Builder
	for _, s := range t.Spans(id) {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Text returns the visible text of a block: span texts joined within a line,
// lines joined with a single space, trimmed. For a node without line
// children it concatenates its spans.
func (t *Tree) Text(id ID) string {
	lines := t.Lines(id)
	if len(lines) == 0 {
		return strings.TrimSpace(t.LineText(id))
	}
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = t.LineText(l)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// Attach records a violation on node id.
func (t *Tree) Attach(id ID, v violation.Violation) {
	if n := t.nodes[id]; n != nil {
		n.errors = append(n.errors, v)
	}
}

// Violation builds a violation anchored at id, filling in the node
// reference, page index and bounding box.
func (t *Tree) Violation(id ID, cat violation.Category, msg string) violation.Violation {
	v := violation.Violation{Message: msg, Category: cat, Page: t.PageIndex(id)}
	if n := t.nodes[id]; n != nil {
		v.Node = n.Ref()
		v.BBox = n.BBox().Array()
	}
	return v
}

// Violations collects every attached violation in tree order.
func (t *Tree) Violations() []violation.Violation {
	var out []violation.Violation
	t.Walk(t.root, func(n *Node) bool {
		out = append(out, n.errors...)
		return true
	})
	return out
}
