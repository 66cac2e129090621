package doctree

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes an indented outline of the subtree at id, one node per line.
func (t *Tree) Dump(w io.Writer, id ID) error {
	var err error
	var dump func(id ID, depth int)
	dump = func(id ID, depth int) {
		n := t.nodes[id]
		if n == nil || err != nil {
			return
		}
		_, err = fmt.Fprintf(w, "%s%s#%d %s%s\n", strings.Repeat("  ", depth), n.Kind(), n.id, n.BBox(), describe(n))
		for _, c := range n.children {
			dump(c, depth+1)
		}
	}
	dump(id, 0)
	return err
}

func describe(n *Node) string {
	switch d := n.Data.(type) {
	case *Span:
		return fmt.Sprintf(" %q font=%s size=%.1f", d.Text, d.Font, d.Size)
	case *Heading:
		return fmt.Sprintf(" level=%d", d.Level)
	case *Page:
		return fmt.Sprintf(" index=%d", d.Index)
	case *Link:
		return fmt.Sprintf(" uri=%s", d.URI)
	case *Image:
		if d.Format != "" {
			return fmt.Sprintf(" format=%s %dx%d", d.Format, d.PixelWidth, d.PixelHeight)
		}
	}
	if len(n.errors) > 0 {
		return fmt.Sprintf(" errors=%d", len(n.errors))
	}
	return ""
}
