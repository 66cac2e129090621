package doctree

// Visitor handles each node variant. Embed BaseVisitor to implement only the
// methods you need.
type Visitor interface {
	VisitDocument(n *Node, d *Document)
	VisitPage(n *Node, d *Page)
	VisitParagraph(n *Node, d *Paragraph)
	VisitHeading(n *Node, d *Heading)
	VisitPageNumber(n *Node, d *PageNumber)
	VisitTable(n *Node, d *Table)
	VisitImage(n *Node, d *Image)
	VisitLine(n *Node, d *Line)
	VisitLink(n *Node, d *Link)
	VisitSpan(n *Node, d *Span)
}

// BaseVisitor ignores every node.
type BaseVisitor struct{}

func (BaseVisitor) VisitDocument(*Node, *Document)     {}
func (BaseVisitor) VisitPage(*Node, *Page)             {}
func (BaseVisitor) VisitParagraph(*Node, *Paragraph)   {}
func (BaseVisitor) VisitHeading(*Node, *Heading)       {}
func (BaseVisitor) VisitPageNumber(*Node, *PageNumber) {}
func (BaseVisitor) VisitTable(*Node, *Table)           {}
func (BaseVisitor) VisitImage(*Node, *Image)           {}
func (BaseVisitor) VisitLine(*Node, *Line)             {}
func (BaseVisitor) VisitLink(*Node, *Link)             {}
func (BaseVisitor) VisitSpan(*Node, *Span)             {}

// Accept dispatches n to the matching visitor method.
func Accept(n *Node, v Visitor) {
	switch d := n.Data.(type) {
	case *Document:
		v.VisitDocument(n, d)
	case *Page:
		v.VisitPage(n, d)
	case *Paragraph:
		v.VisitParagraph(n, d)
	case *Heading:
		v.VisitHeading(n, d)
	case *PageNumber:
		v.VisitPageNumber(n, d)
	case *Table:
		v.VisitTable(n, d)
	case *Image:
		v.VisitImage(n, d)
	case *Line:
		v.VisitLine(n, d)
	case *Link:
		v.VisitLink(n, d)
	case *Span:
		v.VisitSpan(n, d)
	}
}

// Traverse calls Accept on id and every descendant in pre-order.
func (t *Tree) Traverse(id ID, v Visitor) {
	t.Walk(id, func(n *Node) bool {
		Accept(n, v)
		return true
	})
}
