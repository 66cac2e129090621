package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// PrimitivesParser reads an extraction dump: a JSON Document with pages of
// blocks, lines and spans. Image payloads are base64 strings.
type PrimitivesParser struct{}

func (p *PrimitivesParser) Parse(r io.Reader, filename string) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode primitives %s: %w", filename, err)
	}
	for i, page := range doc.Pages {
		if page == nil {
			return nil, fmt.Errorf("decode primitives %s: page %d is null", filename, i)
		}
		page.Index = i
		normalizePage(page)
	}
	return &doc, nil
}

// normalizePage applies NFC to span text and font names so matching does
// not depend on how the backend composed characters.
func normalizePage(p *Page) {
	for _, b := range p.Blocks {
		if b == nil {
			continue
		}
		for li := range b.Lines {
			spans := b.Lines[li].Spans
			for si := range spans {
				spans[si].Text = norm.NFC.String(spans[si].Text)
				spans[si].Font = norm.NFC.String(strings.TrimSpace(spans[si].Font))
			}
		}
	}
	for k, v := range p.FontNames {
		p.FontNames[k] = norm.NFC.String(v)
	}
}
