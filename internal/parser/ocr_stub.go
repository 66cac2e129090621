//go:build !ocr

package parser

import "io"

// OCRParser is the stub used without the "ocr" build tag.
type OCRParser struct {
	Language string
	DPI      float64
}

func (p *OCRParser) Parse(r io.Reader, filename string) (*Document, error) {
	return nil, ErrOCRNotEnabled
}
