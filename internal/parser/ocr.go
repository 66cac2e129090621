//go:build ocr

package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// OCRParser recognises a scanned page image with Tesseract and reads the
// resulting hOCR. It requires Tesseract to be installed and the "ocr" build
// tag.
type OCRParser struct {
	// Language is a "+"-separated Tesseract language list, e.g. "rus+eng".
	Language string
	// DPI of the scan, used when Tesseract reports no scan_res.
	DPI float64
}

func (p *OCRParser) Parse(r io.Reader, filename string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if p.Language != "" {
		if err := client.SetLanguage(strings.Split(p.Language, "+")...); err != nil {
			return nil, fmt.Errorf("set OCR language: %w", err)
		}
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}
	out, err := client.HOCRText()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	dpi := p.DPI
	if dpi <= 0 {
		dpi = 300
	}
	doc, err := (&HOCRParser{DPI: dpi}).Parse(strings.NewReader(out), filename)
	if err != nil {
		return nil, err
	}
	for _, page := range doc.Pages {
		page.Images = append(page.Images, data)
	}
	return doc, nil
}
