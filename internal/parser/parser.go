package parser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for file extensions no backend handles.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrNotPDF is returned when a .pdf upload lacks the %PDF header.
	ErrNotPDF = errors.New("file is not a PDF")
	// ErrOCRNotEnabled is returned when image input is parsed but OCR
	// support was not compiled in. Rebuild with -tags ocr to enable it.
	ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")
)

// Parser extracts raw layout primitives from document bytes.
type Parser interface {
	Parse(r io.Reader, filename string) (*Document, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".json": true,
	".pdf":  true,
	".hocr": true,
	".html": true,
	".htm":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		return &PrimitivesParser{}, nil
	case ".pdf":
		return &PDFParser{}, nil
	case ".hocr", ".html", ".htm":
		return &HOCRParser{}, nil
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff":
		return &OCRParser{Language: "rus+eng"}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// CheckMagic verifies the leading bytes of a file match its extension.
// Only PDFs are checked.
func CheckMagic(filename string, head []byte) error {
	if strings.ToLower(filepath.Ext(filename)) != ".pdf" {
		return nil
	}
	if !strings.HasPrefix(string(head), "%PDF") {
		return ErrNotPDF
	}
	return nil
}
