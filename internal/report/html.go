package report

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// HTMLWriter renders the Markdown report to a standalone HTML page.
type HTMLWriter struct {
	baseWriter
	md goldmark.Markdown
}

func NewHTMLWriter(output io.Writer) *HTMLWriter {
	return &HTMLWriter{
		baseWriter: newBaseWriter(output),
		md:         goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

func (w *HTMLWriter) Write(r *Report) (int, error) {
	src, err := renderMarkdown(r)
	if err != nil {
		return 0, fmt.Errorf("render markdown: %w", err)
	}
	var body bytes.Buffer
	if err := w.md.Convert([]byte(src), &body); err != nil {
		return 0, fmt.Errorf("convert markdown: %w", err)
	}

	var page bytes.Buffer
	fmt.Fprintf(&page, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n", html.EscapeString(r.Filename))
	page.WriteString("<style>body{font-family:sans-serif;max-width:960px;margin:2em auto}table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:4px 8px}</style>\n")
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return w.output.Write(page.Bytes())
}
