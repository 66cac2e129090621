package report

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

var ErrUnknownFormat = errors.New("unknown report format")

// Writer renders a report to its destination and returns the number of
// bytes written.
type Writer interface {
	Write(r *Report) (int, error)
}

// Formats lists the names accepted by NewWriter.
var Formats = []string{"text", "json", "markdown", "html"}

// NewWriter returns the writer for format.
func NewWriter(format string, output io.Writer) (Writer, error) {
	switch strings.ToLower(format) {
	case "text", "":
		return NewTextWriter(output), nil
	case "json":
		return NewJSONWriter(output, WithPrettyPrint()), nil
	case "markdown", "md":
		return NewMarkdownWriter(output), nil
	case "html":
		return NewHTMLWriter(output), nil
	}
	return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownFormat, format, strings.Join(Formats, ", "))
}

// ContentType returns the MIME type of a format's output.
func ContentType(format string) string {
	switch strings.ToLower(format) {
	case "json":
		return "application/json"
	case "markdown", "md":
		return "text/markdown; charset=utf-8"
	case "html":
		return "text/html; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

// IsFormat reports whether NewWriter accepts format.
func IsFormat(format string) bool {
	f := strings.ToLower(format)
	return slices.Contains(Formats, f) || f == "md"
}

type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// TextWriter prints one line per violation, for terminals.
type TextWriter struct {
	baseWriter
}

func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{baseWriter: newBaseWriter(output)}
}

func (w *TextWriter) Write(r *Report) (int, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d page(s), %d violation(s)\n", r.Filename, r.Pages, len(r.Violations))
	for _, v := range r.Violations {
		b.WriteString("  ")
		b.WriteString(v.String())
		b.WriteByte('\n')
	}
	return io.WriteString(w.output, b.String())
}
