package report

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/dgallion1/docstyle/internal/violation"
)

// MarkdownWriter outputs reports as GitHub-flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

func (w *MarkdownWriter) Write(r *Report) (int, error) {
	md := markdown.NewMarkdown(w.output)
	writeMarkdown(md, r)
	return len(md.String()), md.Build()
}

// renderMarkdown returns the Markdown text of r.
func renderMarkdown(r *Report) (string, error) {
	md := markdown.NewMarkdown(io.Discard)
	writeMarkdown(md, r)
	return md.String(), md.Error()
}

func writeMarkdown(md *markdown.Markdown, r *Report) {
	writeHeader(md, r)
	writeSummary(md, r)
	writeFindings(md, r)
}

func writeHeader(md *markdown.Markdown, r *Report) {
	md.H1("Formatting Report")
	md.PlainText("")

	rows := [][]string{
		{"File", cell(r.Filename)},
		{"BLAKE3", markdown.Code(r.Hash)},
		{"Pages", strconv.Itoa(r.Pages)},
		{"Checked", r.CreatedAt.Format("2006-01-02 15:04:05 MST")},
	}
	if r.Standard != "" {
		rows = append(rows, []string{"Standard", cell(r.Standard)})
	}
	md.Table(markdown.TableSet{Header: []string{"Property", "Value"}, Rows: rows})
	md.PlainText("")
}

func writeSummary(md *markdown.Markdown, r *Report) {
	md.H2("Summary")
	md.PlainText("")

	if r.Clean() {
		md.Tip("No formatting violations found.")
		md.PlainText("")
		return
	}

	var rows [][]string
	for _, c := range violation.Categories() {
		if n := r.Counts[c]; n > 0 {
			rows = append(rows, []string{c.String(), strconv.Itoa(n)})
		}
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(len(r.Violations)) + "**"})
	md.Table(markdown.TableSet{
		Header:    []string{"Category", "Count"},
		Rows:      rows,
		Alignment: []markdown.TableAlignment{markdown.AlignLeft, markdown.AlignRight},
	})
	md.PlainText("")
	md.Warningf("%d formatting violation(s) on %d page(s).", len(r.Violations), len(violation.ByPage(r.Violations)))
	md.PlainText("")
}

func writeFindings(md *markdown.Markdown, r *Report) {
	if r.Clean() {
		return
	}
	byPage := violation.ByPage(r.Violations)
	for _, page := range slices.Sorted(maps.Keys(byPage)) {
		if page < 0 {
			md.H2("Document")
		} else {
			md.H2f("Page %d", page+1)
		}
		md.PlainText("")

		vs := byPage[page]
		rows := make([][]string, len(vs))
		for i, v := range vs {
			rows[i] = []string{
				fmt.Sprintf("%s #%d", v.Node.Kind, v.Node.ID),
				v.Category.String(),
				cell(v.Message),
				orDash(v.Expected),
				orDash(v.Found),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Node", "Category", "Message", "Expected", "Found"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

// cell escapes text for a table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return cell(s)
}
