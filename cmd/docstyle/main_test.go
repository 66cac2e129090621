package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/docstyle/internal/config"
	"github.com/dgallion1/docstyle/internal/doctree"
	"github.com/dgallion1/docstyle/internal/parser"
)

// writeDump writes an extraction dump of one justified paragraph set in
// font and returns its path.
func writeDump(t *testing.T, dir, name, font string) string {
	t.Helper()
	left, right := doctree.MM(30), 595-doctree.MM(20)
	span := func(text string, x0, y0, x1 float64) parser.Span {
		return parser.Span{Text: text, Font: font, Size: 14, BBox: doctree.NewBBox(x0, y0, x1, y0+14)}
	}
	box := doctree.NewBBox(left, 100, right, 156)
	page := &parser.Page{
		Width:  595,
		Height: 842,
		Blocks: []*parser.Block{{
			Type: parser.BlockText,
			BBox: &box,
			Lines: []parser.Line{
				{Spans: []parser.Span{span("Первая строка абзаца ", left+doctree.CM(1.25), 100, right)}},
				{Spans: []parser.Span{span("вторая строка абзаца ", left, 121, right)}},
				{Spans: []parser.Span{span("конец.", left, 142, 300)}},
			},
		}},
	}
	data, err := json.Marshal(&parser.Document{Pages: []*parser.Page{page}})
	if err != nil {
		t.Fatalf("marshal dump: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write dump: %v", err)
	}
	return path
}

// run executes the root command with args in an empty working directory.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCheck_TextReport(t *testing.T) {
	path := writeDump(t, t.TempDir(), "thesis.json", "ArialMT")
	out, _, err := run(t, "check", path)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out, "thesis.json: 1 page(s), 3 violation(s)") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if strings.Count(out, "[FONT]") != 3 {
		t.Errorf("expected 3 FONT lines:\n%s", out)
	}
}

func TestCheck_FailFlag(t *testing.T) {
	dir := t.TempDir()
	bad := writeDump(t, dir, "bad.json", "ArialMT")
	good := writeDump(t, dir, "good.json", "TimesNewRomanPSMT")

	if _, _, err := run(t, "check", "--fail", bad); !errors.Is(err, errViolations) {
		t.Errorf("expected errViolations, got %v", err)
	}
	if _, _, err := run(t, "check", "--fail", good); err != nil {
		t.Errorf("clean file should pass, got %v", err)
	}
	if _, _, err := run(t, "check", bad); err != nil {
		t.Errorf("findings without --fail should not error, got %v", err)
	}
}

func TestCheck_ContinuesAfterBadFile(t *testing.T) {
	dir := t.TempDir()
	good := writeDump(t, dir, "good.json", "TimesNewRomanPSMT")
	out, stderr, err := run(t, "check", filepath.Join(dir, "missing.json"), good)
	if err == nil {
		t.Fatal("expected an error for the missing file")
	}
	if !strings.Contains(stderr, "missing.json") {
		t.Errorf("expected the missing file on stderr, got %q", stderr)
	}
	if !strings.Contains(out, "good.json: 1 page(s), 0 violation(s)") {
		t.Errorf("second file should still be checked:\n%s", out)
	}
}

func TestCheck_JSONFormatAndOutput(t *testing.T) {
	dir := t.TempDir()
	path := writeDump(t, dir, "thesis.json", "ArialMT")
	reportPath := filepath.Join(dir, "report.json")
	if _, _, err := run(t, "check", "-f", "json", "-o", reportPath, path); err != nil {
		t.Fatalf("check: %v", err)
	}
	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var rep struct {
		Standard string         `json:"standard"`
		Counts   map[string]int `json:"counts"`
	}
	if err := json.Unmarshal(data, &rep); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if rep.Counts["FONT"] != 3 || rep.Standard != config.DefaultStandard().Name {
		t.Errorf("unexpected report %+v", rep)
	}
}

func TestCheck_UnknownFormat(t *testing.T) {
	path := writeDump(t, t.TempDir(), "thesis.json", "ArialMT")
	if _, _, err := run(t, "check", "-f", "pdf", path); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestCheck_NotPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	if err := os.WriteFile(path, []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := run(t, "check", path); !errors.Is(err, parser.ErrNotPDF) {
		t.Errorf("expected ErrNotPDF, got %v", err)
	}
}

func TestCheck_StandardDisablesRule(t *testing.T) {
	dir := t.TempDir()
	path := writeDump(t, dir, "thesis.json", "ArialMT")
	stdPath := filepath.Join(dir, "std.yaml")
	if err := os.WriteFile(stdPath, []byte("name: relaxed\ndisabled: [font]\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	out, _, err := run(t, "check", "--standard", stdPath, path)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out, "0 violation(s)") {
		t.Errorf("expected font rule disabled:\n%s", out)
	}
}

func TestCheck_SaveAndHistory(t *testing.T) {
	dir := t.TempDir()
	path := writeDump(t, dir, "thesis.json", "ArialMT")
	db := filepath.Join(dir, "history.db")
	if _, _, err := run(t, "check", "--save", "--db", db, path); err != nil {
		t.Fatalf("check: %v", err)
	}
	out, _, err := run(t, "history", "--db", db)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "thesis.json") || !strings.Contains(out, "3 violation(s)") {
		t.Errorf("unexpected history:\n%s", out)
	}
}

func TestTree(t *testing.T) {
	path := writeDump(t, t.TempDir(), "thesis.json", "TimesNewRomanPSMT")
	out, _, err := run(t, "tree", path)
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	for _, want := range []string{"document#", "  page#", "paragraph#", "font=TimesNewRomanPSMT"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestStandard_PrintsDefaults(t *testing.T) {
	out, _, err := run(t, "standard")
	if err != nil {
		t.Fatalf("standard: %v", err)
	}
	std, err := config.ParseStandard(strings.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a valid standard: %v", err)
	}
	if std.Name != config.DefaultStandard().Name {
		t.Errorf("Name = %q", std.Name)
	}
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "docstyle version ") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()
	for _, name := range []string{"check", "tree", "standard", "history", "version"} {
		if sub, _, err := cmd.Find([]string{name}); err != nil || sub.Name() != name {
			t.Errorf("missing subcommand %q", name)
		}
	}
}
