package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/docstyle/internal/checker"
	"github.com/dgallion1/docstyle/internal/config"
	"github.com/dgallion1/docstyle/internal/doctree"
	"github.com/dgallion1/docstyle/internal/parser"
	"github.com/dgallion1/docstyle/internal/pipeline"
	"github.com/dgallion1/docstyle/internal/store"
)

// dump returns an extraction dump of one justified paragraph set in font.
func dump(t *testing.T, font string) []byte {
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
	return data
}

type testServer struct {
	*httptest.Server
	orch  *pipeline.Orchestrator
	store *store.Store
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()
	cfg := config.Config{
		WorkerCount:    1,
		MaxQueueSize:   4,
		MaxUploadBytes: 1 << 20,
		JobTTL:         time.Hour,
		StatsWindow:    time.Hour,
		History:        true,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	chk := checker.Default()
	var (
		history pipeline.History
		reports Reports
		st      *store.Store
	)
	if cfg.History {
		var err error
		st, err = store.Open(filepath.Join(t.TempDir(), "history.db"))
		if err != nil {
			t.Fatalf("store.Open: %v", err)
		}
		t.Cleanup(func() { st.Close() })
		history, reports = st, st
	}

	orch := pipeline.NewOrchestrator(cfg, chk, history, nil)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)

	srv := httptest.NewServer(NewServer(orch, chk, reports, nil, cfg))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, orch: orch, store: st}
}

// upload builds a multipart body with files under field.
func upload(t *testing.T, field string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, data := range files {
		part, err := mw.CreateFormFile(field, name)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &body, mw.FormDataContentType()
}

func (ts *testServer) post(t *testing.T, path, field string, files map[string][]byte) *http.Response {
	t.Helper()
	body, ct := upload(t, field, files)
	resp, err := http.Post(ts.URL+path, ct, body)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (ts *testServer) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := ts.get(t, "/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]any
	decode(t, resp, &body)
	if body["status"] != "ok" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestValidate_ReturnsReport(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := ts.post(t, "/api/validate", "file", map[string][]byte{"thesis.json": dump(t, "ArialMT")})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var body struct {
		ID         string         `json:"id"`
		Filename   string         `json:"filename"`
		Pages      int            `json:"pages"`
		Violations []any          `json:"violations"`
		Counts     map[string]int `json:"counts"`
	}
	decode(t, resp, &body)
	if body.Filename != "thesis.json" || body.Pages != 1 {
		t.Errorf("unexpected report %+v", body)
	}
	if body.Counts["FONT"] != 3 {
		t.Errorf("counts = %v", body.Counts)
	}

	runs, err := ts.store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != body.ID {
		t.Errorf("expected the run in history, got %+v", runs)
	}
}

func TestValidate_CleanDocument(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := ts.post(t, "/api/validate", "file", map[string][]byte{"ok.json": dump(t, "TimesNewRomanPSMT")})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Violations []any `json:"violations"`
	}
	decode(t, resp, &body)
	if body.Violations == nil || len(body.Violations) != 0 {
		t.Errorf("expected an empty list, got %v", body.Violations)
	}
}

func TestValidate_Formats(t *testing.T) {
	ts := newTestServer(t, nil)
	cases := []struct {
		format string
		ct     string
		want   string
	}{
		{"markdown", "text/markdown; charset=utf-8", "# Formatting Report"},
		{"html", "text/html; charset=utf-8", "<!DOCTYPE html>"},
		{"text", "text/plain; charset=utf-8", "[FONT]"},
	}
	for _, tc := range cases {
		t.Run(tc.format, func(t *testing.T) {
			resp := ts.post(t, "/api/validate?format="+tc.format, "file", map[string][]byte{"a.json": dump(t, "ArialMT")})
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("expected 200, got %d", resp.StatusCode)
			}
			if ct := resp.Header.Get("Content-Type"); ct != tc.ct {
				t.Errorf("Content-Type = %q", ct)
			}
			var buf bytes.Buffer
			buf.ReadFrom(resp.Body)
			if !strings.Contains(buf.String(), tc.want) {
				t.Errorf("missing %q in:\n%s", tc.want, buf.String())
			}
		})
	}
}

func TestValidate_Rejections(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.MaxUploadBytes = 64 })
	cases := []struct {
		name     string
		path     string
		filename string
		data     []byte
		want     int
	}{
		{"unsupported extension", "/api/validate", "thesis.docx", []byte("PK"), http.StatusBadRequest},
		{"missing magic", "/api/validate", "thesis.pdf", []byte("not a pdf"), http.StatusBadRequest},
		{"empty file", "/api/validate", "thesis.json", nil, http.StatusBadRequest},
		{"too large", "/api/validate", "thesis.json", bytes.Repeat([]byte(" "), 65), http.StatusRequestEntityTooLarge},
		{"no pages", "/api/validate", "thesis.json", []byte(`{"pages":[]}`), http.StatusUnprocessableEntity},
		{"corrupt dump", "/api/validate", "thesis.json", []byte(`{"pages":`), http.StatusUnprocessableEntity},
		{"unknown format", "/api/validate?format=pdf", "thesis.json", []byte(`{}`), http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := ts.post(t, tc.path, "file", map[string][]byte{tc.filename: tc.data})
			if resp.StatusCode != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.StatusCode)
			}
			var body map[string]string
			decode(t, resp, &body)
			if body["error"] == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestValidate_MissingFile(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := ts.post(t, "/api/validate", "other", map[string][]byte{"a.json": []byte("{}")})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestJobs_SubmitAndPoll(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := ts.post(t, "/api/jobs", "file", map[string][]byte{"thesis.json": dump(t, "ArialMT")})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	var sub struct {
		JobID   string `json:"job_id"`
		PollURL string `json:"poll_url"`
	}
	decode(t, resp, &sub)
	if sub.PollURL != "/api/jobs/"+sub.JobID {
		t.Fatalf("poll_url = %q", sub.PollURL)
	}

	var status struct {
		Status    string `json:"status"`
		ReportURL string `json:"report_url"`
	}
	deadline := time.Now().Add(5 * time.Second)
	for {
		decode(t, ts.get(t, sub.PollURL), &status)
		if status.Status == string(pipeline.StatusCompleted) || status.Status == string(pipeline.StatusFailed) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job still %s", status.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if status.Status != string(pipeline.StatusCompleted) {
		t.Fatalf("expected completed, got %s", status.Status)
	}

	resp = ts.get(t, status.ReportURL)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var rep struct {
		Counts map[string]int `json:"counts"`
	}
	decode(t, resp, &rep)
	if rep.Counts["FONT"] != 3 {
		t.Errorf("counts = %v", rep.Counts)
	}
}

func TestJobs_FailedJobReport(t *testing.T) {
	ts := newTestServer(t, nil)
	job := pipeline.NewJob("empty.json", []byte(`{"pages":[]}`))
	if err := ts.orch.Submit(job); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for !job.Snapshot().Done() {
		if time.Now().After(deadline) {
			t.Fatal("job did not finish")
		}
		time.Sleep(5 * time.Millisecond)
	}
	resp := ts.get(t, "/api/jobs/"+job.ID+"/report")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", resp.StatusCode)
	}
}

func TestJobs_NotFound(t *testing.T) {
	ts := newTestServer(t, nil)
	for _, path := range []string{"/api/jobs/nope", "/api/jobs/nope/report"} {
		if resp := ts.get(t, path); resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, resp.StatusCode)
		}
	}
}

func TestReports_ListAndGet(t *testing.T) {
	ts := newTestServer(t, nil)
	data := dump(t, "ArialMT")
	resp := ts.post(t, "/api/validate", "file", map[string][]byte{"a.json": data})
	var rep struct {
		ID   string `json:"id"`
		Hash string `json:"hash"`
	}
	decode(t, resp, &rep)

	var list struct {
		Reports []store.Summary `json:"reports"`
	}
	decode(t, ts.get(t, "/api/reports?limit=5"), &list)
	if len(list.Reports) != 1 || list.Reports[0].Violations != 3 {
		t.Errorf("unexpected list %+v", list.Reports)
	}

	decode(t, ts.get(t, "/api/reports?hash="+rep.Hash), &list)
	if len(list.Reports) != 1 || list.Reports[0].ID != rep.ID {
		t.Errorf("unexpected hash lookup %+v", list.Reports)
	}

	resp = ts.get(t, "/api/reports/"+rep.ID+"?format=markdown")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	if resp := ts.get(t, "/api/reports/missing"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
	if resp := ts.get(t, "/api/reports?limit=x"); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestReports_HistoryDisabled(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.History = false })
	if resp := ts.get(t, "/api/reports"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
	resp := ts.post(t, "/api/validate", "file", map[string][]byte{"a.json": dump(t, "ArialMT")})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("validation should work without history, got %d", resp.StatusCode)
	}
}

func TestStats(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.post(t, "/api/validate", "file", map[string][]byte{"a.json": dump(t, "ArialMT")})

	var body struct {
		Standard   string                 `json:"standard"`
		Rules      []string               `json:"rules"`
		Validation pipeline.StatsSnapshot `json:"validation"`
	}
	decode(t, ts.get(t, "/api/stats"), &body)
	if body.Standard != config.DefaultStandard().Name {
		t.Errorf("standard = %q", body.Standard)
	}
	if len(body.Rules) != 8 {
		t.Errorf("expected 8 rules, got %v", body.Rules)
	}
	if body.Validation.Count != 1 || body.Validation.Pages != 1 {
		t.Errorf("unexpected stats %+v", body.Validation)
	}
}

func TestStandard(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := ts.get(t, "/api/standard")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	std, err := config.ParseStandard(resp.Body)
	if err != nil {
		t.Fatalf("ParseStandard: %v", err)
	}
	if std.Name != config.DefaultStandard().Name {
		t.Errorf("Name = %q", std.Name)
	}
}

func TestAuth(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.APIKey = "secret" })

	if resp := ts.get(t, "/health"); resp.StatusCode != http.StatusOK {
		t.Errorf("health should be public, got %d", resp.StatusCode)
	}
	if resp := ts.get(t, "/api/stats"); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without a key, got %d", resp.StatusCode)
	}

	for key, want := range map[string]int{"secret": http.StatusOK, "wrong": http.StatusUnauthorized} {
		req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/stats", nil)
		req.Header.Set("Authorization", "Bearer "+key)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != want {
			t.Errorf("key %q: expected %d, got %d", key, want, resp.StatusCode)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"thesis.pdf":             "thesis.pdf",
		"../../etc/passwd.pdf":   "passwd.pdf",
		`C:\Users\me\thesis.pdf`: "thesis.pdf",
		"":                       "unnamed",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
