package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgallion1/docrank/internal/config"
	"github.com/dgallion1/docrank/internal/digest"
	"github.com/dgallion1/docrank/internal/embedding"
	"github.com/dgallion1/docrank/internal/pipeline"
	"github.com/dgallion1/docrank/internal/profile"
	"github.com/dgallion1/docrank/internal/rank"
)

const testKey = "secret"

func testConfig() config.Config {
	return config.Config{
		DigestAPIKey:   testKey,
		WorkerCount:    1,
		MaxQueueSize:   4,
		MaxUploadBytes: 1 << 20,
		JobTTL:         time.Hour,
		TopN:           10,
	}
}

// newTestServer wires a server over the hashing embedder. Workers only run
// when start is true.
func newTestServer(t *testing.T, start bool) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	emb := embedding.NewHashEmbedder(64)
	cache := embedding.NewCache(emb, nil, 0, embedding.NewLatencyStats(time.Hour), log)
	prof := profile.Default()
	runner := digest.NewRunner(rank.NewRankerContext(cache, rank.NewBooster(prof.Boost), log), prof, emb.Model(), log)

	cfg := testConfig()
	orch := pipeline.NewOrchestrator(cfg, runner, log)
	if start {
		orch.Start(context.Background())
		t.Cleanup(orch.Stop)
	}
	return NewServer(orch, cache, log, cfg)
}

type part struct {
	field, filename, body string
}

func multipartRequest(t *testing.T, path string, parts ...part) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		if p.filename == "" {
			if err := mw.WriteField(p.field, p.body); err != nil {
				t.Fatal(err)
			}
			continue
		}
		fw, err := mw.CreateFormFile(p.field, p.filename)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte(p.body))
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testKey)
	return req
}

func authed(method, path string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+testKey)
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

const tripMarkdown = "# Day 1: Arrival\n\nCheck in at the hotel on day one.\n"

func TestHealth_NoAuth(t *testing.T) {
	s := newTestServer(t, false)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestAuth(t *testing.T) {
	s := newTestServer(t, false)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/stats/embedding", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing header: expected 401, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/stats/embedding", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = serve(s, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: expected 401, got %d", rec.Code)
	}
	var body map[string]string
	decode(t, rec, &body)
	if body["error"] != "invalid api key" {
		t.Errorf("expected json error body, got %v", body)
	}
}

func TestOutline(t *testing.T) {
	s := newTestServer(t, false)
	md := "# Guide\n\n## Day 1\n\n### Old Port\n\nwalk along the harbour\n"
	rec := serve(s, multipartRequest(t, "/api/outline", part{"file", "guide.md", md}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var out struct {
		Title   string `json:"title"`
		Outline []struct {
			Level string `json:"level"`
			Text  string `json:"text"`
			Page  int    `json:"page"`
		} `json:"outline"`
	}
	decode(t, rec, &out)
	if out.Title != "Guide" {
		t.Errorf("expected title Guide, got %q", out.Title)
	}
	want := []string{"H1:Guide", "H2:Day 1", "H3:Old Port"}
	if len(out.Outline) != len(want) {
		t.Fatalf("expected %d entries, got %+v", len(want), out.Outline)
	}
	for i, e := range out.Outline {
		if got := e.Level + ":" + e.Text; got != want[i] {
			t.Errorf("entry %d: expected %s, got %s", i, want[i], got)
		}
	}
}

func TestOutline_UnsupportedType(t *testing.T) {
	s := newTestServer(t, false)
	rec := serve(s, multipartRequest(t, "/api/outline", part{"file", "setup.exe", "MZ"}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestRank_EndToEnd(t *testing.T) {
	s := newTestServer(t, true)
	rec := serve(s, multipartRequest(t, "/api/rank",
		part{"persona", "", "Travel Planner"},
		part{"task", "", "Plan a trip of 4 days"},
		part{"top_n", "", "5"},
		part{"files", "trip.md", tripMarkdown},
	))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var accepted map[string]string
	decode(t, rec, &accepted)
	if accepted["job_id"] == "" || accepted["poll_url"] != "/api/rank/"+accepted["job_id"] {
		t.Fatalf("unexpected accept body %v", accepted)
	}

	deadline := time.Now().Add(5 * time.Second)
	var snap pipeline.JobSnapshot
	for time.Now().Before(deadline) {
		rec = serve(s, authed(http.MethodGet, accepted["poll_url"]))
		decode(t, rec, &snap)
		if snap.Status == pipeline.StatusCompleted || snap.Status == pipeline.StatusFailed {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if snap.Status != pipeline.StatusCompleted {
		t.Fatalf("expected completed job, got %+v", snap)
	}
	if len(snap.Files) != 1 || snap.Files[0].Filename != "trip.md" {
		t.Errorf("unexpected files %+v", snap.Files)
	}

	rec = serve(s, authed(http.MethodGet, accepted["poll_url"]+"/result"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var out digest.Output
	decode(t, rec, &out)
	if len(out.ExtractedSections) != 1 || out.ExtractedSections[0].SectionTitle != "Day 1: Arrival" {
		t.Errorf("unexpected sections %+v", out.ExtractedSections)
	}
	if out.Metadata.Persona != "Travel Planner" || out.Metadata.ModelUsed != "hash-bow-64" {
		t.Errorf("unexpected metadata %+v", out.Metadata)
	}

	rec = serve(s, authed(http.MethodGet, "/api/stats/embedding"))
	var stats map[string]any
	decode(t, rec, &stats)
	if stats["model"] != "hash-bow-64" {
		t.Errorf("expected model in stats, got %v", stats)
	}
	if n, _ := stats["cache_entries"].(float64); n < 2 {
		t.Errorf("expected cached vectors after a run, got %v", stats["cache_entries"])
	}
}

func TestRankResult_NotReady(t *testing.T) {
	s := newTestServer(t, false)
	rec := serve(s, multipartRequest(t, "/api/rank",
		part{"task", "", "plan"},
		part{"files", "trip.md", tripMarkdown},
	))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	var accepted map[string]string
	decode(t, rec, &accepted)

	rec = serve(s, authed(http.MethodGet, "/api/rank/"+accepted["job_id"]+"/result"))
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
}

func TestRank_UnknownJob(t *testing.T) {
	s := newTestServer(t, false)
	for _, path := range []string{"/api/rank/nope", "/api/rank/nope/result"} {
		if rec := serve(s, authed(http.MethodGet, path)); rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rec.Code)
		}
	}
}

func TestRank_BadRequests(t *testing.T) {
	s := newTestServer(t, false)
	tests := []struct {
		name  string
		parts []part
	}{
		{"missing task", []part{{"files", "trip.md", tripMarkdown}}},
		{"bad mode", []part{{"task", "", "plan"}, {"mode", "", "pages"}, {"files", "trip.md", tripMarkdown}}},
		{"bad top_n", []part{{"task", "", "plan"}, {"top_n", "", "-1"}, {"files", "trip.md", tripMarkdown}}},
		{"no files", []part{{"task", "", "plan"}}},
		{"unsupported", []part{{"task", "", "plan"}, {"files", "data.xlsx", "x"}}},
		{"duplicate", []part{{"task", "", "plan"}, {"files", "a.md", "a"}, {"files", "a.md", "b"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(s, multipartRequest(t, "/api/rank", tt.parts...))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"../../etc/passwd": "passwd",
		"trip.pdf":         "trip.pdf",
		"a..b.pdf":         "a_b.pdf",
		"":                 "unnamed",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q): expected %q, got %q", in, want, got)
		}
	}
}
