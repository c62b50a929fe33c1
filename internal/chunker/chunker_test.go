package chunker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgallion1/docrank/internal/spans"
)

func words(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(w, " ")
}

func collect(text string, cfg Config) []Window {
	var out []Window
	for w := range Windows(text, cfg) {
		out = append(out, w)
	}
	return out
}

func TestWindows_DefaultOverlap(t *testing.T) {
	got := collect(words(1000), DefaultConfig())
	want := [][2]int{{0, 500}, {400, 900}, {800, 1000}}
	if len(got) != len(want) {
		t.Fatalf("expected %d windows, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].Start != w[0] || got[i].End != w[1] {
			t.Errorf("window %d: expected [%d,%d), got [%d,%d)", i, w[0], w[1], got[i].Start, got[i].End)
		}
	}
	if !strings.HasPrefix(got[1].Text, "w400 w401") {
		t.Errorf("expected window text to start at w400, got %q", got[1].Text[:20])
	}
}

func TestWindows_CoverAllWords(t *testing.T) {
	for _, n := range []int{1, 7, 399, 400, 401, 999, 1234} {
		for _, cfg := range []Config{DefaultConfig(), {Window: 10, Stride: 3}, {Window: 5, Stride: 5}} {
			covered := make([]bool, n)
			prev := -1
			for w := range Windows(words(n), cfg) {
				if prev >= 0 && w.Start-prev != cfg.normalize().Stride {
					t.Errorf("n=%d cfg=%+v: expected stride %d between starts, got %d", n, cfg, cfg.Stride, w.Start-prev)
				}
				prev = w.Start
				for i := w.Start; i < w.End; i++ {
					covered[i] = true
				}
			}
			for i, ok := range covered {
				if !ok {
					t.Errorf("n=%d cfg=%+v: word %d not covered", n, cfg, i)
					break
				}
			}
		}
	}
}

func TestWindows_Restartable(t *testing.T) {
	seq := Windows(words(900), DefaultConfig())
	var first, second int
	for range seq {
		first++
	}
	for range seq {
		second++
	}
	if first != second || first == 0 {
		t.Errorf("expected equal non-zero passes, got %d and %d", first, second)
	}
}

func TestWindows_EarlyStop(t *testing.T) {
	n := 0
	for range Windows(words(5000), DefaultConfig()) {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("expected to stop after 2, got %d", n)
	}
}

func TestWindows_EmptyText(t *testing.T) {
	if got := collect("   \n ", DefaultConfig()); len(got) != 0 {
		t.Errorf("expected no windows, got %d", len(got))
	}
}

func TestPageChunks_FiltersShortWindows(t *testing.T) {
	doc := &spans.Document{Filename: "g.pdf", Pages: []spans.Page{
		{Number: 1, Text: words(30)},
		{Number: 2, Text: words(460)},
		{Number: 3, Text: words(51)},
	}}
	got := PageChunks(doc, DefaultConfig())
	// Page 2 yields [0,460) and [400,460); the 60-word tail is kept.
	if len(got) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(got))
	}
	if got[0].PageNumber != 2 || got[1].PageNumber != 2 || got[2].PageNumber != 3 {
		t.Errorf("unexpected page numbers %d %d %d", got[0].PageNumber, got[1].PageNumber, got[2].PageNumber)
	}
	if got[0].Document != "g.pdf" {
		t.Errorf("expected document g.pdf, got %q", got[0].Document)
	}
}

func TestPageChunks_BoundaryIsExclusive(t *testing.T) {
	doc := &spans.Document{Pages: []spans.Page{{Number: 1, Text: words(50)}}}
	if got := PageChunks(doc, DefaultConfig()); len(got) != 0 {
		t.Errorf("expected a 50-word window to be dropped, got %d chunks", len(got))
	}
}

func TestPageChunks_FallsBackToSpans(t *testing.T) {
	var ss []spans.Span
	for i := range 60 {
		ss = append(ss, spans.Span{Text: fmt.Sprintf("s%d", i), Page: 1})
	}
	doc := &spans.Document{Pages: []spans.Page{{Number: 1, Spans: ss}}}
	got := PageChunks(doc, DefaultConfig())
	if len(got) != 1 || !strings.HasPrefix(got[0].Text, "s0 s1") {
		t.Errorf("expected one chunk from span text, got %+v", got)
	}
}

func TestPool_PreservesOrder(t *testing.T) {
	paths := []string{"a", "b", "c", "d", "e", "f", "g"}
	res := Pool{Workers: 3, BatchSize: 2}.Run(context.Background(), paths, func(_ context.Context, path string) ([]Chunk, error) {
		// Later paths finish first.
		time.Sleep(time.Duration(len(paths)-int(path[0]-'a')) * time.Millisecond)
		return []Chunk{{Document: path}}, nil
	})
	if len(res) != len(paths) {
		t.Fatalf("expected %d results, got %d", len(paths), len(res))
	}
	for i, r := range res {
		if r.Path != paths[i] || r.Chunks[0].Document != paths[i] {
			t.Errorf("result %d: expected %s, got %s", i, paths[i], r.Path)
		}
	}
}

func TestPool_BoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	paths := make([]string, 20)
	for i := range paths {
		paths[i] = fmt.Sprint(i)
	}
	Pool{Workers: 2, BatchSize: 8}.Run(context.Background(), paths, func(_ context.Context, _ string) ([]Chunk, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return nil, nil
	})
	if peak.Load() > 2 {
		t.Errorf("expected at most 2 concurrent workers, got %d", peak.Load())
	}
}

func TestPool_ErrorsArePerItem(t *testing.T) {
	boom := errors.New("corrupt")
	res := DefaultPool().Run(context.Background(), []string{"ok", "bad", "ok2"}, func(_ context.Context, path string) ([]Chunk, error) {
		if path == "bad" {
			return nil, boom
		}
		return []Chunk{{Document: path}}, nil
	})
	if !errors.Is(res[1].Err, boom) {
		t.Errorf("expected error for bad path, got %v", res[1].Err)
	}
	if res[0].Err != nil || res[2].Err != nil || len(res[2].Chunks) != 1 {
		t.Errorf("expected other paths to succeed, got %+v", res)
	}
}

func TestPool_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls atomic.Int32
	res := DefaultPool().Run(ctx, []string{"a", "b"}, func(context.Context, string) ([]Chunk, error) {
		calls.Add(1)
		return nil, nil
	})
	if calls.Load() != 0 {
		t.Errorf("expected no calls after cancel, got %d", calls.Load())
	}
	if !errors.Is(res[0].Err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", res[0].Err)
	}
}
