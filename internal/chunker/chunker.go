// Package chunker cuts page text into overlapping word windows, a coarser
// alternative to header-based sections.
package chunker

import (
	"iter"
	"strings"

	"github.com/dgallion1/docrank/internal/spans"
)

// Config controls window size and which windows are kept.
type Config struct {
	Window   int // words per window
	Stride   int // words between window starts
	MinWords int // windows must have more than MinWords words
	MaxWords int // and fewer than MaxWords words
}

// DefaultConfig returns 500-word windows with a 100-word overlap.
func DefaultConfig() Config {
	return Config{
		Window:   500,
		Stride:   400,
		MinWords: 50,
		MaxWords: 800,
	}
}

func (c Config) normalize() Config {
	d := DefaultConfig()
	if c.Window <= 0 {
		c.Window = d.Window
	}
	if c.Stride <= 0 {
		c.Stride = d.Stride
	}
	if c.Stride > c.Window {
		c.Stride = c.Window
	}
	if c.MinWords < 0 {
		c.MinWords = 0
	}
	if c.MaxWords <= 0 {
		c.MaxWords = d.MaxWords
	}
	return c
}

// Window is the half-open word range [Start, End) of a text.
type Window struct {
	Start int
	End   int
	Text  string
}

// Words returns the number of words in the window.
func (w Window) Words() int { return w.End - w.Start }

// Windows yields every window of text, starting at word 0 and advancing by
// cfg.Stride. The text is split lazily, on each iteration.
func Windows(text string, cfg Config) iter.Seq[Window] {
	cfg = cfg.normalize()
	return func(yield func(Window) bool) {
		words := strings.Fields(text)
		for start := 0; start < len(words); start += cfg.Stride {
			end := min(start+cfg.Window, len(words))
			w := Window{Start: start, End: end, Text: strings.Join(words[start:end], " ")}
			if !yield(w) {
				return
			}
		}
	}
}

// Chunk is one retained window of a page.
type Chunk struct {
	Document   string `json:"document"`
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
}

// PageChunks returns the retained windows of every page of doc.
func PageChunks(doc *spans.Document, cfg Config) []Chunk {
	cfg = cfg.normalize()
	var out []Chunk
	for _, page := range doc.Pages {
		for w := range Windows(pageText(page), cfg) {
			n := w.Words()
			if n <= cfg.MinWords || n >= cfg.MaxWords {
				continue
			}
			out = append(out, Chunk{
				Document:   doc.Filename,
				PageNumber: page.Number,
				Text:       w.Text,
			})
		}
	}
	return out
}

func pageText(p spans.Page) string {
	if strings.TrimSpace(p.Text) != "" {
		return p.Text
	}
	parts := make([]string, len(p.Spans))
	for i, s := range p.Spans {
		parts[i] = s.Text
	}
	return strings.Join(parts, " ")
}
