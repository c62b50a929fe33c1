package section

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/docrank/internal/spans"
)

// Kind says how a section was anchored.
type Kind string

const (
	KindHeader      Kind = "section_header"
	KindContent     Kind = "content"
	KindPageContent Kind = "page_content"
)

// Section is a run of consecutive spans under one, possibly synthetic, heading.
type Section struct {
	Document   string  `json:"document"`
	PageNumber int     `json:"page_number"`
	Title      string  `json:"title"`
	Text       string  `json:"text"`
	FontSize   float64 `json:"font_size"`
	IsBold     bool    `json:"is_bold"`
	Kind       Kind    `json:"kind"`
}

// Segmenter turns a span stream into sections.
type Segmenter struct {
	Detector HeaderDetector
}

// NewSegmenter returns a Segmenter using d for header detection.
func NewSegmenter(d HeaderDetector) *Segmenter {
	return &Segmenter{Detector: d}
}

// open is the section currently accumulating text.
type open struct {
	sec  Section
	text strings.Builder
}

func (o *open) append(s string) {
	if o.text.Len() > 0 && !endsInSpace(o.text.String()) {
		o.text.WriteByte(' ')
	}
	o.text.WriteString(s)
}

func (o *open) hasText() bool {
	return strings.TrimSpace(o.text.String()) != ""
}

// keep reports whether the section carries anything worth emitting. A header
// with no body still carries its title.
func (o *open) keep() bool {
	return o.hasText() || strings.TrimSpace(o.sec.Title) != ""
}

func (o *open) finalize() Section {
	s := o.sec
	s.Text = strings.TrimRightFunc(o.text.String(), unicode.IsSpace)
	return s
}

// Segment walks doc's spans in order. A header closes the open section and
// starts a new one; other spans append to the open section, opening a
// "Content from page N" section when none is open. Sections continue across
// pages with a blank-line marker. A document with no spans falls back to one
// section per non-empty page.
func (sg *Segmenter) Segment(doc *spans.Document) []Section {
	var out []Section
	var cur *open

	emit := func() {
		if cur != nil && cur.keep() {
			out = append(out, cur.finalize())
		}
		cur = nil
	}

	for _, page := range doc.Pages {
		for _, sp := range page.Spans {
			if sg.Detector.IsHeader(sp.Text) {
				emit()
				cur = &open{sec: Section{
					Document:   doc.Filename,
					PageNumber: sp.Page,
					Title:      sp.Text,
					FontSize:   sp.Size,
					IsBold:     sp.Bold,
					Kind:       KindHeader,
				}}
				continue
			}
			if cur == nil {
				cur = &open{sec: Section{
					Document:   doc.Filename,
					PageNumber: sp.Page,
					Title:      fmt.Sprintf("Content from page %d", sp.Page),
					FontSize:   sp.Size,
					Kind:       KindContent,
				}}
			}
			cur.append(sp.Text)
		}
		if cur != nil && cur.hasText() && !strings.HasSuffix(cur.text.String(), "\n\n") {
			cur.text.WriteString("\n\n")
		}
	}
	emit()

	if len(out) == 0 {
		return PageSections(doc)
	}
	return out
}

// PageSections returns one page_content section per page with non-blank
// plain text.
func PageSections(doc *spans.Document) []Section {
	var out []Section
	for _, page := range doc.Pages {
		text := strings.TrimSpace(page.Text)
		if text == "" {
			continue
		}
		out = append(out, Section{
			Document:   doc.Filename,
			PageNumber: page.Number,
			Title:      fmt.Sprintf("Page %d", page.Number),
			Text:       text,
			Kind:       KindPageContent,
		})
	}
	return out
}

func endsInSpace(s string) bool {
	r, size := utf8.DecodeLastRuneInString(s)
	return size > 0 && unicode.IsSpace(r)
}
