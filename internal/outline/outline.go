// Package outline maps font sizes to heading tiers and extracts a
// document's title and heading outline.
package outline

import (
	"sort"

	"github.com/dgallion1/docrank/internal/spans"
)

// Level is a structural tier assigned by relative font size.
type Level string

const (
	H1   Level = "H1" // also the title tier
	H2   Level = "H2"
	H3   Level = "H3"
	Body Level = "Body"
)

// IsHeading reports whether the level is one of the three heading tiers.
func (l Level) IsHeading() bool {
	return l == H1 || l == H2 || l == H3
}

// LevelMap maps a rounded font size to its tier.
type LevelMap map[float64]Level

// Of returns the level for size, or Body when the size is unknown.
func (m LevelMap) Of(size float64) Level {
	if l, ok := m[spans.RoundSize(size)]; ok {
		return l
	}
	return Body
}

var tiers = []Level{H1, H2, H3}

// Levels assigns H1, H2 and H3 to the three largest distinct sizes and Body
// to the rest. Input order and duplicates do not affect the result.
func Levels(sizes []float64) LevelMap {
	seen := make(map[float64]bool, len(sizes))
	distinct := make([]float64, 0, len(sizes))
	for _, s := range sizes {
		s = spans.RoundSize(s)
		if !seen[s] {
			seen[s] = true
			distinct = append(distinct, s)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(distinct)))

	m := make(LevelMap, len(distinct))
	for rank, s := range distinct {
		if rank < len(tiers) {
			m[s] = tiers[rank]
		} else {
			m[s] = Body
		}
	}
	return m
}

// Entry is one heading in an outline.
type Entry struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
	Page  int    `json:"page"`
}

// Outline is the standalone structural view of a document.
type Outline struct {
	Title   string  `json:"title"`
	Outline []Entry `json:"outline"`
}

// Title returns the text of the first page-1 span in the title tier, or "".
func Title(doc *spans.Document, levels LevelMap) string {
	for _, p := range doc.Pages {
		if p.Number != 1 {
			continue
		}
		for _, s := range p.Spans {
			if levels.Of(s.Size) == H1 {
				return s.Text
			}
		}
	}
	return ""
}

// Extract classifies every span in doc and returns its title and headings in
// document order.
func Extract(doc *spans.Document) Outline {
	levels := Levels(doc.Sizes())
	out := Outline{
		Title:   Title(doc, levels),
		Outline: []Entry{},
	}
	for _, s := range doc.Spans() {
		l := levels.Of(s.Size)
		if !l.IsHeading() {
			continue
		}
		out.Outline = append(out.Outline, Entry{Level: l, Text: s.Text, Page: s.Page})
	}
	return out
}
