// Package spans turns source documents into ordered, positioned text spans.
package spans

import (
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// BBox is a span's bounding box in page coordinates.
type BBox struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Span is a run of text sharing one font, size and style.
type Span struct {
	Text string  `json:"text"`
	Size float64 `json:"size"` // rounded to 2 decimals
	Font string  `json:"font"`
	Bold bool    `json:"bold"`
	Page int     `json:"page"` // 1-based
	BBox BBox    `json:"bbox"`
}

// Page holds one page's spans plus its plain text, used when span
// decomposition yields nothing.
type Page struct {
	Number int
	Spans  []Span
	Text   string
}

// Document is the collected form of one input file.
type Document struct {
	Filename string
	Title    string // filename stem, or a title found in the source
	Pages    []Page
}

// Spans returns every span in document order.
func (d *Document) Spans() []Span {
	var out []Span
	for _, p := range d.Pages {
		out = append(out, p.Spans...)
	}
	return out
}

// Sizes returns the distinct rounded font sizes observed in the document.
func (d *Document) Sizes() []float64 {
	seen := make(map[float64]bool)
	var out []float64
	for _, p := range d.Pages {
		for _, s := range p.Spans {
			if !seen[s.Size] {
				seen[s.Size] = true
				out = append(out, s.Size)
			}
		}
	}
	return out
}

// HasText reports whether any page carries spans or non-blank plain text.
func (d *Document) HasText() bool {
	for _, p := range d.Pages {
		if len(p.Spans) > 0 || strings.TrimSpace(p.Text) != "" {
			return true
		}
	}
	return false
}

// NewSpan builds a normalized span. It reports false when the text is blank.
func NewSpan(text string, size float64, font string, page int, box BBox) (Span, bool) {
	text = norm.NFC.String(strings.TrimSpace(text))
	if text == "" {
		return Span{}, false
	}
	return Span{
		Text: text,
		Size: RoundSize(size),
		Font: font,
		Bold: strings.Contains(strings.ToLower(font), "bold"),
		Page: page,
		BBox: box,
	}, true
}

// RoundSize rounds a font size to 2 decimals so near-identical sizes compare equal.
func RoundSize(size float64) float64 {
	return math.Round(size*100) / 100
}
