package spans

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// PDFCollector handles PDF files. Spans come from the content stream's glyph
// runs; page text comes from the library's plain-text view, falling back to
// pdftotext when the library finds nothing at all.
type PDFCollector struct {
	FallbackPdftotext bool
}

func (c *PDFCollector) Collect(r io.Reader, filename string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	reader, err := openPDF(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	doc := &Document{
		Filename: filepath.Base(filename),
		Title:    Stem(filename),
	}

	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		doc.Pages = append(doc.Pages, collectPage(reader.Page(i), i))
	}

	if !doc.HasText() && c.FallbackPdftotext {
		pages, err := extractPdftotext(data)
		if err == nil {
			applyPageText(doc, pages)
		}
	}

	return doc, nil
}

// openPDF guards against panics inside the PDF library on malformed input.
func openPDF(data []byte) (reader *pdflib.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reader, err = nil, fmt.Errorf("malformed pdf: %v", rec)
		}
	}()
	return pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
}

// collectPage extracts one page. A page that trips the library is returned
// empty rather than failing the whole document.
func collectPage(page pdflib.Page, num int) (out Page) {
	out.Number = num
	defer func() {
		if recover() != nil {
			out = Page{Number: num}
		}
	}()
	if page.V.IsNull() {
		return out
	}
	out.Spans = mergeRuns(page.Content().Text, num)
	if text, err := page.GetPlainText(nil); err == nil {
		out.Text = text
	}
	return out
}

// runBuilder merges consecutive glyph runs sharing font, size and baseline.
type runBuilder struct {
	font   string
	size   float64
	y      float64
	x0, x1 float64
	text   strings.Builder
}

func newRunBuilder(t pdflib.Text) *runBuilder {
	b := &runBuilder{font: t.Font, size: t.FontSize, y: t.Y, x0: t.X, x1: t.X + t.W}
	b.text.WriteString(t.S)
	return b
}

func (b *runBuilder) continues(t pdflib.Text) bool {
	if t.Font != b.font || math.Abs(t.FontSize-b.size) > 0.01 {
		return false
	}
	tol := math.Max(b.size*0.2, 0.5)
	if math.Abs(t.Y-b.y) > tol {
		return false
	}
	// A large jump backwards means a new line or column at the same baseline.
	return t.X >= b.x1-b.size
}

func (b *runBuilder) add(t pdflib.Text) {
	gap := t.X - b.x1
	cur := b.text.String()
	if gap > b.size*0.2 && !strings.HasSuffix(cur, " ") && !strings.HasPrefix(t.S, " ") {
		b.text.WriteByte(' ')
	}
	b.text.WriteString(t.S)
	b.x0 = math.Min(b.x0, t.X)
	b.x1 = math.Max(b.x1, t.X+t.W)
}

func (b *runBuilder) span(page int) (Span, bool) {
	return NewSpan(b.text.String(), b.size, b.font, page, BBox{
		X0: b.x0,
		Y0: b.y,
		X1: b.x1,
		Y1: b.y + b.size,
	})
}

func mergeRuns(runs []pdflib.Text, page int) []Span {
	var out []Span
	var cur *runBuilder
	flush := func() {
		if cur == nil {
			return
		}
		if s, ok := cur.span(page); ok {
			out = append(out, s)
		}
	}
	for _, t := range runs {
		if t.S == "" {
			continue
		}
		if cur != nil && cur.continues(t) {
			cur.add(t)
			continue
		}
		flush()
		cur = newRunBuilder(t)
	}
	flush()
	return out
}

// extractPdftotext shells out to poppler's pdftotext. It needs a path, so
// the bytes go through a temp file.
func extractPdftotext(data []byte) ([]string, error) {
	tmp, err := os.CreateTemp("", "docrank-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	cmd := exec.Command("pdftotext", "-layout", tmpPath, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return splitPages(string(out)), nil
}

func splitPages(text string) []string {
	return strings.Split(text, "\f")
}

// applyPageText fills page plain text from an external page split. Extra
// pages beyond the library's page count are appended.
func applyPageText(doc *Document, pages []string) {
	for i, text := range pages {
		if i < len(doc.Pages) {
			doc.Pages[i].Text = text
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		doc.Pages = append(doc.Pages, Page{Number: i + 1, Text: text})
	}
}
