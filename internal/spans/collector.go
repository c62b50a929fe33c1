package spans

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Collector converts raw document bytes into a span Document.
type Collector interface {
	Collect(r io.Reader, filename string) (*Document, error)
}

// Synthetic point sizes for formats that carry heading levels instead of
// typography. Keeping them distinct lets the size-rank classifier recover
// the levels.
const (
	sizeH1   = 24.0
	sizeH2   = 18.0
	sizeH3   = 14.0
	sizeH4   = 12.0
	sizeBody = 11.0

	fontHeading = "Synthetic-Bold"
	fontBody    = "Synthetic-Regular"
)

func headingSize(level int) float64 {
	switch level {
	case 1:
		return sizeH1
	case 2:
		return sizeH2
	case 3:
		return sizeH3
	default:
		return sizeH4
	}
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".pdf":      true,
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".docx":     true,
	".csv":      true,
}

// Options tunes collector behaviour.
type Options struct {
	PDFFallbackPdftotext bool
}

// ForFile returns the appropriate collector for a filename.
func ForFile(filename string, opts Options) (Collector, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return &PDFCollector{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".txt":
		return &TextCollector{}, nil
	case ".md", ".markdown":
		return &MarkdownCollector{}, nil
	case ".html", ".htm":
		return &HTMLCollector{}, nil
	case ".docx":
		return &DOCXCollector{}, nil
	case ".csv":
		return &CSVCollector{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %q", ext)
	}
}

// CollectFile opens path and runs the collector chosen by its extension.
func CollectFile(path string, opts Options) (*Document, error) {
	c, err := ForFile(path, opts)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	return c.Collect(f, filepath.Base(path))
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Stem returns the filename without directory or extension.
func Stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// blockBuilder accumulates synthetic spans for single-page formats.
type blockBuilder struct {
	spans []Span
	y     float64
}

func (b *blockBuilder) add(text string, headingLevel int) {
	size, font := sizeBody, fontBody
	if headingLevel > 0 {
		size, font = headingSize(headingLevel), fontHeading
	}
	s, ok := NewSpan(text, size, font, 1, BBox{X0: 0, Y0: b.y, X1: 0, Y1: b.y + size})
	if !ok {
		return
	}
	b.y += size
	b.spans = append(b.spans, s)
}

func (b *blockBuilder) document(filename, title string) *Document {
	doc := &Document{Filename: filepath.Base(filename), Title: title}
	if len(b.spans) == 0 {
		return doc
	}
	lines := make([]string, len(b.spans))
	for i, s := range b.spans {
		lines[i] = s.Text
	}
	doc.Pages = []Page{{Number: 1, Spans: b.spans, Text: strings.Join(lines, "\n")}}
	return doc
}
