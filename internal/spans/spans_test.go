package spans

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/docrank/internal/testpdf"
)

func TestNewSpan_NormalizesText(t *testing.T) {
	// "e" followed by a combining acute accent composes to a single rune.
	s, ok := NewSpan("  Cafe\u0301 Tour \n", 11.004, "Times-BoldItalic", 2, BBox{})
	if !ok {
		t.Fatal("expected span to be kept")
	}
	if s.Text != "Caf\u00e9 Tour" {
		t.Errorf("expected NFC trimmed text, got %q", s.Text)
	}
	if s.Size != 11.0 {
		t.Errorf("expected size 11.00, got %v", s.Size)
	}
	if !s.Bold {
		t.Error("expected bold from font name")
	}
	if s.Page != 2 {
		t.Errorf("expected page 2, got %d", s.Page)
	}
}

func TestNewSpan_BlankDropped(t *testing.T) {
	if _, ok := NewSpan(" \t\n", 12, "Helvetica", 1, BBox{}); ok {
		t.Error("expected blank span to be dropped")
	}
}

func TestRoundSize(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{11.999, 12},
		{11.994, 11.99},
		{9.5, 9.5},
	}
	for _, tt := range tests {
		if got := RoundSize(tt.in); got != tt.want {
			t.Errorf("RoundSize(%v): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestDocument_SizesDistinctInOrder(t *testing.T) {
	doc := &Document{Pages: []Page{
		{Number: 1, Spans: []Span{{Size: 24}, {Size: 11}, {Size: 24}}},
		{Number: 2, Spans: []Span{{Size: 18}, {Size: 11}}},
	}}
	got := doc.Sizes()
	want := []float64{24, 11, 18}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
	if len(doc.Spans()) != 5 {
		t.Errorf("expected 5 spans, got %d", len(doc.Spans()))
	}
}

func TestDocument_HasText(t *testing.T) {
	if (&Document{Pages: []Page{{Number: 1, Text: "  \n"}}}).HasText() {
		t.Error("expected blank page text to count as empty")
	}
	if !(&Document{Pages: []Page{{Number: 1, Text: "words"}}}).HasText() {
		t.Error("expected page text to count")
	}
}

func TestForFile_Dispatch(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"a.pdf", "*spans.PDFCollector"},
		{"a.PDF", "*spans.PDFCollector"},
		{"a.md", "*spans.MarkdownCollector"},
		{"a.markdown", "*spans.MarkdownCollector"},
		{"a.htm", "*spans.HTMLCollector"},
		{"a.docx", "*spans.DOCXCollector"},
		{"a.txt", "*spans.TextCollector"},
		{"a.csv", "*spans.CSVCollector"},
	}
	for _, tt := range tests {
		c, err := ForFile(tt.name, Options{})
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
			continue
		}
		if got := typeName(c); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.name, tt.want, got)
		}
	}

	if _, err := ForFile("a.xlsx", Options{}); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if IsSupportedExtension("setup.exe") || !IsSupportedExtension("sheet.CSV") {
		t.Error("unexpected extension support")
	}
}

func typeName(c Collector) string {
	switch c.(type) {
	case *PDFCollector:
		return "*spans.PDFCollector"
	case *MarkdownCollector:
		return "*spans.MarkdownCollector"
	case *HTMLCollector:
		return "*spans.HTMLCollector"
	case *DOCXCollector:
		return "*spans.DOCXCollector"
	case *TextCollector:
		return "*spans.TextCollector"
	case *CSVCollector:
		return "*spans.CSVCollector"
	}
	return "unknown"
}

func TestStem(t *testing.T) {
	if got := Stem("/tmp/South of France - Cities.pdf"); got != "South of France - Cities" {
		t.Errorf("expected stem without extension, got %q", got)
	}
}

func TestMarkdownCollector_HeadingSizes(t *testing.T) {
	input := `# Guide

Intro paragraph.

## Nice

- beach
- old town

### Day 1
`
	doc, err := (&MarkdownCollector{}).Collect(strings.NewReader(input), "guide.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(doc.Pages))
	}
	spans := doc.Pages[0].Spans
	if len(spans) != 5 {
		t.Fatalf("expected 5 spans, got %d: %+v", len(spans), spans)
	}

	want := []struct {
		text string
		size float64
	}{
		{"Guide", sizeH1},
		{"Intro paragraph.", sizeBody},
		{"Nice", sizeH2},
		{"beach old town", sizeBody},
		{"Day 1", sizeH3},
	}
	for i, w := range want {
		if spans[i].Text != w.text {
			t.Errorf("span %d: expected text %q, got %q", i, w.text, spans[i].Text)
		}
		if spans[i].Size != w.size {
			t.Errorf("span %d: expected size %v, got %v", i, w.size, spans[i].Size)
		}
	}
	if !spans[0].Bold || spans[1].Bold {
		t.Error("expected headings bold and body regular")
	}
	if doc.Title != "guide" {
		t.Errorf("expected title %q, got %q", "guide", doc.Title)
	}
}

func TestHTMLCollector_SkipsChrome(t *testing.T) {
	input := `<html><head><title>Coastal Trip</title><style>p{}</style></head>
<body>
<nav><p>Home</p></nav>
<h1>Itinerary</h1>
<p>Walk   the
promenade.</p>
<script>var x = 1;</script>
<footer><p>copyright</p></footer>
</body></html>`
	doc, err := (&HTMLCollector{}).Collect(strings.NewReader(input), "trip.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Coastal Trip" {
		t.Errorf("expected title from <title>, got %q", doc.Title)
	}
	spans := doc.Spans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d: %+v", len(spans), spans)
	}
	if spans[0].Text != "Itinerary" || spans[0].Size != sizeH1 {
		t.Errorf("expected h1 span, got %+v", spans[0])
	}
	if spans[1].Text != "Walk the promenade." {
		t.Errorf("expected collapsed whitespace, got %q", spans[1].Text)
	}
}

func TestTextCollector_LinePerSpan(t *testing.T) {
	input := "Packing List\n\n  sunscreen  \nhat\n"
	doc, err := (&TextCollector{}).Collect(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	spans := doc.Spans()
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(spans))
	}
	if spans[1].Text != "sunscreen" {
		t.Errorf("expected trimmed line, got %q", spans[1].Text)
	}
	if doc.Pages[0].Text != "Packing List\nsunscreen\nhat" {
		t.Errorf("unexpected page text %q", doc.Pages[0].Text)
	}
}

func TestTextCollector_EmptyInput(t *testing.T) {
	doc, err := (&TextCollector{}).Collect(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Pages) != 0 {
		t.Errorf("expected no pages, got %d", len(doc.Pages))
	}
}

func TestMergeRuns_JoinsSameBaseline(t *testing.T) {
	runs := []pdflib.Text{
		{Font: "Helvetica-Bold", FontSize: 18, X: 72, Y: 700, W: 30, S: "Day"},
		{Font: "Helvetica-Bold", FontSize: 18, X: 107, Y: 700, W: 10, S: "1"},
		{Font: "Helvetica", FontSize: 11, X: 72, Y: 680, W: 40, S: "Arrive"},
		{Font: "Helvetica", FontSize: 11, X: 112, Y: 680, W: 5, S: ""},
		{Font: "Helvetica", FontSize: 11, X: 112, Y: 680, W: 20, S: " early"},
		{Font: "Helvetica", FontSize: 11, X: 72, Y: 660, W: 20, S: "Rest"},
	}
	got := mergeRuns(runs, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 spans, got %d: %+v", len(got), got)
	}
	if got[0].Text != "Day 1" {
		t.Errorf("expected gap to insert a space, got %q", got[0].Text)
	}
	if !got[0].Bold || got[0].Size != 18 {
		t.Errorf("unexpected heading span %+v", got[0])
	}
	if got[1].Text != "Arrive early" {
		t.Errorf("expected %q, got %q", "Arrive early", got[1].Text)
	}
	if got[2].Page != 3 {
		t.Errorf("expected page 3, got %d", got[2].Page)
	}
}

func TestMergeRuns_FontChangeSplits(t *testing.T) {
	runs := []pdflib.Text{
		{Font: "Helvetica", FontSize: 11, X: 72, Y: 700, W: 20, S: "plain"},
		{Font: "Helvetica-Bold", FontSize: 11, X: 92, Y: 700, W: 20, S: "bold"},
	}
	got := mergeRuns(runs, 1)
	if len(got) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(got))
	}
}

func TestApplyPageText(t *testing.T) {
	doc := &Document{Pages: []Page{{Number: 1}, {Number: 2}}}
	applyPageText(doc, splitPages("one\ftwo\fthree\f"))
	if len(doc.Pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(doc.Pages))
	}
	if doc.Pages[1].Text != "two" {
		t.Errorf("expected %q, got %q", "two", doc.Pages[1].Text)
	}
	if doc.Pages[2].Number != 3 || doc.Pages[2].Text != "three" {
		t.Errorf("unexpected appended page %+v", doc.Pages[2])
	}
}

func TestPDFCollector_Spans(t *testing.T) {
	data := testpdf.Build(
		[]testpdf.Line{
			{Text: "Coastal Guide", Size: 24, Bold: true},
			{Text: "Day 1: Arrival", Size: 18, Bold: true},
			{Text: "Check in and walk the old port.", Size: 11},
		},
		[]testpdf.Line{
			{Text: "Dinner by the harbour.", Size: 11},
		},
	)
	doc, err := (&PDFCollector{}).Collect(bytes.NewReader(data), "/in/guide.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Filename != "guide.pdf" || doc.Title != "guide" {
		t.Errorf("unexpected names %q / %q", doc.Filename, doc.Title)
	}
	if len(doc.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(doc.Pages))
	}

	first := doc.Pages[0].Spans
	if len(first) != 3 {
		t.Fatalf("expected 3 spans on page 1, got %d: %+v", len(first), first)
	}
	if first[1].Text != "Day 1: Arrival" || first[1].Size != 18 || !first[1].Bold {
		t.Errorf("unexpected heading span %+v", first[1])
	}
	if first[2].Bold {
		t.Error("expected body span not bold")
	}
	if doc.Pages[1].Spans[0].Page != 2 {
		t.Errorf("expected page 2, got %d", doc.Pages[1].Spans[0].Page)
	}
	if !strings.Contains(doc.Pages[1].Text, "harbour") {
		t.Errorf("expected plain text for page 2, got %q", doc.Pages[1].Text)
	}
}

func TestPDFCollector_Malformed(t *testing.T) {
	_, err := (&PDFCollector{}).Collect(strings.NewReader("not a pdf"), "bad.pdf")
	if err == nil {
		t.Fatal("expected error for malformed pdf")
	}
}

func TestCSVCollector_RowBatches(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("city,day,activity\n")
	for i := range 22 {
		fmt.Fprintf(&sb, "Nice,%d,walk\n", i+1)
	}
	sb.WriteString("Lyon,,museum\n")

	doc, err := (&CSVCollector{}).Collect(strings.NewReader(sb.String()), "trips.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := doc.Spans()
	// 2 headings + 23 rows
	if len(got) != 25 {
		t.Fatalf("expected 25 spans, got %d", len(got))
	}
	if got[0].Text != "Rows 2-21" || got[0].Size != 18 || !got[0].Bold {
		t.Errorf("unexpected first heading %+v", got[0])
	}
	if got[1].Text != "city: Nice, day: 1, activity: walk" {
		t.Errorf("unexpected row text %q", got[1].Text)
	}
	if got[21].Text != "Rows 22-24" {
		t.Errorf("expected second heading, got %q", got[21].Text)
	}
	if last := got[24].Text; last != "city: Lyon, activity: museum" {
		t.Errorf("expected empty cell skipped, got %q", last)
	}
	if doc.Title != "trips" {
		t.Errorf("expected stem title, got %q", doc.Title)
	}
}
