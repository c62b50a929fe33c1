package spans

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// csvBatchSize is the number of data rows under each synthetic heading.
const csvBatchSize = 20

// CSVCollector handles CSV files. The first row names the columns; data
// rows are grouped under "Rows i-j" headings, one body span per row.
type CSVCollector struct{}

func (c *CSVCollector) Collect(r io.Reader, filename string) (*Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	var b blockBuilder
	if len(records) == 0 {
		return b.document(filename, Stem(filename)), nil
	}

	headers := records[0]
	rows := records[1:]
	for i := 0; i < len(rows); i += csvBatchSize {
		end := min(i+csvBatchSize, len(rows))
		b.add(fmt.Sprintf("Rows %d-%d", i+2, end+1), 2) // 1-indexed, skip header
		for _, row := range rows[i:end] {
			b.add(csvRowText(headers, row), 0)
		}
	}
	return b.document(filename, Stem(filename)), nil
}

func csvRowText(headers, row []string) string {
	parts := make([]string, 0, len(row))
	for j, cell := range row {
		if cell == "" {
			continue
		}
		if j < len(headers) && headers[j] != "" {
			parts = append(parts, headers[j]+": "+cell)
		} else {
			parts = append(parts, cell)
		}
	}
	return strings.Join(parts, ", ")
}
