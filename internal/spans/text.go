package spans

import (
	"bufio"
	"io"
)

// TextCollector handles plain text files. Each non-blank line is one body
// span; header detection then works on the text alone.
type TextCollector struct{}

func (c *TextCollector) Collect(r io.Reader, filename string) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var b blockBuilder
	for scanner.Scan() {
		b.add(scanner.Text(), 0)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return b.document(filename, Stem(filename)), nil
}
