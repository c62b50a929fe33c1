package digest

import (
	"errors"
	"fmt"
)

var (
	// ErrInputNotFound means input.json, the data directory or the PDF
	// directory is missing. Fatal.
	ErrInputNotFound = errors.New("input not found")

	// ErrDocumentParse means one document could not be opened or parsed.
	// The run skips that document.
	ErrDocumentParse = errors.New("document parse failed")

	// ErrEmptyCorpus means no document produced a rankable section or chunk.
	ErrEmptyCorpus = errors.New("no sections or chunks to rank")

	// ErrEmbeddingFailed means the embedding backend failed and nothing
	// could be scored.
	ErrEmbeddingFailed = errors.New("embedding failed")
)

// DocumentError is a single-document failure. It matches ErrDocumentParse
// under errors.Is.
type DocumentError struct {
	Filename string
	Err      error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("document %s: %v", e.Filename, e.Err)
}

func (e *DocumentError) Unwrap() []error {
	return []error{ErrDocumentParse, e.Err}
}
