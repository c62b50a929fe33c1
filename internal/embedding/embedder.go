// Package embedding is the boundary to the embedding model plus a
// content-keyed cache in front of it.
package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Embedder returns one vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// Options selects and configures an Embedder.
type Options struct {
	Provider string // "ollama" or "hash"
	Model    string
	BaseURL  string
	Timeout  time.Duration
	Dims     int // hash provider only
}

// New builds the Embedder named by opts.Provider.
func New(opts Options) (Embedder, error) {
	switch strings.ToLower(opts.Provider) {
	case "", "ollama":
		return NewOllamaEmbedder(opts.BaseURL, opts.Model, opts.Timeout)
	case "hash":
		return NewHashEmbedder(opts.Dims), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", opts.Provider)
	}
}
