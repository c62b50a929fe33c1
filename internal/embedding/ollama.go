package embedding

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
)

// OllamaEmbedder calls a local or remote Ollama server's /api/embed.
type OllamaEmbedder struct {
	client *api.Client
	model  string
}

func NewOllamaEmbedder(baseURL, model string, timeout time.Duration) (*OllamaEmbedder, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		return nil, fmt.Errorf("ollama: model is required")
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	hc := &http.Client{Timeout: timeout}
	return &OllamaEmbedder{client: api.NewClient(u, hc), model: model}, nil
}

func (e *OllamaEmbedder) Model() string { return e.model }

// Embed sends texts as one batch. Rate limits, server errors and network
// failures come back as *RetryableError.
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.client.Embed(ctx, &api.EmbedRequest{
		Model: e.model,
		Input: texts,
	})
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama returned %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}

func classify(err error) error {
	var se api.StatusError
	if errors.As(err, &se) {
		if se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500 {
			return &RetryableError{StatusCode: se.StatusCode, Message: se.ErrorMessage}
		}
		return fmt.Errorf("ollama embed status %d: %s", se.StatusCode, se.ErrorMessage)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &RetryableError{Message: err.Error()}
	}
	return fmt.Errorf("ollama embed: %w", err)
}
