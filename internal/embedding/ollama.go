package embedding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"

	"ragkb/internal/domain"
)

// Ollama embeds texts through a local Ollama server.
type Ollama struct {
	client    *api.Client
	model     string
	dimension int
}

// NewOllama connects to host, or to OLLAMA_HOST/localhost when host is
// empty.
func NewOllama(host, model string, dimension int) (*Ollama, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension %d", dimension)
	}
	var client *api.Client
	if host == "" {
		c, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("ollama client: %w", err)
		}
		client = c
	} else {
		u, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("ollama host: %w", err)
		}
		client = api.NewClient(u, http.DefaultClient)
	}
	return &Ollama{client: client, model: model, dimension: dimension}, nil
}

// Embed returns one unit-normalized vector per input text, in order.
func (e *Ollama) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.client.Embed(ctx, &api.EmbedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("ollama embeddings: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama embeddings: got %d vectors for %d inputs", len(resp.Embeddings), len(texts))
	}

	vecs := make([][]float32, len(resp.Embeddings))
	for i, raw := range resp.Embeddings {
		if len(raw) != e.dimension {
			return nil, fmt.Errorf("%w: model %s returned %d dims, configured %d",
				domain.ErrDimensionMismatch, e.model, len(raw), e.dimension)
		}
		v := make([]float32, len(raw))
		copy(v, raw)
		normalize(v)
		vecs[i] = v
	}
	return vecs, nil
}

func (e *Ollama) Dimension() int { return e.dimension }

func (e *Ollama) Fingerprint() string { return "ollama/" + e.model }
