package domain

import "context"

// Embedder maps texts to equal-length unit-normalized vectors of a fixed
// dimension. All texts of a batch are embedded in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	// Fingerprint identifies the provider and model. Vectors from different
	// fingerprints live in different spaces and must never be mixed.
	Fingerprint() string
}

// Generator produces a free-form completion for a single prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
