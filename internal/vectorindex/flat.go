package vectorindex

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"ragkb/internal/domain"
)

// Flat is an exact inner-product similarity index over unit vectors.
// It is strictly append-only: rows get consecutive positions starting at
// zero and are never moved or removed, so a row's position is a stable
// join key for the chunk log.
type Flat struct {
	mu          sync.RWMutex
	dim         int
	fingerprint string
	vectors     [][]float32
}

// snapshot is the persisted blob layout.
type snapshot struct {
	Dim         int
	Fingerprint string
	Vectors     [][]float32
}

// New creates an empty index for vectors of the given dimension, bound to
// the embedder fingerprint that will produce them.
func New(dim int, fingerprint string) *Flat {
	return &Flat{dim: dim, fingerprint: fingerprint}
}

// Open loads the index blob at path, or creates an empty index when the
// file does not exist. An existing blob built with a different embedding
// model or dimension is rejected: its scores would be meaningless.
func Open(path string, dim int, fingerprint string) (*Flat, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return New(dim, fingerprint), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	defer f.Close()

	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	if snap.Fingerprint != fingerprint {
		return nil, fmt.Errorf("%w: index built with %q, configured %q",
			domain.ErrModelMismatch, snap.Fingerprint, fingerprint)
	}
	if snap.Dim != dim {
		return nil, fmt.Errorf("%w: index dimension %d, configured %d",
			domain.ErrDimensionMismatch, snap.Dim, dim)
	}
	return &Flat{dim: snap.Dim, fingerprint: snap.Fingerprint, vectors: snap.Vectors}, nil
}

// Save writes the index blob to path, creating parent directories.
func (f *Flat) Save(path string) error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer out.Close()

	snap := snapshot{Dim: f.dim, Fingerprint: f.fingerprint, Vectors: f.vectors}
	if err := gob.NewEncoder(out).Encode(&snap); err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	return nil
}

// Add appends vectors in order and returns the position assigned to the
// first one; the rest get consecutive positions. The return value equals
// the index size before the call.
func (f *Flat) Add(vecs [][]float32) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, v := range vecs {
		if len(v) != f.dim {
			return 0, fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(v), f.dim)
		}
	}
	start := len(f.vectors)
	f.vectors = append(f.vectors, vecs...)
	return start, nil
}

// Search returns up to k (score, position) pairs by descending inner
// product. When fewer than k vectors exist, remaining slots carry
// position -1 and must be filtered by the caller. Equal scores come back
// in insertion order.
func (f *Flat) Search(query []float32, k int) ([]float32, []int) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	scores := make([]float32, 0, len(f.vectors))
	for _, v := range f.vectors {
		scores = append(scores, dot(query, v))
	}
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})

	outScores := make([]float32, k)
	outPositions := make([]int, k)
	for i := 0; i < k; i++ {
		if i < len(order) {
			outScores[i] = scores[order[i]]
			outPositions[i] = order[i]
		} else {
			outPositions[i] = -1
		}
	}
	return outScores, outPositions
}

// Size returns the number of stored vectors.
func (f *Flat) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.vectors)
}

// Dimension returns the vector dimension the index was created with.
func (f *Flat) Dimension() int { return f.dim }

func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
