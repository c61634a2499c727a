package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"ragkb/internal/domain"
)

// SourceRegistry keeps source metadata keyed by source id in a single
// JSON document. There is no partial-update API: callers load, mutate in
// memory and save. Last write wins.
type SourceRegistry struct {
	mu   sync.Mutex
	path string
}

func NewSourceRegistry(path string) *SourceRegistry {
	return &SourceRegistry{path: path}
}

// Load reads the whole registry. A missing file is an empty registry.
func (r *SourceRegistry) Load() (map[string]domain.Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return map[string]domain.Source{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}
	sources := map[string]domain.Source{}
	if err := json.Unmarshal(data, &sources); err != nil {
		return nil, fmt.Errorf("decode sources: %w", err)
	}
	return sources, nil
}

// Save replaces the whole registry document.
func (r *SourceRegistry) Save(sources map[string]domain.Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	data, err := json.MarshalIndent(sources, "", "  ")
	if err != nil {
		return fmt.Errorf("encode sources: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("write sources: %w", err)
	}
	return nil
}
