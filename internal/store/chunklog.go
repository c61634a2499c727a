package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"ragkb/internal/domain"
)

// ChunkLog is an append-only record log of chunks, one JSON object per
// line. Records are never rewritten; a torn final record after a crash is
// the only possible corruption.
type ChunkLog struct {
	mu   sync.Mutex
	path string
}

func NewChunkLog(path string) *ChunkLog {
	return &ChunkLog{path: path}
}

// Append serializes one chunk record to the end of the log.
func (l *ChunkLog) Append(c domain.Chunk) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open chunk log: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode chunk: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append chunk: %w", err)
	}
	return nil
}

// LoadAll reads every record in file order. A missing log is an empty log.
func (l *ChunkLog) LoadAll() ([]domain.Chunk, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open chunk log: %w", err)
	}
	defer f.Close()

	var chunks []domain.Chunk
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var c domain.Chunk
		if err := json.Unmarshal(line, &c); err != nil {
			return nil, fmt.Errorf("decode chunk record: %w", err)
		}
		chunks = append(chunks, c)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan chunk log: %w", err)
	}
	return chunks, nil
}

// ByPosition maps vector positions to chunks for retrieval lookups.
// Chunks without an assigned position are skipped.
func (l *ChunkLog) ByPosition() (map[int]domain.Chunk, error) {
	chunks, err := l.LoadAll()
	if err != nil {
		return nil, err
	}
	byPos := make(map[int]domain.Chunk, len(chunks))
	for _, c := range chunks {
		if c.VectorIndex == nil {
			continue
		}
		byPos[*c.VectorIndex] = c
	}
	return byPos, nil
}
