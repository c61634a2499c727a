package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragkb/internal/domain"
)

func intPtr(v int) *int { return &v }

func TestChunkLogAppendLoadRoundTrip(t *testing.T) {
	log := NewChunkLog(filepath.Join(t.TempDir(), "chunks.jsonl"))

	first := domain.Chunk{
		ID:          "c1",
		SourceID:    "notes.txt",
		Text:        "first chunk\nwith a newline",
		Metadata:    map[string]any{"path": "/tmp/notes.txt", "offset": 0},
		VectorIndex: intPtr(0),
	}
	second := domain.Chunk{
		ID:          "c2",
		SourceID:    "notes.txt",
		Text:        "second chunk",
		VectorIndex: intPtr(1),
	}
	require.NoError(t, log.Append(first))
	require.NoError(t, log.Append(second))

	chunks, err := log.LoadAll()
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "c1", chunks[0].ID)
	assert.Equal(t, first.Text, chunks[0].Text)
	assert.Equal(t, 0, *chunks[0].VectorIndex)
	assert.Equal(t, 1, *chunks[1].VectorIndex)
	// JSON numbers decode as float64 in an open map
	assert.EqualValues(t, 0, chunks[0].Metadata["offset"])
}

func TestChunkLogMissingFileIsEmpty(t *testing.T) {
	log := NewChunkLog(filepath.Join(t.TempDir(), "missing.jsonl"))
	chunks, err := log.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunkLogByPosition(t *testing.T) {
	log := NewChunkLog(filepath.Join(t.TempDir(), "chunks.jsonl"))
	require.NoError(t, log.Append(domain.Chunk{ID: "a", VectorIndex: intPtr(0)}))
	require.NoError(t, log.Append(domain.Chunk{ID: "unindexed"}))
	require.NoError(t, log.Append(domain.Chunk{ID: "b", VectorIndex: intPtr(1)}))

	byPos, err := log.ByPosition()
	require.NoError(t, err)
	require.Len(t, byPos, 2)
	assert.Equal(t, "a", byPos[0].ID)
	assert.Equal(t, "b", byPos[1].ID)
}

func TestSourceRegistryRoundTrip(t *testing.T) {
	reg := NewSourceRegistry(filepath.Join(t.TempDir(), "sources.json"))

	sources, err := reg.Load()
	require.NoError(t, err)
	assert.Empty(t, sources)

	sources["notes.txt"] = domain.Source{
		SourceID: "notes.txt",
		Kind:     domain.SourceFile,
		Title:    "notes.txt",
		Meta:     map[string]any{"ext": ".txt"},
	}
	require.NoError(t, reg.Save(sources))

	loaded, err := reg.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, domain.SourceFile, loaded["notes.txt"].Kind)
}

func TestSourceRegistryLastWriteWins(t *testing.T) {
	reg := NewSourceRegistry(filepath.Join(t.TempDir(), "sources.json"))

	require.NoError(t, reg.Save(map[string]domain.Source{
		"doc": {SourceID: "doc", Kind: domain.SourceFile, Title: "old title"},
	}))
	require.NoError(t, reg.Save(map[string]domain.Source{
		"doc": {SourceID: "doc", Kind: domain.SourceURL, Title: "new title"},
	}))

	loaded, err := reg.Load()
	require.NoError(t, err)
	assert.Equal(t, "new title", loaded["doc"].Title)
	assert.Equal(t, domain.SourceURL, loaded["doc"].Kind)
}
