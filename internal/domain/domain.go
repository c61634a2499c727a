package domain

// SourceKind tells how a source entered the knowledge base.
type SourceKind string

const (
	SourceFile SourceKind = "file"
	SourceURL  SourceKind = "url"
)

// Chunk is one embedded text window of a source document.
// VectorIndex is the position of its embedding inside the vector index,
// assigned exactly once at ingestion and never reused.
type Chunk struct {
	ID          string         `json:"id"`
	SourceID    string         `json:"source_id"`
	Text        string         `json:"text"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	VectorIndex *int           `json:"vector_index,omitempty"`
}

// Source describes one ingested document. Re-ingesting under the same
// SourceID overwrites this record but appends new chunks.
type Source struct {
	SourceID string         `json:"source_id"`
	Kind     SourceKind     `json:"kind"`
	Title    string         `json:"title"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// QueryHit is a retrieved chunk with its similarity score. Produced per
// query, never persisted.
type QueryHit struct {
	Score float32 `json:"score"`
	Chunk Chunk   `json:"chunk"`
}
