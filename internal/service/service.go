package service

import (
	"sync"

	"github.com/rs/zerolog"

	"ragkb/internal/chunker"
	"ragkb/internal/domain"
	"ragkb/internal/loader"
	"ragkb/internal/store"
	"ragkb/internal/vectorindex"
)

// Service orchestrates the knowledge base: ingestion (loader → chunker →
// embedder → index/log/registry) and querying (embedder → index → log →
// synthesizer). Ingestion and querying share only the index and the
// chunk log.
type Service struct {
	splitter *chunker.Splitter
	embedder domain.Embedder
	index    *vectorindex.Flat
	chunks   *store.ChunkLog
	sources  *store.SourceRegistry
	docs     *loader.Loader
	synth    *Synthesizer

	indexPath string
	topK      int
	log       zerolog.Logger

	// mu serializes the whole add/append/save triad of an ingestion, so
	// vector positions stay monotonic under concurrent writers and no
	// query sees a half-written position range.
	mu sync.Mutex
}

// Deps carries the collaborators the service is assembled from.
type Deps struct {
	Splitter  *chunker.Splitter
	Embedder  domain.Embedder
	Index     *vectorindex.Flat
	IndexPath string
	Chunks    *store.ChunkLog
	Sources   *store.SourceRegistry
	Loader    *loader.Loader
	Synth     *Synthesizer
	TopK      int // default result count for queries that leave top_k unset
	Logger    zerolog.Logger
}

func New(d Deps) *Service {
	if d.TopK <= 0 {
		d.TopK = 5
	}
	return &Service{
		splitter:  d.Splitter,
		embedder:  d.Embedder,
		index:     d.Index,
		chunks:    d.Chunks,
		sources:   d.Sources,
		docs:      d.Loader,
		synth:     d.Synth,
		indexPath: d.IndexPath,
		topK:      d.TopK,
		log:       d.Logger,
	}
}

// Sources returns the registry of everything ingested so far.
func (s *Service) Sources() (map[string]domain.Source, error) {
	return s.sources.Load()
}
