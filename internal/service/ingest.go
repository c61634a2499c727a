package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"ragkb/internal/domain"
)

// IngestFile loads a local document and ingests it. The source id
// defaults to the file name when no hint is given. Unsupported extensions
// fail before any state is touched.
func (s *Service) IngestFile(ctx context.Context, path, hint string) (string, int, error) {
	text, err := s.docs.LoadFile(path)
	if err != nil {
		return "", 0, err
	}

	sid := hint
	if sid == "" {
		sid = filepath.Base(path)
	}
	meta := map[string]any{"ext": strings.ToLower(filepath.Ext(path))}
	if info, err := os.Stat(path); err == nil {
		meta["mtime"] = info.ModTime().Unix()
	}
	src := domain.Source{
		SourceID: sid,
		Kind:     domain.SourceFile,
		Title:    filepath.Base(path),
		Meta:     meta,
	}
	n, err := s.IngestText(ctx, text, src, map[string]any{"path": path})
	return sid, n, err
}

// IngestURL fetches a web page and ingests it. The source id defaults to
// the URL when no hint is given.
func (s *Service) IngestURL(ctx context.Context, rawURL, hint string) (string, int, error) {
	text, err := s.docs.LoadURL(ctx, rawURL)
	if err != nil {
		return "", 0, err
	}

	sid := hint
	if sid == "" {
		sid = rawURL
	}
	src := domain.Source{
		SourceID: sid,
		Kind:     domain.SourceURL,
		Title:    rawURL,
		Meta:     map[string]any{},
	}
	n, err := s.IngestText(ctx, text, src, map[string]any{"url": rawURL})
	return sid, n, err
}

// IngestText splits the document, embeds every chunk in one batch, and
// records vectors, chunk records and the source entry. Positions are
// assigned sequentially from the index size before the add, and chunk
// metadata carries the provenance fields plus the chunk's ordinal offset.
//
// Ingestion is best effort, not atomic: on a mid-stream failure the
// chunks recorded so far stay, and the error names the failing stage.
func (s *Service) IngestText(ctx context.Context, text string, src domain.Source, provenance map[string]any) (int, error) {
	if src.SourceID == "" {
		return 0, domain.ErrMissingSourceID
	}

	pieces := s.splitter.Split(text)

	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	if len(pieces) > 0 {
		vecs, err := s.embedder.Embed(ctx, pieces)
		if err != nil {
			return 0, &domain.CapabilityError{Stage: "embed chunks", Err: err}
		}
		start, err := s.index.Add(vecs)
		if err != nil {
			return 0, fmt.Errorf("index add: %w", err)
		}
		for i, piece := range pieces {
			meta := make(map[string]any, len(provenance)+1)
			for k, v := range provenance {
				meta[k] = v
			}
			meta["offset"] = i
			pos := start + i
			record := domain.Chunk{
				ID:          uuid.NewString(),
				SourceID:    src.SourceID,
				Text:        piece,
				Metadata:    meta,
				VectorIndex: &pos,
			}
			if err := s.chunks.Append(record); err != nil {
				return added, fmt.Errorf("chunk log: %w", err)
			}
			added++
		}
		if err := s.index.Save(s.indexPath); err != nil {
			return added, fmt.Errorf("index save: %w", err)
		}
	}

	sources, err := s.sources.Load()
	if err != nil {
		return added, fmt.Errorf("sources load: %w", err)
	}
	src.Meta = withIngestedAt(src.Meta)
	sources[src.SourceID] = src
	if err := s.sources.Save(sources); err != nil {
		return added, fmt.Errorf("sources save: %w", err)
	}

	s.log.Info().
		Str("source_id", src.SourceID).
		Str("kind", string(src.Kind)).
		Int("chunks", added).
		Int("index_size", s.index.Size()).
		Msg("ingested document")
	return added, nil
}

func withIngestedAt(meta map[string]any) map[string]any {
	if meta == nil {
		meta = map[string]any{}
	}
	meta["ingested_at"] = time.Now().Unix()
	return meta
}
