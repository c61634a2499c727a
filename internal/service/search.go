package service

import (
	"context"
	"fmt"

	"ragkb/internal/domain"
)

// Search embeds the question and returns the nearest chunks by descending
// inner product. A non-positive topK falls back to the configured
// default. An empty index yields an empty result, not an error. Index
// positions without a matching chunk record are skipped rather than
// failing the whole query.
func (s *Service) Search(ctx context.Context, question string, topK int) ([]domain.QueryHit, error) {
	if topK <= 0 {
		topK = s.topK
	}
	if s.index.Size() == 0 {
		return nil, nil
	}

	vecs, err := s.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, &domain.CapabilityError{Stage: "embed question", Err: err}
	}
	scores, positions := s.index.Search(vecs[0], topK)

	byPos, err := s.chunks.ByPosition()
	if err != nil {
		return nil, fmt.Errorf("chunk lookup: %w", err)
	}

	hits := make([]domain.QueryHit, 0, topK)
	for i, pos := range positions {
		if pos < 0 {
			continue
		}
		c, ok := byPos[pos]
		if !ok {
			s.log.Warn().Int("position", pos).Msg("index position has no chunk record, skipping")
			continue
		}
		hits = append(hits, domain.QueryHit{Score: scores[i], Chunk: c})
	}
	return hits, nil
}

// Answer retrieves the chunks most relevant to the question and composes
// an answer from them.
func (s *Service) Answer(ctx context.Context, question string, topK int, persona string, generative bool) (string, []domain.QueryHit, error) {
	hits, err := s.Search(ctx, question, topK)
	if err != nil {
		return "", nil, err
	}
	answer, err := s.synth.Synthesize(ctx, question, hits, persona, generative)
	if err != nil {
		return "", hits, err
	}
	return answer, hits, nil
}
