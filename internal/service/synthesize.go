package service

import (
	"context"
	"fmt"
	"strings"

	"ragkb/internal/domain"
)

// InsufficientKnowledge is the fixed reply for questions the knowledge
// base has no material for. It is a user-visible sentinel, not an error.
const InsufficientKnowledge = "I don't have enough knowledge to answer that yet. Ingest some material and try again."

// PersonaDiviner gets special extractive framing with an explicit
// disclaimer that answers come from retrieval, not divination.
const PersonaDiviner = "diviner"

// maxSnippets bounds how many hits the extractive fallback quotes.
const maxSnippets = 3

// Synthesizer turns ranked hits into a final answer, either extractively
// or by delegating to a generative model.
type Synthesizer struct {
	generator    domain.Generator // nil when no generative model is configured
	previewChars int
}

func NewSynthesizer(generator domain.Generator, previewChars int) *Synthesizer {
	if previewChars <= 0 {
		previewChars = 400
	}
	return &Synthesizer{generator: generator, previewChars: previewChars}
}

// Synthesize composes the answer. The extractive path is deterministic
// for identical hits; the generative path is only as deterministic as the
// model behind it, and its failures propagate untouched.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, hits []domain.QueryHit, persona string, useGenerative bool) (string, error) {
	if len(hits) == 0 {
		return InsufficientKnowledge, nil
	}
	if useGenerative && s.generator != nil {
		answer, err := s.generator.Generate(ctx, buildPrompt(question, hits, persona))
		if err != nil {
			return "", &domain.CapabilityError{Stage: "generate answer", Err: err}
		}
		return answer, nil
	}
	return s.extractive(hits, persona), nil
}

func buildPrompt(question string, hits []domain.QueryHit, persona string) string {
	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.Chunk.Text
	}
	prompt := fmt.Sprintf(`You are a knowledge base assistant. Answer the question using the background information below.

Background:
---
%s
---

Question: %s
`, strings.Join(texts, "\n\n"), question)
	if persona != "" {
		prompt += fmt.Sprintf("\nAnswer in the voice of %s.\n", persona)
	}
	return prompt
}

func (s *Synthesizer) extractive(hits []domain.QueryHit, persona string) string {
	n := len(hits)
	if n > maxSnippets {
		n = maxSnippets
	}
	bullets := make([]string, 0, n)
	for _, h := range hits[:n] {
		bullets = append(bullets, "• "+s.preview(h.Chunk.Text))
	}
	base := strings.Join(bullets, "\n\n")

	if persona == PersonaDiviner {
		return fmt.Sprintf("[Knowledge Reading] The ingested material reveals these passages about your question:\n%s\n\nThis is a reasoned summary of retrieved knowledge, not divination.", base)
	}
	return fmt.Sprintf("The most relevant points from the knowledge base:\n%s", base)
}

// preview flattens line breaks and truncates to the configured length.
func (s *Synthesizer) preview(text string) string {
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) <= s.previewChars {
		return flat
	}
	return string(runes[:s.previewChars]) + "..."
}
