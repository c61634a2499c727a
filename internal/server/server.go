package server

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"ragkb/internal/domain"
)

// Pipeline is the server-facing surface of the knowledge base core.
type Pipeline interface {
	IngestFile(ctx context.Context, path, hint string) (string, int, error)
	IngestURL(ctx context.Context, rawURL, hint string) (string, int, error)
	Answer(ctx context.Context, question string, topK int, persona string, generative bool) (string, []domain.QueryHit, error)
	Sources() (map[string]domain.Source, error)
}

// New builds the HTTP server for the knowledge base API.
func New(addr string, pipeline Pipeline, log zerolog.Logger) *http.Server {
	h := &handlers{pipeline: pipeline, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /sources", h.handleSources)
	mux.HandleFunc("POST /ingest/file", h.handleIngestFile)
	mux.HandleFunc("POST /ingest/url", h.handleIngestURL)
	mux.HandleFunc("POST /query", h.handleQuery)

	return &http.Server{Addr: addr, Handler: mux}
}
