package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"ragkb/internal/domain"
)

type handlers struct {
	pipeline Pipeline
	log      zerolog.Logger
}

func (h *handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *handlers) handleSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.pipeline.Sources()
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sources)
}

func (h *handlers) handleIngestFile(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing form field 'file'"})
		return
	}
	defer file.Close()

	// Spool the upload to disk so the loader can sniff it by extension.
	// The directory is per request, so concurrent uploads of the same
	// filename cannot clobber each other.
	dir, err := os.MkdirTemp("", "ragkb-upload-")
	if err != nil {
		h.writeError(w, err)
		return
	}
	defer os.RemoveAll(dir)
	tmpPath := filepath.Join(dir, filepath.Base(header.Filename))
	out, err := os.Create(tmpPath)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		h.writeError(w, err)
		return
	}
	out.Close()

	sid, n, err := h.pipeline.IngestFile(r.Context(), tmpPath, r.FormValue("source_id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"source_id": sid, "chunks": n})
}

func (h *handlers) handleIngestURL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL      string `json:"url"`
		SourceID string `json:"source_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing 'url'"})
		return
	}
	sid, n, err := h.pipeline.IngestURL(r.Context(), req.URL, req.SourceID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"source_id": sid, "chunks": n})
}

func (h *handlers) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question   string `json:"question"`
		TopK       int    `json:"top_k"`
		Persona    string `json:"persona"`
		Generative bool   `json:"generative"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing 'question'"})
		return
	}
	answer, hits, err := h.pipeline.Answer(r.Context(), req.Question, req.TopK, req.Persona, req.Generative)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if hits == nil {
		hits = []domain.QueryHit{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"answer": answer, "hits": hits})
}

// writeError maps the core's error taxonomy onto status codes: input
// validation is the client's fault, external capability failures are a
// bad gateway, the rest is internal.
func (h *handlers) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var capErr *domain.CapabilityError
	switch {
	case errors.Is(err, domain.ErrUnsupportedType),
		errors.Is(err, domain.ErrInvalidURL),
		errors.Is(err, domain.ErrMissingSourceID):
		status = http.StatusBadRequest
	case errors.As(err, &capErr):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
