package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragkb/internal/domain"
)

type fakePipeline struct {
	answer       string
	hits         []domain.QueryHit
	answerErr    error
	ingestErr    error
	sources      map[string]domain.Source
	ingestedPath string
}

func (f *fakePipeline) IngestFile(_ context.Context, path, hint string) (string, int, error) {
	f.ingestedPath = path
	if f.ingestErr != nil {
		return "", 0, f.ingestErr
	}
	return "file-id", 2, nil
}

func (f *fakePipeline) IngestURL(_ context.Context, rawURL, hint string) (string, int, error) {
	if f.ingestErr != nil {
		return "", 0, f.ingestErr
	}
	return rawURL, 3, nil
}

func (f *fakePipeline) Answer(_ context.Context, question string, topK int, persona string, generative bool) (string, []domain.QueryHit, error) {
	return f.answer, f.hits, f.answerErr
}

func (f *fakePipeline) Sources() (map[string]domain.Source, error) {
	return f.sources, nil
}

func newTestServer(t *testing.T, p *fakePipeline) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(":0", p, zerolog.Nop()).Handler)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &fakePipeline{})
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestQueryReturnsAnswerAndHits(t *testing.T) {
	p := &fakePipeline{
		answer: "the answer",
		hits:   []domain.QueryHit{{Score: 0.8, Chunk: domain.Chunk{ID: "c1", Text: "passage"}}},
	}
	srv := newTestServer(t, p)

	resp := postJSON(t, srv.URL+"/query", map[string]any{"question": "why?", "top_k": 3})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Answer string            `json:"answer"`
		Hits   []domain.QueryHit `json:"hits"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "the answer", body.Answer)
	require.Len(t, body.Hits, 1)
	assert.Equal(t, "c1", body.Hits[0].Chunk.ID)
}

func TestQueryMissingQuestion(t *testing.T) {
	srv := newTestServer(t, &fakePipeline{})
	resp := postJSON(t, srv.URL+"/query", map[string]any{"top_k": 3})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQueryCapabilityFailureIsBadGateway(t *testing.T) {
	p := &fakePipeline{answerErr: &domain.CapabilityError{Stage: "embed question", Err: errors.New("down")}}
	srv := newTestServer(t, p)
	resp := postJSON(t, srv.URL+"/query", map[string]any{"question": "why?"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestIngestFileSpoolsPerRequestAndCleansUp(t *testing.T) {
	p := &fakePipeline{}
	srv := newTestServer(t, p)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/ingest/file", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		SourceID string `json:"source_id"`
		Chunks   int    `json:"chunks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "file-id", body.SourceID)
	assert.Equal(t, 2, body.Chunks)

	// the loader sniffs by extension, so the spooled name must keep it
	assert.Equal(t, ".txt", filepath.Ext(p.ingestedPath))
	_, statErr := os.Stat(p.ingestedPath)
	assert.True(t, os.IsNotExist(statErr), "spool file %s was not removed", p.ingestedPath)
}

func TestIngestFileMissingFormField(t *testing.T) {
	srv := newTestServer(t, &fakePipeline{})
	resp, err := http.Post(srv.URL+"/ingest/file", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIngestURL(t *testing.T) {
	srv := newTestServer(t, &fakePipeline{})
	resp := postJSON(t, srv.URL+"/ingest/url", map[string]any{"url": "https://example.com/page"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		SourceID string `json:"source_id"`
		Chunks   int    `json:"chunks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "https://example.com/page", body.SourceID)
	assert.Equal(t, 3, body.Chunks)
}

func TestIngestURLMissingURL(t *testing.T) {
	srv := newTestServer(t, &fakePipeline{})
	resp := postJSON(t, srv.URL+"/ingest/url", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIngestURLValidationFailureIsBadRequest(t *testing.T) {
	p := &fakePipeline{ingestErr: domain.ErrInvalidURL}
	srv := newTestServer(t, p)
	resp := postJSON(t, srv.URL+"/ingest/url", map[string]any{"url": "nope"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSources(t *testing.T) {
	p := &fakePipeline{sources: map[string]domain.Source{
		"doc": {SourceID: "doc", Kind: domain.SourceFile, Title: "doc"},
	}}
	srv := newTestServer(t, p)

	resp, err := http.Get(srv.URL + "/sources")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]domain.Source
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body, "doc")
}
