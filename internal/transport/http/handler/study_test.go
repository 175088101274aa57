package handler

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studybuddy/internal/ai"
	"studybuddy/internal/app"
	"studybuddy/internal/model"
)

type stubStore struct {
	matches  []model.RetrievedMatch
	err      error
	inserted []model.DocumentChunk
}

func (s *stubStore) InsertChunks(_ context.Context, chunks []model.DocumentChunk) error {
	s.inserted = append(s.inserted, chunks...)
	return nil
}

func (s *stubStore) SimilaritySearch(context.Context, []float32, float64, int, uint) ([]model.RetrievedMatch, error) {
	return s.matches, s.err
}

type stubEmbedder struct{}

func (stubEmbedder) Embed(context.Context, string) ([]float32, error) { return []float32{1}, nil }

func (stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1}
	}
	return out, nil
}

type stubCompleter struct {
	reply string
	err   error
}

func (s *stubCompleter) Complete(context.Context, ai.CompletionRequest) (string, error) {
	return s.reply, s.err
}

func newStudyRouter(store *stubStore, completer *stubCompleter) *gin.Engine {
	gin.SetMode(gin.TestMode)

	retrieval := app.NewRetrievalService(store, stubEmbedder{})
	studyService := app.NewStudyService(retrieval, completer, nil, nil, nil, "chat-model", "summary-model")
	ingestService := app.NewIngestService(store, stubEmbedder{})
	h := NewStudyHandler(ingestService, studyService)

	router := gin.New()
	router.POST("/api/study/upload", h.Upload)
	router.POST("/api/study/chat", h.Chat)
	router.POST("/api/study/summary", h.Summary)
	router.POST("/api/study/flashcards", h.Flashcards)
	router.GET("/api/study/history", h.History)
	return router
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestChatEndpointWithMatches(t *testing.T) {
	store := &stubStore{matches: []model.RetrievedMatch{
		{Content: "Cells divide by mitosis.", SourceFile: "bio.pdf", Similarity: 0.82},
	}}
	router := newStudyRouter(store, &stubCompleter{reply: "By mitosis."})

	w := doJSON(router, http.MethodPost, "/api/study/chat", `{"message": "how do cells divide?"}`)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"reply":"By mitosis."`)
	assert.Contains(t, body, `"context_used":true`)
	assert.Contains(t, body, `"source_number":1`)
	assert.Contains(t, body, `"filename":"bio.pdf"`)
}

func TestChatEndpointNoMatches(t *testing.T) {
	router := newStudyRouter(&stubStore{}, &stubCompleter{reply: "unused"})

	w := doJSON(router, http.MethodPost, "/api/study/chat", `{"message": "unrelated question"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"context_used":false`)
	assert.Contains(t, w.Body.String(), "upload relevant study materials")
}

func TestChatEndpointRejectsEmptyPayload(t *testing.T) {
	router := newStudyRouter(&stubStore{}, &stubCompleter{})

	w := doJSON(router, http.MethodPost, "/api/study/chat", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatEndpointRetrievalFailureIsBadGateway(t *testing.T) {
	store := &stubStore{err: errors.New("store unreachable")}
	router := newStudyRouter(store, &stubCompleter{})

	w := doJSON(router, http.MethodPost, "/api/study/chat", `{"message": "q"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestSummaryEndpoint(t *testing.T) {
	router := newStudyRouter(&stubStore{}, &stubCompleter{reply: "Short summary."})

	w := doJSON(router, http.MethodPost, "/api/study/summary", `{"message": "long text to condense"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"summary":"Short summary."`)
}

func TestFlashcardsEndpointMalformedModelOutput(t *testing.T) {
	store := &stubStore{matches: []model.RetrievedMatch{
		{Content: "notes", SourceFile: "a.pdf", Similarity: 0.5},
	}}
	router := newStudyRouter(store, &stubCompleter{reply: "not json at all"})

	w := doJSON(router, http.MethodPost, "/api/study/flashcards", `{}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"parsed":false`)
	assert.Contains(t, w.Body.String(), `"count":1`)
}

func TestUploadEndpointRejectsNonNumericSessionID(t *testing.T) {
	store := &stubStore{}
	router := newStudyRouter(store, &stubCompleter{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "notes.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("session_id", "abc"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/study/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid session id")
	assert.Empty(t, store.inserted)
}

func TestHistoryEndpointRejectsNonNumericSessionID(t *testing.T) {
	router := newStudyRouter(&stubStore{}, &stubCompleter{})

	req := httptest.NewRequest(http.MethodGet, "/api/study/history?session_id=abc", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid session id")
}

func TestHistoryEndpointRequiresSessionID(t *testing.T) {
	router := newStudyRouter(&stubStore{}, &stubCompleter{})

	req := httptest.NewRequest(http.MethodGet, "/api/study/history", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
