package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloo-solutions/docqa/internal/api/handlers"
	"github.com/cloo-solutions/docqa/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRAGService struct {
	mock.Mock
}

func (m *MockRAGService) Query(ctx context.Context, query, language string) (*domain.Answer, error) {
	args := m.Called(ctx, query, language)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Answer), args.Error(1)
}

func (m *MockRAGService) Ingest(ctx context.Context, doc *domain.Document) (*domain.IngestResult, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IngestResult), args.Error(1)
}

func (m *MockRAGService) DocumentChunkCount(ctx context.Context, documentID string) (int, error) {
	args := m.Called(ctx, documentID)
	return args.Int(0), args.Error(1)
}

func (m *MockRAGService) DeleteDocument(ctx context.Context, documentID string) (int64, error) {
	args := m.Called(ctx, documentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRAGService) IsReady(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func setupRouter() (http.Handler, *MockRAGService) {
	svc := new(MockRAGService)
	router := NewRouter(RouterConfig{RAGHandler: handlers.NewRAGHandler(svc)})
	return router, svc
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
}

func TestRouter_ReadyEndpoint(t *testing.T) {
	router, svc := setupRouter()

	svc.On("IsReady", mock.Anything).Return(false).Once()
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	svc.On("IsReady", mock.Anything).Return(true).Once()
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_QueryEndpoint(t *testing.T) {
	router, svc := setupRouter()

	svc.On("Query", mock.Anything, "hello?", "en").Return(&domain.Answer{
		Text:       "hi",
		Sources:    []string{"doc"},
		Confidence: 0.5,
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"query": "hello?", "lang": "en"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_DocumentsEndpoint(t *testing.T) {
	router, svc := setupRouter()

	svc.On("Ingest", mock.Anything, mock.Anything).Return(&domain.IngestResult{
		DocumentID:    "notes.txt",
		ChunksIndexed: 1,
		ChunkIDs:      []string{"id-1"},
	}, nil)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/documents", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRouter_DocumentByIDEndpoints(t *testing.T) {
	router, svc := setupRouter()

	svc.On("DocumentChunkCount", mock.Anything, "notes.txt").Return(3, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/documents/notes.txt", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	svc.On("DeleteDocument", mock.Anything, "notes.txt").Return(int64(3), nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/documents/notes.txt", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// No archive wired into this router, so re-ingestion is unavailable.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/documents/notes.txt/reingest", nil))
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestRouter_RejectsOversizedBody(t *testing.T) {
	router, _ := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader("{}"))
	req.ContentLength = 64 * 1024 * 1024
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRouter_UnknownRoute(t *testing.T) {
	router, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
