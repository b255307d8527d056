package service

import (
	"context"

	"github.com/cloo-solutions/docqa/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockEmbeddingClient struct {
	mock.Mock
}

func (m *MockEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

type MockChunkWriter struct {
	mock.Mock
}

func (m *MockChunkWriter) Upsert(ctx context.Context, record domain.ChunkRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

type MockChunkSearcher struct {
	mock.Mock
}

func (m *MockChunkSearcher) Search(ctx context.Context, vector []float32, topK int, minScore float32) ([]domain.RetrievedChunk, error) {
	args := m.Called(ctx, vector, topK, minScore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RetrievedChunk), args.Error(1)
}

type MockCompletionClient struct {
	mock.Mock
}

func (m *MockCompletionClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	args := m.Called(ctx, systemPrompt, userPrompt)
	return args.String(0), args.Error(1)
}

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) ExtractText(ctx context.Context, data []byte, contentType domain.ContentType) (string, error) {
	args := m.Called(ctx, data, contentType)
	return args.String(0), args.Error(1)
}

type MockRetriever struct {
	mock.Mock
}

func (m *MockRetriever) Retrieve(ctx context.Context, query string, topK int, minScore float32) (*domain.RetrievalResult, error) {
	args := m.Called(ctx, query, topK, minScore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RetrievalResult), args.Error(1)
}

type MockAnswerer struct {
	mock.Mock
}

func (m *MockAnswerer) Answer(ctx context.Context, query, language string, result *domain.RetrievalResult) (*domain.Answer, error) {
	args := m.Called(ctx, query, language, result)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Answer), args.Error(1)
}

type MockIngestor struct {
	mock.Mock
}

func (m *MockIngestor) Ingest(ctx context.Context, doc *domain.Document) (*domain.IngestResult, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IngestResult), args.Error(1)
}

type MockReadinessChecker struct {
	mock.Mock
}

func (m *MockReadinessChecker) HasAny(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

type MockDocumentIndex struct {
	mock.Mock
}

func (m *MockDocumentIndex) CountByDocument(ctx context.Context, documentID string) (int, error) {
	args := m.Called(ctx, documentID)
	return args.Int(0), args.Error(1)
}

func (m *MockDocumentIndex) DeleteByDocument(ctx context.Context, documentID string) (int64, error) {
	args := m.Called(ctx, documentID)
	return args.Get(0).(int64), args.Error(1)
}

type MockQueryLogWriter struct {
	mock.Mock
}

func (m *MockQueryLogWriter) CreateQueryLog(ctx context.Context, entry QueryLogEntry) (string, error) {
	args := m.Called(ctx, entry)
	return args.String(0), args.Error(1)
}
