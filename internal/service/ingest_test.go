package service

import (
	"context"
	"strings"
	"testing"

	"github.com/cloo-solutions/docqa/internal/chunker"
	"github.com/cloo-solutions/docqa/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newIngestFixture(t *testing.T, workers int) (*IngestService, *MockExtractor, *MockEmbeddingClient, *MockChunkWriter) {
	t.Helper()
	extractor := new(MockExtractor)
	embedder := new(MockEmbeddingClient)
	store := new(MockChunkWriter)

	svc, err := NewIngestService(extractor, embedder, store,
		chunker.Config{MaxChars: 10, Overlap: 0}, workers)
	require.NoError(t, err)
	return svc, extractor, embedder, store
}

func TestChunkID_Deterministic(t *testing.T) {
	a := ChunkID("doc-1", 0)
	b := ChunkID("doc-1", 0)
	c := ChunkID("doc-1", 1)
	d := ChunkID("doc-2", 0)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
}

func TestNewIngestService_InvalidChunkConfig(t *testing.T) {
	_, err := NewIngestService(new(MockExtractor), new(MockEmbeddingClient), new(MockChunkWriter),
		chunker.Config{MaxChars: 100, Overlap: 100}, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidChunkConfig)
}

func TestIngest_Success(t *testing.T) {
	svc, extractor, embedder, store := newIngestFixture(t, 2)

	doc := &domain.Document{
		ID:          "doc-1",
		Content:     []byte("raw bytes"),
		ContentType: domain.ContentTypeText,
	}
	// 30 chars, no breaks: three hard-split chunks of 10.
	text := strings.Repeat("a", 10) + strings.Repeat("b", 10) + strings.Repeat("c", 10)

	extractor.On("ExtractText", mock.Anything, doc.Content, domain.ContentTypeText).Return(text, nil)
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{0.1, 0.2}, nil)
	store.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.Ingest(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, "doc-1", result.DocumentID)
	assert.Equal(t, 3, result.ChunksIndexed)
	require.Len(t, result.ChunkIDs, 3)
	assert.Equal(t, ChunkID("doc-1", 0), result.ChunkIDs[0])
	assert.Equal(t, ChunkID("doc-1", 1), result.ChunkIDs[1])
	assert.Equal(t, ChunkID("doc-1", 2), result.ChunkIDs[2])

	embedder.AssertNumberOfCalls(t, "GenerateEmbedding", 3)
	store.AssertNumberOfCalls(t, "Upsert", 3)
}

func TestIngest_BlankTextYieldsNoChunks(t *testing.T) {
	svc, extractor, embedder, store := newIngestFixture(t, 1)

	doc := &domain.Document{ID: "doc-1", Content: []byte("  "), ContentType: domain.ContentTypeText}
	extractor.On("ExtractText", mock.Anything, doc.Content, domain.ContentTypeText).Return("   \n\t ", nil)

	result, err := svc.Ingest(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, 0, result.ChunksIndexed)
	assert.Empty(t, result.ChunkIDs)
	embedder.AssertNotCalled(t, "GenerateEmbedding", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestIngest_InvalidDocument(t *testing.T) {
	svc, _, _, _ := newIngestFixture(t, 1)

	_, err := svc.Ingest(context.Background(), &domain.Document{
		ID:          "doc-1",
		Content:     nil,
		ContentType: domain.ContentTypeText,
	})
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)

	_, err = svc.Ingest(context.Background(), &domain.Document{
		ID:          "doc-1",
		Content:     []byte("x"),
		ContentType: "image/png",
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestIngest_ExtractorErrorPropagates(t *testing.T) {
	svc, extractor, embedder, _ := newIngestFixture(t, 1)

	doc := &domain.Document{ID: "doc-1", Content: []byte("%PDF"), ContentType: domain.ContentTypePDF}
	parseErr := domain.NewDomainError(domain.ErrCodeParseError, "pdftotext failed")
	extractor.On("ExtractText", mock.Anything, doc.Content, domain.ContentTypePDF).Return("", parseErr)

	_, err := svc.Ingest(context.Background(), doc)

	require.Error(t, err)
	var de *domain.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.ErrCodeParseError, de.Code)
	embedder.AssertNotCalled(t, "GenerateEmbedding", mock.Anything, mock.Anything)
}

func TestIngest_PartialFailureThenConvergentRetry(t *testing.T) {
	// workers=1 keeps chunk order deterministic for the failure injection.
	svc, extractor, embedder, store := newIngestFixture(t, 1)

	doc := &domain.Document{
		ID:          "doc-1",
		Content:     []byte("raw bytes"),
		ContentType: domain.ContentTypeText,
	}
	chunkA := strings.Repeat("a", 10)
	chunkB := strings.Repeat("b", 10)
	chunkC := strings.Repeat("c", 10)
	text := chunkA + chunkB + chunkC

	extractor.On("ExtractText", mock.Anything, doc.Content, domain.ContentTypeText).Return(text, nil)
	embedder.On("GenerateEmbedding", mock.Anything, chunkA).Return([]float32{0.1}, nil).Once()
	embedder.On("GenerateEmbedding", mock.Anything, chunkB).Return([]float32{0.2}, nil).Once()
	embedder.On("GenerateEmbedding", mock.Anything, chunkC).Return(nil, domain.ErrEmbeddingUnavailable).Once()
	store.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.Ingest(context.Background(), doc)

	var pie *domain.PartialIngestionError
	require.ErrorAs(t, err, &pie)
	assert.Equal(t, "doc-1", pie.DocumentID)
	assert.Equal(t, 2, pie.Committed)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	// Retrying the whole document re-upserts every chunk under the same
	// ids, so the partially written index converges instead of duplicating.
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{0.3}, nil)

	result, err := svc.Ingest(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, 3, result.ChunksIndexed)
	assert.Equal(t, ChunkID("doc-1", 0), result.ChunkIDs[0])
	assert.Equal(t, ChunkID("doc-1", 2), result.ChunkIDs[2])

	// 5 successful upserts total: 2 before the failure, 3 on retry.
	store.AssertNumberOfCalls(t, "Upsert", 5)
}

func TestIngest_UpsertFailureReportsCommitted(t *testing.T) {
	svc, extractor, embedder, store := newIngestFixture(t, 1)

	doc := &domain.Document{ID: "doc-1", Content: []byte("x"), ContentType: domain.ContentTypeText}
	text := strings.Repeat("a", 10) + strings.Repeat("b", 10)

	extractor.On("ExtractText", mock.Anything, doc.Content, domain.ContentTypeText).Return(text, nil)
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{0.1}, nil)
	store.On("Upsert", mock.Anything, mock.MatchedBy(func(r domain.ChunkRecord) bool {
		return r.ChunkIndex == 0
	})).Return(nil)
	store.On("Upsert", mock.Anything, mock.MatchedBy(func(r domain.ChunkRecord) bool {
		return r.ChunkIndex == 1
	})).Return(domain.ErrDimensionMismatch)

	_, err := svc.Ingest(context.Background(), doc)

	var pie *domain.PartialIngestionError
	require.ErrorAs(t, err, &pie)
	assert.Equal(t, 1, pie.Committed)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}
