package service

import (
	"context"
	"strings"

	"github.com/cloo-solutions/docqa/internal/domain"
)

// ChunkSearcher defines the vector-index read interface used by retrieval
type ChunkSearcher interface {
	Search(ctx context.Context, vector []float32, topK int, minScore float32) ([]domain.RetrievedChunk, error)
}

// RetrievalService embeds a query and returns the best-matching chunks
// from the index, most similar first.
type RetrievalService struct {
	embedder EmbeddingClient
	searcher ChunkSearcher
}

func NewRetrievalService(embedder EmbeddingClient, searcher ChunkSearcher) *RetrievalService {
	return &RetrievalService{embedder: embedder, searcher: searcher}
}

// Retrieve returns up to topK chunks with similarity >= minScore. An
// empty index or a query matching nothing yields an empty result, not an
// error.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, topK int, minScore float32) (*domain.RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}

	vector, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}

	chunks, err := s.searcher.Search(ctx, vector, topK, minScore)
	if err != nil {
		return nil, err
	}

	return &domain.RetrievalResult{Chunks: chunks}, nil
}
