package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cloo-solutions/docqa/internal/domain"
	"github.com/cloo-solutions/docqa/internal/telemetry"
)

// Retriever defines the interface for fetching evidence for a query
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int, minScore float32) (*domain.RetrievalResult, error)
}

// Answerer defines the interface for synthesizing a grounded answer
type Answerer interface {
	Answer(ctx context.Context, query, language string, result *domain.RetrievalResult) (*domain.Answer, error)
}

// Ingestor defines the interface for indexing a document
type Ingestor interface {
	Ingest(ctx context.Context, doc *domain.Document) (*domain.IngestResult, error)
}

// ReadinessChecker reports whether the index can serve queries.
type ReadinessChecker interface {
	HasAny(ctx context.Context) (bool, error)
}

// DocumentIndex exposes per-document index bookkeeping: how many chunks
// a document contributed and removing them all.
type DocumentIndex interface {
	CountByDocument(ctx context.Context, documentID string) (int, error)
	DeleteByDocument(ctx context.Context, documentID string) (int64, error)
}

// QueryLogEntry is the per-query outcome recorded for evaluation.
type QueryLogEntry struct {
	Query       string
	Language    string
	Answered    bool
	Confidence  float64
	Sources     []string
	ResultCount int
	DurationMs  int64
}

// QueryLogWriter persists query outcomes. Logging is best effort; a
// write failure never fails the query it describes.
type QueryLogWriter interface {
	CreateQueryLog(ctx context.Context, entry QueryLogEntry) (string, error)
}

// RAGConfig holds the retrieval knobs applied to every query.
type RAGConfig struct {
	TopK     int
	MinScore float32
}

// RAGService is the query-side facade: retrieve evidence, synthesize an
// answer, record the outcome.
type RAGService struct {
	retriever Retriever
	answerer  Answerer
	ingestor  Ingestor
	readiness ReadinessChecker
	index     DocumentIndex
	queryLog  QueryLogWriter
	cfg       RAGConfig
}

// NewRAGService creates a RAGService. queryLog may be nil to disable
// query logging.
func NewRAGService(
	retriever Retriever,
	answerer Answerer,
	ingestor Ingestor,
	readiness ReadinessChecker,
	index DocumentIndex,
	queryLog QueryLogWriter,
	cfg RAGConfig,
) *RAGService {
	return &RAGService{
		retriever: retriever,
		answerer:  answerer,
		ingestor:  ingestor,
		readiness: readiness,
		index:     index,
		queryLog:  queryLog,
		cfg:       cfg,
	}
}

// Query answers a natural-language question from the indexed documents.
func (s *RAGService) Query(ctx context.Context, query, language string) (*domain.Answer, error) {
	if language == "" {
		language = "en"
	}
	start := time.Now()

	ctx, span := telemetry.StartSpan(ctx, "rag.query", telemetry.SpanAttributes{Operation: "query"})
	defer span.End()

	result, err := s.retriever.Retrieve(ctx, query, s.cfg.TopK, s.cfg.MinScore)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	telemetry.AddBreadcrumb(ctx, "retrieval", fmt.Sprintf("retrieved %d chunks", len(result.Chunks)))

	answer, err := s.answerer.Answer(ctx, query, language, result)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	s.logQuery(ctx, QueryLogEntry{
		Query:       query,
		Language:    language,
		Answered:    !answer.InsufficientEvidence,
		Confidence:  answer.Confidence,
		Sources:     answer.Sources,
		ResultCount: len(result.Chunks),
		DurationMs:  time.Since(start).Milliseconds(),
	})

	return answer, nil
}

// Ingest indexes one document.
func (s *RAGService) Ingest(ctx context.Context, doc *domain.Document) (*domain.IngestResult, error) {
	return s.ingestor.Ingest(ctx, doc)
}

// DocumentChunkCount reports how many indexed chunks belong to the
// document. Zero means the document is not in the index.
func (s *RAGService) DocumentChunkCount(ctx context.Context, documentID string) (int, error) {
	return s.index.CountByDocument(ctx, documentID)
}

// DeleteDocument removes every indexed chunk of the document and returns
// how many were removed.
func (s *RAGService) DeleteDocument(ctx context.Context, documentID string) (int64, error) {
	return s.index.DeleteByDocument(ctx, documentID)
}

// IsReady reports whether the service can answer queries, meaning the
// index is reachable and holds at least one chunk.
func (s *RAGService) IsReady(ctx context.Context) bool {
	ok, err := s.readiness.HasAny(ctx)
	if err != nil {
		log.Printf("readiness check failed: %v", err)
		return false
	}
	return ok
}

func (s *RAGService) logQuery(ctx context.Context, entry QueryLogEntry) {
	if s.queryLog == nil {
		return
	}
	if _, err := s.queryLog.CreateQueryLog(ctx, entry); err != nil {
		log.Printf("failed to record query log: %v", err)
	}
}
