package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cloo-solutions/docqa/internal/chunker"
	"github.com/cloo-solutions/docqa/internal/domain"
	"github.com/cloo-solutions/docqa/internal/parser"
	"github.com/cloo-solutions/docqa/internal/telemetry"
	"github.com/google/uuid"
)

// chunkNamespace is the UUIDv5 namespace for chunk ids. Ids are a pure
// function of (document id, chunk index), so re-ingesting a document
// overwrites its previous chunks instead of duplicating them.
var chunkNamespace = uuid.MustParse("7a0e4c1e-9d5b-4a6f-8c3d-2b1a0f9e8d7c")

// ChunkID returns the deterministic id for a document's n-th chunk.
func ChunkID(documentID string, index int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(fmt.Sprintf("%s:%d", documentID, index))).String()
}

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ChunkWriter defines the vector-index write interface used by ingestion
type ChunkWriter interface {
	Upsert(ctx context.Context, record domain.ChunkRecord) error
}

// IngestService turns uploaded documents into indexed chunks: extract
// text, chunk, embed each chunk, upsert into the vector index.
type IngestService struct {
	extractor parser.Extractor
	embedder  EmbeddingClient
	store     ChunkWriter
	chunker   *chunker.Chunker
	workers   int
}

// NewIngestService creates an IngestService. The chunk configuration is
// validated here; a bad S/O pair is a startup error, not a per-call one.
func NewIngestService(
	extractor parser.Extractor,
	embedder EmbeddingClient,
	store ChunkWriter,
	chunkCfg chunker.Config,
	workers int,
) (*IngestService, error) {
	c, err := chunker.New(chunkCfg)
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = 1
	}
	return &IngestService{
		extractor: extractor,
		embedder:  embedder,
		store:     store,
		chunker:   c,
		workers:   workers,
	}, nil
}

// Ingest processes one document end to end. Chunks are embedded and
// upserted with bounded parallelism. On failure partway through, chunks
// already upserted stay in the index and the error reports the committed
// count; retrying the whole document converges because chunk ids are
// deterministic and upserts are idempotent.
func (s *IngestService) Ingest(ctx context.Context, doc *domain.Document) (*domain.IngestResult, error) {
	if err := domain.ValidateDocument(doc); err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "ingest.document", telemetry.SpanAttributes{
		DocumentID: doc.ID,
		Operation:  "ingest",
	})
	defer span.End()

	text, err := s.extractor.ExtractText(ctx, doc.Content, doc.ContentType)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	chunks := s.chunker.Split(doc.ID, text)
	if len(chunks) == 0 {
		return &domain.IngestResult{DocumentID: doc.ID, ChunksIndexed: 0, ChunkIDs: []string{}}, nil
	}

	ingestedAt := doc.UploadedAt
	if ingestedAt.IsZero() {
		ingestedAt = time.Now().UTC()
	}

	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan domain.Chunk)
	ids := make([]string, len(chunks))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	committed := 0

	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ch := range jobs {
				if workCtx.Err() != nil {
					continue
				}

				id := ChunkID(ch.DocumentID, ch.Index)
				embedding, embedErr := s.embedder.GenerateEmbedding(workCtx, ch.Text)
				var upsertErr error
				if embedErr == nil {
					upsertErr = s.store.Upsert(workCtx, domain.ChunkRecord{
						ID:         id,
						DocumentID: ch.DocumentID,
						ChunkIndex: ch.Index,
						Text:       ch.Text,
						Embedding:  embedding,
						IngestedAt: ingestedAt,
					})
				}

				mu.Lock()
				switch {
				case embedErr != nil:
					if firstErr == nil {
						firstErr = embedErr
						cancel()
					}
				case upsertErr != nil:
					if firstErr == nil {
						firstErr = upsertErr
						cancel()
					}
				default:
					ids[ch.Index] = id
					committed++
				}
				mu.Unlock()
			}
		}()
	}

	for _, ch := range chunks {
		jobs <- ch
	}
	close(jobs)
	wg.Wait()

	if firstErr == nil && ctx.Err() != nil {
		firstErr = ctx.Err()
	}
	if firstErr != nil {
		err := &domain.PartialIngestionError{
			DocumentID: doc.ID,
			Committed:  committed,
			Err:        firstErr,
		}
		span.SetError(err)
		return nil, err
	}

	return &domain.IngestResult{
		DocumentID:    doc.ID,
		ChunksIndexed: committed,
		ChunkIDs:      ids,
	}, nil
}
