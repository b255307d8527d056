package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cloo-solutions/docqa/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// dbtx is the subset of pgxpool.Pool / pgx.Tx the repositories use.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ChunkRepository is the vector index: durable (vector, chunk text,
// metadata) records over Postgres with pgvector, with cosine-similarity
// search. One embedder configuration is pinned per index via index_meta.
type ChunkRepository struct {
	db         dbtx
	dimensions int
}

func NewChunkRepository(pool *pgxpool.Pool, dimensions int) *ChunkRepository {
	return &ChunkRepository{db: pool, dimensions: dimensions}
}

// EnsureEmbedder binds the given embedder configuration to the index, or
// verifies the existing binding. Upserting or searching with vectors from
// a different embedder would silently corrupt ranking, so a mismatch is a
// hard configuration error.
func (r *ChunkRepository) EnsureEmbedder(ctx context.Context, modelID string) error {
	var storedModel string
	var storedDims int
	err := r.db.QueryRow(ctx,
		`SELECT embedder_model, dimensions FROM index_meta WHERE singleton = TRUE`,
	).Scan(&storedModel, &storedDims)
	if errors.Is(err, pgx.ErrNoRows) {
		_, err = r.db.Exec(ctx,
			`INSERT INTO index_meta (singleton, embedder_model, dimensions) VALUES (TRUE, $1, $2)`,
			modelID, r.dimensions,
		)
		return err
	}
	if err != nil {
		return err
	}

	if storedModel != modelID || storedDims != r.dimensions {
		return domain.NewDomainError(domain.ErrCodeInvalidConfig,
			"index is bound to embedder "+storedModel+"; refusing to mix embedding spaces")
	}
	return nil
}

// Upsert writes one chunk record. Re-upserting the same chunk id replaces
// its vector and metadata (last writer wins).
func (r *ChunkRepository) Upsert(ctx context.Context, record domain.ChunkRecord) error {
	if len(record.Embedding) != r.dimensions {
		return domain.ErrDimensionMismatch
	}

	ingestedAt := record.IngestedAt
	if ingestedAt.IsZero() {
		ingestedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO document_chunks (id, document_id, chunk_index, content, embedding, ingested_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET
			document_id = EXCLUDED.document_id,
			chunk_index = EXCLUDED.chunk_index,
			content     = EXCLUDED.content,
			embedding   = EXCLUDED.embedding,
			ingested_at = EXCLUDED.ingested_at`,
		record.ID,
		record.DocumentID,
		record.ChunkIndex,
		record.Text,
		pgvector.NewVector(record.Embedding),
		ingestedAt,
	)
	return err
}

// Search returns up to topK chunks ordered by descending cosine similarity,
// excluding scores below minScore. An empty result is not an error.
func (r *ChunkRepository) Search(ctx context.Context, vector []float32, topK int, minScore float32) ([]domain.RetrievedChunk, error) {
	if len(vector) != r.dimensions {
		return nil, domain.ErrDimensionMismatch
	}
	if topK <= 0 {
		return []domain.RetrievedChunk{}, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, document_id, content, 1 - (embedding <=> $1) AS score
		 FROM document_chunks
		 WHERE 1 - (embedding <=> $1) >= $2
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		pgvector.NewVector(vector), minScore, topK,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.RetrievedChunk, 0, topK)
	for rows.Next() {
		var c domain.RetrievedChunk
		var score float64
		if err := rows.Scan(&c.ChunkID, &c.DocumentID, &c.Text, &score); err != nil {
			return nil, err
		}
		c.Score = float32(score)
		results = append(results, c)
	}
	return results, rows.Err()
}

// HasAny reports whether the index holds at least one chunk.
func (r *ChunkRepository) HasAny(ctx context.Context) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM document_chunks)`,
	).Scan(&exists)
	return exists, err
}

// CountByDocument returns the number of chunks stored for a document.
func (r *ChunkRepository) CountByDocument(ctx context.Context, documentID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM document_chunks WHERE document_id = $1`,
		documentID,
	).Scan(&count)
	return count, err
}

// DeleteByDocument removes all chunks for a document and returns how many
// were deleted.
func (r *ChunkRepository) DeleteByDocument(ctx context.Context, documentID string) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM document_chunks WHERE document_id = $1`,
		documentID,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
