//go:build integration

package repository

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/cloo-solutions/docqa/internal/domain"
	"github.com/cloo-solutions/docqa/internal/service"
	"github.com/cloo-solutions/docqa/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDimensions = 1536

// unitVector returns a 1536-dim unit vector along the given axis.
func unitVector(axis int) []float32 {
	v := make([]float32, testDimensions)
	v[axis] = 1
	return v
}

// blendVector returns the normalized sum of two axes, which has cosine
// similarity 1/sqrt(2) with either axis alone.
func blendVector(axisA, axisB int) []float32 {
	v := make([]float32, testDimensions)
	component := float32(1 / math.Sqrt2)
	v[axisA] = component
	v[axisB] = component
	return v
}

func record(docID string, index int, text string, embedding []float32) domain.ChunkRecord {
	return domain.ChunkRecord{
		ID:         uuid.NewString(),
		DocumentID: docID,
		ChunkIndex: index,
		Text:       text,
		Embedding:  embedding,
		IngestedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestChunkRepository_UpsertAndSearch(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewChunkRepository(pool, testDimensions)

	require.NoError(t, repo.Upsert(ctx, record("doc-1", 0, "exact match", unitVector(0))))
	require.NoError(t, repo.Upsert(ctx, record("doc-1", 1, "partial match", blendVector(0, 1))))
	require.NoError(t, repo.Upsert(ctx, record("doc-2", 0, "unrelated", unitVector(1))))

	results, err := repo.Search(ctx, unitVector(0), 4, 0.2)
	require.NoError(t, err)

	// The orthogonal chunk scores 0 and falls below the threshold.
	require.Len(t, results, 2)
	assert.Equal(t, "exact match", results[0].Text)
	assert.InDelta(t, 1.0, float64(results[0].Score), 1e-3)
	assert.Equal(t, "partial match", results[1].Text)
	assert.InDelta(t, 1/math.Sqrt2, float64(results[1].Score), 1e-3)

	// topK caps the result count.
	results, err = repo.Search(ctx, unitVector(0), 1, 0.2)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "exact match", results[0].Text)
}

func TestChunkRepository_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewChunkRepository(pool, testDimensions)

	rec := record("doc-1", 0, "first version", unitVector(0))
	require.NoError(t, repo.Upsert(ctx, rec))

	rec.Text = "second version"
	rec.Embedding = unitVector(2)
	require.NoError(t, repo.Upsert(ctx, rec))

	count, err := repo.CountByDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := repo.Search(ctx, unitVector(2), 1, 0.2)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "second version", results[0].Text)
}

func TestChunkRepository_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewChunkRepository(pool, testDimensions)

	short := make([]float32, 3)
	err := repo.Upsert(ctx, record("doc-1", 0, "x", short))
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, err = repo.Search(ctx, short, 4, 0.2)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestChunkRepository_HasAnyAndDelete(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewChunkRepository(pool, testDimensions)

	hasAny, err := repo.HasAny(ctx)
	require.NoError(t, err)
	assert.False(t, hasAny)

	require.NoError(t, repo.Upsert(ctx, record("doc-1", 0, "a", unitVector(0))))
	require.NoError(t, repo.Upsert(ctx, record("doc-1", 1, "b", unitVector(1))))

	hasAny, err = repo.HasAny(ctx)
	require.NoError(t, err)
	assert.True(t, hasAny)

	deleted, err := repo.DeleteByDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	hasAny, err = repo.HasAny(ctx)
	require.NoError(t, err)
	assert.False(t, hasAny)
}

func TestChunkRepository_EnsureEmbedder(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewChunkRepository(pool, testDimensions)

	require.NoError(t, repo.EnsureEmbedder(ctx, "text-embedding-ada-002"))

	// Same binding is accepted on restart.
	require.NoError(t, repo.EnsureEmbedder(ctx, "text-embedding-ada-002"))

	// A different embedder must not share the index.
	err := repo.EnsureEmbedder(ctx, "text-embedding-3-small")
	require.Error(t, err)
	var de *domain.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.ErrCodeInvalidConfig, de.Code)
}

func TestQueryLogRepository_CreateQueryLog(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewQueryLogRepository(pool)

	id, err := repo.CreateQueryLog(ctx, service.QueryLogEntry{
		Query:       "what is the refund window?",
		Language:    "en",
		Answered:    true,
		Confidence:  0.81,
		Sources:     []string{"handbook.pdf"},
		ResultCount: 1,
		DurationMs:  42,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	var answered bool
	var confidence float64
	err = pool.QueryRow(ctx, `SELECT answered, confidence FROM query_logs WHERE id = $1`, id).
		Scan(&answered, &confidence)
	require.NoError(t, err)
	assert.True(t, answered)
	assert.InDelta(t, 0.81, confidence, 1e-9)
}
