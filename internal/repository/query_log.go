package repository

import (
	"context"
	"encoding/json"

	"github.com/cloo-solutions/docqa/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QueryLogRepository stores per-query outcomes for evaluation.
type QueryLogRepository struct {
	pool *pgxpool.Pool
}

func NewQueryLogRepository(pool *pgxpool.Pool) *QueryLogRepository {
	return &QueryLogRepository{pool: pool}
}

func (r *QueryLogRepository) CreateQueryLog(ctx context.Context, entry service.QueryLogEntry) (string, error) {
	sourcesJSON, _ := json.Marshal(entry.Sources)

	var id string
	err := r.pool.QueryRow(ctx,
		`INSERT INTO query_logs (query, language, answered, confidence, sources, result_count, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		entry.Query,
		entry.Language,
		entry.Answered,
		entry.Confidence,
		sourcesJSON,
		entry.ResultCount,
		entry.DurationMs,
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}
