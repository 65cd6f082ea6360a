package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmarchuk/legalintel/internal/core/domain"
)

// QueryRepository records executed interrogations for audit and suggestions.
type QueryRepository struct {
	db *sql.DB
}

func NewQueryRepository(db *sql.DB) *QueryRepository {
	return &QueryRepository{db: db}
}

func (r *QueryRepository) Insert(ctx context.Context, entry domain.QueryLogEntry) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO queries (user_id, query_text, result_count, execution_time_ms, created_at)
VALUES ($1,$2,$3,$4,$5)
`, entry.UserID, entry.QueryText, entry.ResultCount, entry.ExecutionTimeMS, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert query log: %w", err)
	}
	return nil
}

// PopularQueries returns the most frequent past query texts matching prefix.
func (r *QueryRepository) PopularQueries(ctx context.Context, prefix string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT query_text
FROM queries
WHERE query_text ILIKE '%' || $1 || '%'
GROUP BY query_text
ORDER BY COUNT(id) DESC
LIMIT $2
`, prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("select popular queries: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("scan popular query: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate popular queries: %w", err)
	}
	return out, nil
}
