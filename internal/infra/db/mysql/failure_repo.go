package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/bryanwahyu/pitchlens/internal/domain/genfailures"
)

type FailureRepository struct {
	db *sql.DB
}

func NewFailureRepository(db *sql.DB) *FailureRepository { return &FailureRepository{db: db} }

func (r *FailureRepository) Save(ctx context.Context, f *domain.Failure) error {
	const q = `
INSERT INTO generation_failures
  (analysis_id, provider, message, created_at)
VALUES (?,?,?,?);
`
	analysisID := stringOrDash(f.AnalysisID)
	provider := stringOrDash(f.Provider)
	msg := f.Message
	if strings.TrimSpace(msg) == "" {
		msg = "-"
	}
	created := f.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q, analysisID, provider, msg, created)
	return err
}

func (r *FailureRepository) ListByAnalysis(ctx context.Context, analysisID string, limit int) ([]*domain.Failure, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, analysis_id, provider, message, created_at
FROM generation_failures
WHERE analysis_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, analysisID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Failure
	for rows.Next() {
		var f domain.Failure
		if err := rows.Scan(&f.ID, &f.AnalysisID, &f.Provider, &f.Message, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}
