package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/bryanwahyu/pitchlens/internal/domain/analyses"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Create inserts the initial record and returns the generated key
func (r *AnalysisRepository) Create(ctx context.Context, a *domain.Analysis) (domain.AnalysisID, error) {
	const q = `
INSERT INTO analyses
(id, name, pitch, description, industry, mode, user_id, status, created_at)
VALUES (?,?,?,?,?,?,?,?,?);
`
	id := domain.AnalysisID(uuid.New().String())
	status := stringOrDash(string(a.Status))
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err := r.db.ExecContext(ctx, q,
		id, a.Name, a.Pitch, a.Description, a.Industry, string(a.Mode),
		a.UserID, status, created,
	)
	if err != nil {
		return "", err
	}
	a.ID = id
	a.CreatedAt = created
	return id, nil
}

// Update applies a merge patch: only the supplied fields are written
func (r *AnalysisRepository) Update(ctx context.Context, id domain.AnalysisID, p domain.Patch) error {
	var sets []string
	var args []any

	if p.Status != nil {
		sets = append(sets, "status=?")
		args = append(args, string(*p.Status))
	}
	if p.Result != nil {
		sets = append(sets, "result=?")
		args = append(args, *p.Result)
	}
	if p.Error != nil {
		sets = append(sets, "error_detail=?")
		args = append(args, *p.Error)
	}
	if p.CompletedAt != nil {
		sets = append(sets, "completed_at=?")
		args = append(args, *p.CompletedAt)
	}
	if p.ArtifactURL != nil {
		sets = append(sets, "artifact_url=?")
		args = append(args, *p.ArtifactURL)
	}
	if len(sets) == 0 {
		return nil
	}

	q := fmt.Sprintf("UPDATE analyses SET %s WHERE id=?;", strings.Join(sets, ", "))
	args = append(args, string(id))

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Get by ID
func (r *AnalysisRepository) Get(ctx context.Context, id domain.AnalysisID) (*domain.Analysis, error) {
	const q = `
SELECT id, name, pitch, description, industry, mode, user_id, status,
       created_at, completed_at, result, error_detail, artifact_url
FROM analyses
WHERE id=? LIMIT 1;
`
	a, err := scanAnalysis(r.db.QueryRowContext(ctx, q, string(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// Latest analyses, newest first
func (r *AnalysisRepository) Latest(ctx context.Context, limit int) ([]*domain.Analysis, error) {
	if limit <= 0 || limit > domain.MaxHistory {
		limit = domain.MaxHistory
	}
	const q = `
SELECT id, name, pitch, description, industry, mode, user_id, status,
       created_at, completed_at, result, error_detail, artifact_url
FROM analyses
ORDER BY created_at DESC, id DESC
LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (*domain.Analysis, error) {
	var a domain.Analysis
	var userID, result, errDetail, artifactURL sql.NullString
	var completed sql.NullTime
	if err := row.Scan(
		&a.ID, &a.Name, &a.Pitch, &a.Description, &a.Industry, &a.Mode,
		&userID, &a.Status, &a.CreatedAt, &completed, &result, &errDetail, &artifactURL,
	); err != nil {
		return nil, err
	}
	a.UserID = userID.String
	a.Result = result.String
	a.Error = errDetail.String
	a.ArtifactURL = artifactURL.String
	if completed.Valid {
		t := completed.Time
		a.CompletedAt = &t
	}
	return &a, nil
}
