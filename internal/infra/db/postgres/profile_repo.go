package postgres

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/bryanwahyu/pitchlens/internal/domain/identity"
)

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Upsert merges the profile non-destructively: empty incoming values
// keep whatever is already stored.
func (r *ProfileRepository) Upsert(ctx context.Context, p *domain.Profile) error {
	const q = `
INSERT INTO users (id, email, name, picture, last_login)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO UPDATE SET
  email      = COALESCE(NULLIF(EXCLUDED.email, ''), users.email),
  name       = COALESCE(NULLIF(EXCLUDED.name, ''), users.name),
  picture    = COALESCE(NULLIF(EXCLUDED.picture, ''), users.picture),
  last_login = EXCLUDED.last_login;
`
	lastLogin := p.LastLogin
	if lastLogin.IsZero() {
		lastLogin = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q, p.ID, p.Email, p.Name, p.Picture, lastLogin)
	return err
}
