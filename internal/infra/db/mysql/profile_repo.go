package mysql

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
VALUES (?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  email   = IF(VALUES(email)   = '', email,   VALUES(email)),
  name    = IF(VALUES(name)    = '', name,    VALUES(name)),
  picture = IF(VALUES(picture) = '', picture, VALUES(picture)),
  last_login = VALUES(last_login);
`
	lastLogin := p.LastLogin
	if lastLogin.IsZero() {
		lastLogin = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q, p.ID, p.Email, p.Name, p.Picture, lastLogin)
	return err
}
