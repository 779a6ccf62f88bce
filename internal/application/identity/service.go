package identity

import (
	"context"
	"log"

	"github.com/bryanwahyu/pitchlens/internal/application"
	domain "github.com/bryanwahyu/pitchlens/internal/domain/identity"
)

type Service struct {
	verifier domain.Verifier
	profiles domain.ProfileRepository
	clock    application.Clock
}

func NewService(verifier domain.Verifier, profiles domain.ProfileRepository, clock application.Clock) *Service {
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &Service{verifier: verifier, profiles: profiles, clock: clock}
}

// Login verifies the token and merges the profile record.
// A profile write error does not fail the login; the principal is valid
// either way.
func (s *Service) Login(ctx context.Context, token string) (*domain.Principal, error) {
	p, err := s.verifier.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	if s.profiles != nil {
		prof := &domain.Profile{
			ID:        p.ID,
			Email:     p.Email,
			Name:      p.Name,
			Picture:   p.Picture,
			LastLogin: s.clock.Now(),
		}
		if err := s.profiles.Upsert(ctx, prof); err != nil {
			log.Printf("profile upsert error for %s: %v", p.ID, err)
		}
	}

	return p, nil
}
