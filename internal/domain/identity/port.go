package identity

import "context"

// Verifier validates an externally-issued identity token.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

// ProfileRepository port for the user-profile upsert.
// Upsert must merge non-destructively: empty incoming fields keep the
// stored value.
type ProfileRepository interface {
	Upsert(ctx context.Context, p *Profile) error
}
