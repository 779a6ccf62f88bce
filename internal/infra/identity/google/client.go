package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	domain "github.com/bryanwahyu/pitchlens/internal/domain/identity"
)

const defaultTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// Verifier validates ID tokens against the Google tokeninfo endpoint.
// The identity provider does the actual cryptographic verification; we
// only accept or reject its answer.
type Verifier struct {
	httpClient *http.Client
	endpoint   string
}

func NewVerifier(endpoint string) *Verifier {
	if endpoint == "" {
		endpoint = defaultTokenInfoURL
	}
	return &Verifier{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   endpoint,
	}
}

type tokenClaims struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (v *Verifier) Verify(ctx context.Context, token string) (*domain.Principal, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}

	u := fmt.Sprintf("%s?id_token=%s", v.endpoint, url.QueryEscape(token))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token verification unreachable: %w", err)
	}
	defer resp.Body.Close()

	// The endpoint answers non-200 for invalid or expired tokens.
	if resp.StatusCode != http.StatusOK {
		return nil, domain.ErrUnauthenticated
	}

	var claims tokenClaims
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return nil, fmt.Errorf("%w: undecodable claims", domain.ErrUnauthenticated)
	}
	if claims.Sub == "" {
		return nil, fmt.Errorf("%w: token has no subject", domain.ErrUnauthenticated)
	}

	return &domain.Principal{
		ID:      claims.Sub,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}
