package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/pitchlens/internal/domain/identity"
)

func TestVerifySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok-123", r.URL.Query().Get("id_token"))
		json.NewEncoder(w).Encode(map[string]string{
			"sub":     "uid-1",
			"email":   "ada@example.com",
			"name":    "Ada",
			"picture": "http://img/a.png",
		})
	}))
	defer srv.Close()

	v := NewVerifier(srv.URL)
	p, err := v.Verify(context.Background(), "tok-123")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", p.ID)
	assert.Equal(t, "ada@example.com", p.Email)
	assert.Equal(t, "Ada", p.Name)
	assert.Equal(t, "http://img/a.png", p.Picture)
}

func TestVerifyRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_token"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	v := NewVerifier(srv.URL)
	_, err := v.Verify(context.Background(), "bad")
	assert.True(t, errors.Is(err, domain.ErrUnauthenticated))
}

func TestVerifyMissingSubject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"email": "ada@example.com"})
	}))
	defer srv.Close()

	v := NewVerifier(srv.URL)
	_, err := v.Verify(context.Background(), "tok")
	assert.True(t, errors.Is(err, domain.ErrUnauthenticated))
}

func TestVerifyEmptyToken(t *testing.T) {
	v := NewVerifier("http://unused.invalid")
	_, err := v.Verify(context.Background(), "")
	assert.True(t, errors.Is(err, domain.ErrUnauthenticated))
}
