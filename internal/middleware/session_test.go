package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identity "github.com/bryanwahyu/pitchlens/internal/domain/identity"
)

func issueSession(t *testing.T, m *SessionManager, p identity.Principal) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Issue(rec, p)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestSessionIssueAndResolve(t *testing.T) {
	m := NewSessionManager("sess", time.Hour, false)
	c := issueSession(t, m, identity.Principal{ID: "uid-1", Email: "a@b.c"})

	assert.Equal(t, "sess", c.Name)
	assert.True(t, c.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	p, ok := m.Principal(req)
	require.True(t, ok)
	assert.Equal(t, "uid-1", p.ID)
}

func TestSessionClear(t *testing.T) {
	m := NewSessionManager("sess", time.Hour, false)
	c := issueSession(t, m, identity.Principal{ID: "uid-1"})

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(c)
	rec := httptest.NewRecorder()
	m.Clear(rec, req)

	// cookie expired client-side
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)

	// session gone server-side even if the old cookie is replayed
	replay := httptest.NewRequest(http.MethodGet, "/", nil)
	replay.AddCookie(c)
	_, ok := m.Principal(replay)
	assert.False(t, ok)
}

func TestSessionExpiry(t *testing.T) {
	m := NewSessionManager("sess", time.Millisecond, false)
	c := issueSession(t, m, identity.Principal{ID: "uid-1"})

	time.Sleep(5 * time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	_, ok := m.Principal(req)
	assert.False(t, ok)
}

func TestSessionMiddlewareContext(t *testing.T) {
	m := NewSessionManager("sess", time.Hour, false)
	c := issueSession(t, m, identity.Principal{ID: "uid-1"})

	var got identity.Principal
	var found bool
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = PrincipalFromContext(r.Context())
	}))

	// anonymous request passes through with no principal
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, found)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.True(t, found)
	assert.Equal(t, "uid-1", got.ID)
}

func TestSessionsAreIndependent(t *testing.T) {
	m := NewSessionManager("sess", time.Hour, false)
	c1 := issueSession(t, m, identity.Principal{ID: "uid-1"})
	c2 := issueSession(t, m, identity.Principal{ID: "uid-2"})
	assert.NotEqual(t, c1.Value, c2.Value)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c2)
	p, ok := m.Principal(req)
	require.True(t, ok)
	assert.Equal(t, "uid-2", p.ID)
}
