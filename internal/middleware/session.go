package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	identity "github.com/bryanwahyu/pitchlens/internal/domain/identity"
)

type contextKey string

const principalKey contextKey = "principal"

const DefaultSessionCookie = "pitchlens_session"

type sessionEntry struct {
	principal identity.Principal
	expiresAt time.Time
}

// SessionManager keeps server-side sessions keyed by an opaque cookie id.
// Sessions live in process memory; a restart logs everyone out.
type SessionManager struct {
	mu         sync.RWMutex
	sessions   map[string]sessionEntry
	cookieName string
	ttl        time.Duration
	secure     bool
}

func NewSessionManager(cookieName string, ttl time.Duration, secure bool) *SessionManager {
	if cookieName == "" {
		cookieName = DefaultSessionCookie
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	m := &SessionManager{
		sessions:   make(map[string]sessionEntry),
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
	}

	// Start cleanup goroutine to remove expired sessions
	go m.cleanup()

	return m
}

// Issue creates a session for the principal and sets the cookie.
func (m *SessionManager) Issue(w http.ResponseWriter, p identity.Principal) {
	sid := uuid.New().String()

	m.mu.Lock()
	m.sessions[sid] = sessionEntry{principal: p, expiresAt: time.Now().Add(m.ttl)}
	m.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(m.ttl.Seconds()),
	})
}

// Clear drops the session (if any) and expires the cookie.
func (m *SessionManager) Clear(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(m.cookieName); err == nil {
		m.mu.Lock()
		delete(m.sessions, c.Value)
		m.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// Principal resolves the request's session, if it has a live one.
func (m *SessionManager) Principal(r *http.Request) (identity.Principal, bool) {
	c, err := r.Cookie(m.cookieName)
	if err != nil {
		return identity.Principal{}, false
	}

	m.mu.RLock()
	entry, ok := m.sessions[c.Value]
	m.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return identity.Principal{}, false
	}
	return entry.principal, true
}

// Middleware threads the session principal through the request context.
// Anonymous requests pass through untouched.
func (m *SessionManager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, ok := m.Principal(r); ok {
			ctx := context.WithValue(r.Context(), principalKey, p)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// PrincipalFromContext extracts the session principal from context
func PrincipalFromContext(ctx context.Context) (identity.Principal, bool) {
	p, ok := ctx.Value(principalKey).(identity.Principal)
	return p, ok
}

func (m *SessionManager) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		m.mu.Lock()
		for sid, entry := range m.sessions {
			if now.After(entry.expiresAt) {
				delete(m.sessions, sid)
			}
		}
		m.mu.Unlock()
	}
}
