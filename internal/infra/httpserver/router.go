package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appanalyses "github.com/bryanwahyu/pitchlens/internal/application/analyses"
	appidentity "github.com/bryanwahyu/pitchlens/internal/application/identity"
	domain "github.com/bryanwahyu/pitchlens/internal/domain/analyses"
	domid "github.com/bryanwahyu/pitchlens/internal/domain/identity"
	"github.com/bryanwahyu/pitchlens/internal/middleware"
)

type Router struct {
	analysesSvc *appanalyses.Service
	identitySvc *appidentity.Service
	sessions    *middleware.SessionManager
}

// Options for surface wiring not owned by the services themselves.
type Options struct {
	CORSOrigins    []string
	HealthCheckers map[string]middleware.HealthChecker

	// Analyze rate limit; zero values disable it.
	RateLimitCapacity int
	RateLimitRefill   int
}

func NewRouter(analysesSvc *appanalyses.Service, identitySvc *appidentity.Service, sessions *middleware.SessionManager, opts Options) http.Handler {
	r := &Router{analysesSvc: analysesSvc, identitySvc: identitySvc, sessions: sessions}
	mux := chi.NewRouter()

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(sessions.Middleware)

	mux.Get("/health", middleware.HealthHandler(opts.HealthCheckers))
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/api", func(rt chi.Router) {
		rt.Post("/login", r.wrap(r.handleLogin))
		rt.Post("/logout", r.wrap(r.handleLogout))
		rt.Get("/me", r.wrap(r.handleMe))

		analyze := rt.With()
		if opts.RateLimitCapacity > 0 {
			analyze = rt.With(middleware.RateLimitMiddleware(opts.RateLimitCapacity, opts.RateLimitRefill))
		}
		analyze.Post("/analyze", r.wrap(r.handleAnalyze))

		rt.Get("/doc/{id}", r.wrap(r.handleDoc))
		rt.Get("/pdf/{id}", r.wrap(r.handleExport))
		rt.Get("/history", r.wrap(r.handleHistory))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap maps domain errors onto the HTTP taxonomy. Internal detail is
// logged, never sent to the client.
func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "Missing input")
		case errors.Is(err, domid.ErrUnauthenticated):
			writeError(w, http.StatusUnauthorized, "Login failed")
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "Not found")
		case errors.Is(err, domain.ErrStoreUnavailable):
			log.Printf("store error on %s %s: %v", req.Method, req.URL.Path, err)
			writeError(w, http.StatusInternalServerError, "Database not ready")
		default:
			log.Printf("handler error on %s %s: %v", req.Method, req.URL.Path, err)
			writeError(w, http.StatusInternalServerError, "Internal error")
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	_ = writeJSON(w, status, map[string]any{"error": msg})
}

// POST /api/login
// Body: {"token": "<id token>"}
func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Token == "" {
		return domid.ErrUnauthenticated
	}

	p, err := r.identitySvc.Login(req.Context(), body.Token)
	if err != nil {
		return err
	}

	r.sessions.Issue(w, *p)
	return writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// POST /api/logout
func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) error {
	r.sessions.Clear(w, req)
	return writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// GET /api/me
func (r *Router) handleMe(w http.ResponseWriter, req *http.Request) error {
	p, ok := middleware.PrincipalFromContext(req.Context())
	if !ok {
		return writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"id":            p.ID,
		"email":         p.Email,
		"name":          p.Name,
		"picture":       p.Picture,
	})
}

// POST /api/analyze
// Body: {"name","pitch","description","industry","mode"} — all optional,
// but at least one of name/pitch/description must be non-empty.
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Name        string `json:"name"`
		Pitch       string `json:"pitch"`
		Description string `json:"description"`
		Industry    string `json:"industry"`
		Mode        string `json:"mode"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return domain.ErrInvalidInput
	}

	cmd := appanalyses.SubmitCommand{
		Name:        middleware.SanitizeString(body.Name),
		Pitch:       middleware.SanitizeString(body.Pitch),
		Description: middleware.SanitizeString(body.Description),
		Industry:    middleware.SanitizeString(body.Industry),
		Mode:        middleware.ValidateMode(body.Mode),
	}
	if p, ok := middleware.PrincipalFromContext(req.Context()); ok {
		cmd.UserID = p.ID
	}

	middleware.IncrementAnalyses()
	middleware.IncrementAnalysesRunning()
	defer middleware.DecrementAnalysesRunning()

	res, err := r.analysesSvc.Submit(req.Context(), cmd)
	if err != nil {
		if errors.Is(err, domain.ErrGenerationFailed) {
			// The record exists in "failed" state; surface the id so the
			// failure is discoverable without a history lookup.
			middleware.IncrementAnalysesFailed()
			log.Printf("generation failed for analysis %s: %v", res.ID, err)
			return writeJSON(w, http.StatusInternalServerError, map[string]any{
				"error": "Generation failed",
				"id":    res.ID,
			})
		}
		return err
	}

	return writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": res.ID})
}

// GET /api/doc/{id}
func (r *Router) handleDoc(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateAnalysisID(id); err != nil {
		// malformed keys cannot match a record, no need to hit the store
		return domain.ErrNotFound
	}

	a, err := r.analysesSvc.Get(req.Context(), domain.AnalysisID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, a)
}

// GET /api/pdf/{id}
// Despite the name this is a plain structured dump served as an
// attachment, kept for client compatibility.
func (r *Router) handleExport(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateAnalysisID(id); err != nil {
		return domain.ErrNotFound
	}

	a, err := r.analysesSvc.Get(req.Context(), domain.AnalysisID(id))
	if err != nil {
		return err
	}

	content, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="analysis_%s.txt"`, id))
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(content)
	return err
}

// GET /api/history?limit=N — up to 50 most recent analyses, newest first
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	limit := domain.MaxHistory
	if raw := req.URL.Query().Get("limit"); raw != "" {
		n, _ := strconv.Atoi(raw)
		limit = middleware.ValidateLimit(n)
	}

	list, err := r.analysesSvc.Latest(req.Context(), limit)
	if err != nil {
		return err
	}
	if list == nil {
		list = []*domain.Analysis{}
	}
	return writeJSON(w, http.StatusOK, map[string]any{"items": list})
}
